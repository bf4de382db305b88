package controller

import (
	"errors"
	"net/http"

	"hmm-tagger/internal/model/hmm"
	"hmm-tagger/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TaggerController handles tagging and model inspection HTTP endpoints
type TaggerController struct {
	taggerService *service.TaggerService
	logger        *zap.Logger
}

// NewTaggerController creates a new tagger controller
func NewTaggerController(taggerService *service.TaggerService, logger *zap.Logger) *TaggerController {
	return &TaggerController{
		taggerService: taggerService,
		logger:        logger,
	}
}

type TagRequest struct {
	Sentence string `json:"sentence" binding:"required"`
}

type TagResponse struct {
	Tagged string             `json:"tagged"`
	Tokens hmm.TaggedSentence `json:"tokens"`
}

type TagBatchRequest struct {
	Sentences []string `json:"sentences" binding:"required"`
}

type TagBatchResponse struct {
	Tagged []string `json:"tagged"`
}

// Tag handles POST /api/v1/tag
func (tc *TaggerController) Tag(c *gin.Context) {
	var request TagRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		tc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	tagged, err := tc.taggerService.TagSentence(c.Request.Context(), request.Sentence)
	if err != nil {
		tc.respondError(c, "Failed to tag sentence", err)
		return
	}

	tc.logger.Debug("Tagged sentence", zap.Int("tokens", len(tagged)))
	c.JSON(http.StatusOK, TagResponse{
		Tagged: tagged.String(),
		Tokens: tagged,
	})
}

// TagBatch handles POST /api/v1/tagBatch
func (tc *TaggerController) TagBatch(c *gin.Context) {
	var request TagBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		tc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	response := TagBatchResponse{Tagged: make([]string, 0, len(request.Sentences))}
	for _, sentence := range request.Sentences {
		tagged, err := tc.taggerService.TagSentence(c.Request.Context(), sentence)
		if err != nil {
			tc.respondError(c, "Failed to tag sentence", err)
			return
		}
		response.Tagged = append(response.Tagged, tagged.String())
	}

	tc.logger.Info("Tagged batch", zap.Int("sentences", len(response.Tagged)))
	c.JSON(http.StatusOK, response)
}

// GetModelStats handles GET /api/v1/model/stats
func (tc *TaggerController) GetModelStats(c *gin.Context) {
	stats, err := tc.taggerService.Stats()
	if err != nil {
		tc.respondError(c, "Failed to get model stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTransitionRow handles GET /api/v1/model/transition?prev=TAG
func (tc *TaggerController) GetTransitionRow(c *gin.Context) {
	prev := c.DefaultQuery("prev", hmm.StartTag)

	model, err := tc.taggerService.Model()
	if err != nil {
		tc.respondError(c, "Failed to get transition row", err)
		return
	}

	row, err := model.TransitionRow(prev)
	if err != nil {
		tc.respondError(c, "Failed to get transition row", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prev":        prev,
		"transitions": row,
	})
}

func (tc *TaggerController) respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrModelNotTrained):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrUnknownTag):
		status = http.StatusNotFound
	}

	tc.logger.Error(message, zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
