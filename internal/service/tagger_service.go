package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"hmm-tagger/internal/config"
	"hmm-tagger/internal/model/hmm"

	"go.uber.org/zap"
)

// TaggerService orchestrates training, persistence and decoding
type TaggerService struct {
	cfg         *config.Config
	loader      *CorpusLoader
	persistence *HMMPersistence
	options     ModelOptions
	scoreMode   ScoreMode
	logger      *zap.Logger

	mu      sync.RWMutex
	model   *HMMModel
	decoder *Decoder
}

// NewTaggerService creates a tagger service from configuration
func NewTaggerService(cfg *config.Config, logger *zap.Logger) (*TaggerService, error) {
	scoreMode, err := ParseScoreMode(cfg.Model.ScoreMode)
	if err != nil {
		return nil, err
	}

	persistence, err := NewHMMPersistence(cfg.App.WorkDir, cfg.Output.SnapshotFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create persistence: %w", err)
	}

	return &TaggerService{
		cfg:         cfg,
		loader:      NewCorpusLoader(cfg.Corpus.NormalizeUnicode, logger),
		persistence: persistence,
		options: ModelOptions{
			TransitionFloor: cfg.Model.TransitionFloor,
			SmoothingK:      cfg.Model.SmoothingK,
		},
		scoreMode: scoreMode,
		logger:    logger,
	}, nil
}

// Loader returns the corpus loader used by the service
func (ts *TaggerService) Loader() *CorpusLoader {
	return ts.loader
}

// Train loads the configured corpus directory and trains on it
func (ts *TaggerService) Train(ctx context.Context) (*ModelStats, error) {
	ts.logger.Info("Loading training corpus", zap.String("dir", ts.cfg.Corpus.Dir))

	sentences, err := ts.loader.LoadDir(ctx, ts.cfg.Corpus.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return ts.TrainFromSentences(ctx, sentences)
}

// TrainFromSentences builds a model, writes both table dumps and the snapshot, then
// installs the model. Nothing is written when building fails.
func (ts *TaggerService) TrainFromSentences(ctx context.Context, sentences []hmm.TaggedSentence) (*ModelStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words, tags := Flatten(sentences)
	model, err := BuildModel(words, tags, ts.options)
	if err != nil {
		ts.logger.Error("Failed to build hmm model",
			zap.Int("sentences", len(sentences)),
			zap.Error(err))
		return nil, err
	}

	err = WriteTablesAtomic(
		TableFile{Path: ts.cfg.OutputPath(ts.cfg.Output.TransitionFile), Table: model.TransitionTable()},
		TableFile{Path: ts.cfg.OutputPath(ts.cfg.Output.EmissionFile), Table: model.EmissionTable()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to write probability tables: %w", err)
	}

	if err := ts.persistence.SaveModel(model); err != nil {
		ts.logger.Warn("Failed to save model snapshot", zap.Error(err))
	}

	stats := describe(model, ts.install(model))
	ts.logger.Info("Training complete",
		zap.String("model_id", stats.ModelID),
		zap.Int("sentences", len(sentences)),
		zap.Int("tags", stats.TagsetSize),
		zap.Int("vocabulary", stats.VocabularySize),
		zap.Int64("tokens", stats.TotalTokens))

	return stats, nil
}

// LoadSnapshot installs the model saved by a previous training run. A snapshot built
// with other model options than the configured ones is not installed.
func (ts *TaggerService) LoadSnapshot(ctx context.Context) (*ModelStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := ts.persistence.LoadModel()
	if err != nil {
		return nil, err
	}
	if saved := model.Options(); saved != ts.options {
		return nil, fmt.Errorf("%w: saved k=%v floor=%v, configured k=%v floor=%v", ErrStaleSnapshot,
			saved.SmoothingK, saved.TransitionFloor, ts.options.SmoothingK, ts.options.TransitionFloor)
	}
	return describe(model, ts.install(model)), nil
}

// EnsureModel installs the saved snapshot, training from the corpus when there is none
// or it cannot be used. A stale snapshot is discarded before retraining.
func (ts *TaggerService) EnsureModel(ctx context.Context) (*ModelStats, error) {
	if ts.SnapshotExists() {
		stats, err := ts.LoadSnapshot(ctx)
		if err == nil {
			return stats, nil
		}
		if errors.Is(err, ErrStaleSnapshot) {
			ts.logger.Warn("Model options changed since the snapshot was saved, will retrain", zap.Error(err))
			if err := ts.DiscardSnapshot(); err != nil {
				return nil, err
			}
		} else {
			ts.logger.Warn("Failed to load existing model, will retrain", zap.Error(err))
		}
	}
	return ts.Train(ctx)
}

// DiscardSnapshot removes the saved model; the installed model stays in use
func (ts *TaggerService) DiscardSnapshot() error {
	return ts.persistence.DeleteModel()
}

// SnapshotExists reports whether a saved model is available
func (ts *TaggerService) SnapshotExists() bool {
	return ts.persistence.ModelExists()
}

func (ts *TaggerService) install(model *HMMModel) *Decoder {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.model = model
	ts.decoder = NewDecoder(model, ts.scoreMode)
	return ts.decoder
}

func describe(model *HMMModel, decoder *Decoder) *ModelStats {
	stats := model.Stats()
	stats.ScoreMode = string(decoder.Mode())
	return &stats
}

// Model returns the installed model
func (ts *TaggerService) Model() (*HMMModel, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.model == nil {
		return nil, ErrModelNotTrained
	}
	return ts.model, nil
}

func (ts *TaggerService) currentDecoder() (*Decoder, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.decoder == nil {
		return nil, ErrModelNotTrained
	}
	return ts.decoder, nil
}

// Stats returns statistics of the installed model and the decoder scoring mode
func (ts *TaggerService) Stats() (*ModelStats, error) {
	ts.mu.RLock()
	model, decoder := ts.model, ts.decoder
	ts.mu.RUnlock()

	if model == nil || decoder == nil {
		return nil, ErrModelNotTrained
	}
	return describe(model, decoder), nil
}

// TagSentence tags one untagged sentence
func (ts *TaggerService) TagSentence(ctx context.Context, line string) (hmm.TaggedSentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decoder, err := ts.currentDecoder()
	if err != nil {
		return nil, err
	}

	tokens := DecodeTokens(PrepareTestSentence(ts.loader.Normalize(line)))
	return decoder.Decode(tokens)
}

// TagAll tags every line and writes one word_TAG line per sentence to w. Each line is
// fully decoded before anything is written for it.
func (ts *TaggerService) TagAll(ctx context.Context, lines []string, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0

	for _, line := range lines {
		tagged, err := ts.TagSentence(ctx, line)
		if err != nil {
			bw.Flush()
			return written, fmt.Errorf("failed to tag sentence %d: %w", written+1, err)
		}
		if _, err := fmt.Fprintln(bw, tagged.String()); err != nil {
			return written, err
		}
		written++
	}

	if err := bw.Flush(); err != nil {
		return written, err
	}

	ts.logger.Info("Tagged sentences", zap.Int("sentences", written))
	return written, nil
}

// EvaluationResult reports tagging accuracy against a gold corpus
type EvaluationResult struct {
	Sentences        int     `json:"sentences"`
	CorrectSentences int     `json:"correct_sentences"`
	Tokens           int     `json:"tokens"`
	CorrectTokens    int     `json:"correct_tokens"`
	TokenAccuracy    float64 `json:"token_accuracy"`
	SentenceAccuracy float64 `json:"sentence_accuracy"`
}

// Evaluate decodes the words of each gold sentence and compares the predicted tags.
// START and END sentinel pairs are excluded from scoring.
func (ts *TaggerService) Evaluate(ctx context.Context, gold []hmm.TaggedSentence) (*EvaluationResult, error) {
	decoder, err := ts.currentDecoder()
	if err != nil {
		return nil, err
	}

	result := &EvaluationResult{}
	for _, sentence := range gold {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		expected := sentence.Inner()
		predicted, err := decoder.Decode(expected.Words())
		if err != nil {
			return nil, err
		}

		allCorrect := true
		for i, tok := range expected {
			if predicted[i].Tag == tok.Tag {
				result.CorrectTokens++
			} else {
				allCorrect = false
			}
		}
		result.Tokens += len(expected)
		result.Sentences++
		if allCorrect {
			result.CorrectSentences++
		}
	}

	if result.Tokens > 0 {
		result.TokenAccuracy = float64(result.CorrectTokens) / float64(result.Tokens)
	}
	if result.Sentences > 0 {
		result.SentenceAccuracy = float64(result.CorrectSentences) / float64(result.Sentences)
	}

	ts.logger.Info("Evaluation complete",
		zap.Int("sentences", result.Sentences),
		zap.Int("tokens", result.Tokens),
		zap.Float64("token_accuracy", result.TokenAccuracy),
		zap.Float64("sentence_accuracy", result.SentenceAccuracy))

	return result, nil
}
