package service

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const snapshotVersion = "1.0"

// SerializableHMMModel is the gob representation of a trained model. Only counts are stored;
// the tables are rebuilt on load.
type SerializableHMMModel struct {
	Version         string
	ModelID         string
	CreatedAt       time.Time
	SmootherName    string
	SmoothingK      float64
	TransitionFloor float64

	TagCounts      map[string]int64
	BigramCounts   map[string]int64
	EmissionCounts map[string]map[string]int64
	Words          []string
	TotalTokens    int64
}

// HMMPersistence handles saving and loading model snapshots
type HMMPersistence struct {
	outputDir string
	fileName  string
	logger    *zap.Logger
}

// NewHMMPersistence creates a new persistence manager
func NewHMMPersistence(outputDir, fileName string, logger *zap.Logger) (*HMMPersistence, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &HMMPersistence{
		outputDir: outputDir,
		fileName:  fileName,
		logger:    logger,
	}, nil
}

// GetModelPath returns the snapshot file path
func (p *HMMPersistence) GetModelPath() string {
	return filepath.Join(p.outputDir, p.fileName)
}

// ModelExists checks if a snapshot exists
func (p *HMMPersistence) ModelExists() bool {
	_, err := os.Stat(p.GetModelPath())
	return err == nil
}

// SaveModel writes the model counts to disk
func (p *HMMPersistence) SaveModel(m *HMMModel) error {
	if m == nil {
		return ErrModelNotTrained
	}

	counts := m.Counts()
	snapshot := &SerializableHMMModel{
		Version:         snapshotVersion,
		ModelID:         m.ID(),
		CreatedAt:       m.CreatedAt(),
		SmootherName:    m.smoother.Name(),
		SmoothingK:      m.options.SmoothingK,
		TransitionFloor: m.options.TransitionFloor,
		TagCounts:       counts.TagCounts,
		BigramCounts:    counts.BigramCounts,
		EmissionCounts:  counts.EmissionCounts,
		Words:           counts.Words,
		TotalTokens:     counts.TotalTokens,
	}

	modelPath := p.GetModelPath()
	if err := p.saveToFile(snapshot, modelPath); err != nil {
		return fmt.Errorf("failed to save to file: %w", err)
	}

	p.logger.Info("Saved hmm model",
		zap.String("model_id", snapshot.ModelID),
		zap.String("path", modelPath),
		zap.Int("tags", len(snapshot.TagCounts)),
		zap.Int("vocabulary", len(snapshot.Words)),
		zap.Int64("tokens", snapshot.TotalTokens))

	return nil
}

// LoadModel reads a snapshot and rebuilds both tables
func (p *HMMPersistence) LoadModel() (*HMMModel, error) {
	modelPath := p.GetModelPath()

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no saved model at %s", ErrModelNotTrained, modelPath)
	}

	snapshot, err := p.loadFromFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load from file: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %s", snapshot.Version)
	}

	counts := &Counts{
		TagCounts:      snapshot.TagCounts,
		BigramCounts:   snapshot.BigramCounts,
		EmissionCounts: snapshot.EmissionCounts,
		Words:          snapshot.Words,
		TotalTokens:    snapshot.TotalTokens,
	}
	m, err := NewHMMModel(counts, ModelOptions{
		TransitionFloor: snapshot.TransitionFloor,
		SmoothingK:      snapshot.SmoothingK,
	})
	if err != nil {
		return nil, err
	}
	m.id = snapshot.ModelID
	m.createdAt = snapshot.CreatedAt

	p.logger.Info("Loaded hmm model",
		zap.String("model_id", m.ID()),
		zap.String("path", modelPath),
		zap.Int64("tokens", snapshot.TotalTokens))

	return m, nil
}

// DeleteModel removes the snapshot
func (p *HMMPersistence) DeleteModel() error {
	if err := os.Remove(p.GetModelPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	p.logger.Info("Deleted hmm model", zap.String("path", p.GetModelPath()))
	return nil
}

// saveToFile writes the snapshot through a temp file so a failed save keeps the previous one
func (p *HMMPersistence) saveToFile(snapshot *SerializableHMMModel, path string) error {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := file.Name()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(snapshot); err != nil {
		file.Close()
		os.Remove(tmpName)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

func (p *HMMPersistence) loadFromFile(path string) (*SerializableHMMModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot SerializableHMMModel
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
