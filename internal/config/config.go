package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	App    AppConfig    `yaml:"app"`
	Corpus CorpusConfig `yaml:"corpus"`
	Model  ModelConfig  `yaml:"model"`
	Output OutputConfig `yaml:"output"`
}

type AppConfig struct {
	Port       int      `yaml:"port"`
	WorkDir    string   `yaml:"work_dir"`
	LogLevel   string   `yaml:"log_level"`
	LogOutputs []string `yaml:"log_outputs"`
}

type CorpusConfig struct {
	Dir              string `yaml:"dir"`
	NormalizeUnicode bool   `yaml:"normalize_unicode"`
}

type ModelConfig struct {
	SmoothingK      float64 `yaml:"smoothing_k"`
	TransitionFloor float64 `yaml:"transition_floor"`
	ScoreMode       string  `yaml:"score_mode"` // "plain" or "log"
}

type OutputConfig struct {
	TransitionFile string `yaml:"transition_file"`
	EmissionFile   string `yaml:"emission_file"`
	SnapshotFile   string `yaml:"snapshot_file"`
	TaggedFile     string `yaml:"tagged_file"`
}

// Environment variables that override the file configuration
const (
	EnvPort       = "HMM_PORT"
	EnvWorkDir    = "HMM_WORK_DIR"
	EnvCorpusDir  = "HMM_CORPUS_DIR"
	EnvSmoothingK = "HMM_SMOOTHING_K"
	EnvLogLevel   = "HMM_LOG_LEVEL"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML configuration file, fills defaults and applies environment overrides.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from an env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.WorkDir == "" {
		c.App.WorkDir = "./out"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if len(c.App.LogOutputs) == 0 {
		c.App.LogOutputs = []string{"stdout"}
	}
	if c.Corpus.Dir == "" {
		c.Corpus.Dir = "Labeled-Hindi-Corpus"
	}
	if c.Model.SmoothingK == 0 {
		c.Model.SmoothingK = 1
	}
	if c.Model.TransitionFloor == 0 {
		c.Model.TransitionFloor = 0.0001
	}
	if c.Model.ScoreMode == "" {
		c.Model.ScoreMode = "plain"
	}
	if c.Output.TransitionFile == "" {
		c.Output.TransitionFile = "Tag_Transition.txt"
	}
	if c.Output.EmissionFile == "" {
		c.Output.EmissionFile = "Word_Emission.txt"
	}
	if c.Output.SnapshotFile == "" {
		c.Output.SnapshotFile = "hmm_model.gob"
	}
	if c.Output.TaggedFile == "" {
		c.Output.TaggedFile = "Viterbi_Output.txt"
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.App.Port = port
	}
	if v := os.Getenv(EnvWorkDir); v != "" {
		c.App.WorkDir = v
	}
	if v := os.Getenv(EnvCorpusDir); v != "" {
		c.Corpus.Dir = v
	}
	if v := os.Getenv(EnvSmoothingK); v != "" {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSmoothingK, err)
		}
		c.Model.SmoothingK = k
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.App.LogLevel = v
	}
	return nil
}

// Validate checks the model constants and score mode
func (c *Config) Validate() error {
	if c.Model.SmoothingK <= 0 {
		return fmt.Errorf("smoothing_k must be positive, got %v", c.Model.SmoothingK)
	}
	if c.Model.TransitionFloor <= 0 || c.Model.TransitionFloor > 1 {
		return fmt.Errorf("transition_floor must be in (0, 1], got %v", c.Model.TransitionFloor)
	}
	switch c.Model.ScoreMode {
	case "plain", "log":
	default:
		return fmt.Errorf("unknown score_mode: %s", c.Model.ScoreMode)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.App.Port)
	}
	return nil
}

// OutputPath resolves an output file name against the working directory
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.App.WorkDir, name)
}
