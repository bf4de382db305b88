package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Model.SmoothingK != 1 {
		t.Fatalf("Expected default smoothing_k 1, got %v", cfg.Model.SmoothingK)
	}
	if cfg.Model.TransitionFloor != 0.0001 {
		t.Fatalf("Expected default transition_floor 0.0001, got %v", cfg.Model.TransitionFloor)
	}
	if cfg.Model.ScoreMode != "plain" {
		t.Fatalf("Expected default score_mode 'plain', got '%s'", cfg.Model.ScoreMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	content := `
app:
  port: 9090
  work_dir: /tmp/hmm
corpus:
  dir: corpus
model:
  smoothing_k: 0.5
  score_mode: log
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Port != 9090 {
		t.Fatalf("Expected port 9090, got %d", cfg.App.Port)
	}
	if cfg.Model.SmoothingK != 0.5 {
		t.Fatalf("Expected smoothing_k 0.5, got %v", cfg.Model.SmoothingK)
	}
	if cfg.Model.ScoreMode != "log" {
		t.Fatalf("Expected score_mode 'log', got '%s'", cfg.Model.ScoreMode)
	}
	if cfg.Model.TransitionFloor != 0.0001 {
		t.Fatalf("Expected default transition_floor, got %v", cfg.Model.TransitionFloor)
	}
	if cfg.Output.EmissionFile != "Word_Emission.txt" {
		t.Fatalf("Expected default emission file, got '%s'", cfg.Output.EmissionFile)
	}
	if got := cfg.OutputPath(cfg.Output.EmissionFile); got != filepath.Join("/tmp/hmm", "Word_Emission.txt") {
		t.Fatalf("Unexpected output path '%s'", got)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7070")
	t.Setenv(EnvSmoothingK, "2")
	t.Setenv(EnvCorpusDir, "/data/corpus")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Port != 7070 {
		t.Fatalf("Expected port 7070, got %d", cfg.App.Port)
	}
	if cfg.Model.SmoothingK != 2 {
		t.Fatalf("Expected smoothing_k 2, got %v", cfg.Model.SmoothingK)
	}
	if cfg.Corpus.Dir != "/data/corpus" {
		t.Fatalf("Expected corpus dir '/data/corpus', got '%s'", cfg.Corpus.Dir)
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv(EnvSmoothingK, "not-a-number")

	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("Expected error for invalid %s", EnvSmoothingK)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative k", func(c *Config) { c.Model.SmoothingK = -1 }},
		{"floor above one", func(c *Config) { c.Model.TransitionFloor = 1.5 }},
		{"negative floor", func(c *Config) { c.Model.TransitionFloor = -0.1 }},
		{"unknown score mode", func(c *Config) { c.Model.ScoreMode = "beam" }},
		{"bad port", func(c *Config) { c.App.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Expected validation error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Missing env file should not be an error: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HMM_TEST_DOTENV_VALUE=loaded\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HMM_TEST_DOTENV_VALUE") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("Failed to load env file: %v", err)
	}
	if got := os.Getenv("HMM_TEST_DOTENV_VALUE"); got != "loaded" {
		t.Fatalf("Expected 'loaded', got '%s'", got)
	}
}
