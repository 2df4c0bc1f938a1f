package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults invalid: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Fatalf("host = %q, want loopback", cfg.Server.Host)
	}
	if cfg.Server.Port != 8765 {
		t.Fatalf("port = %d, want 8765", cfg.Server.Port)
	}
	if cfg.Embedding.Dimension != 384 {
		t.Fatalf("dimension = %d, want 384", cfg.Embedding.Dimension)
	}
	if cfg.Index.Path == "" || cfg.History.DatabasePath == "" {
		t.Fatalf("storage paths not hydrated: %+v", cfg)
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := Default().Ranking
	sum := w.Semantic + w.Git + w.DirectoryType + w.FileType + w.Recency
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("weights sum to %f, want 1.0", sum)
	}
}

func TestParseOverlaysUserValuesOnDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("port = %d, want 9000", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.Dimension != 384 {
		t.Fatalf("dimension = %d, want default 384", cfg.Embedding.Dimension)
	}
}

func TestParseRejectsWeightsNotSummingToOne(t *testing.T) {
	_, err := Parse([]byte("ranking:\n  semantic: 0.9\n"))
	if err == nil {
		t.Fatal("expected error for weights summing above 1.0")
	}
}

func TestParseRejectsNonPositiveDimension(t *testing.T) {
	_, err := Parse([]byte("embedding:\n  dimension: 0\n"))
	if err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestLoadSeedsMissingFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 8765 {
		t.Fatalf("port = %d, want default", cfg.Server.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not seeded: %v", err)
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("index:\n  max_suggestions: 7\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Index.MaxSuggestions != 7 {
		t.Fatalf("max_suggestions = %d, want 7", cfg.Index.MaxSuggestions)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ranking:\n  semantic: 0.9\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected invalid configuration to be rejected at load time")
	}
}
