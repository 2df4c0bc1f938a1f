package domain

import (
	"fmt"
	"math"
)

// Config mirrors ~/.cmdsense/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Server              ServerSettings    `yaml:"server"`
	Embedding           EmbeddingSettings `yaml:"embedding"`
	Index               IndexSettings     `yaml:"index"`
	Ranking             RankingWeights    `yaml:"ranking"`
	Context             ContextSettings   `yaml:"context"`
	Safety              SafetySettings    `yaml:"safety"`
	Fixes               FixesSettings     `yaml:"fixes"`
	History             HistorySettings   `yaml:"history"`
}

// ServerSettings controls the loopback HTTP boundary.
type ServerSettings struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// EmbeddingSettings configures the external embed capability.
type EmbeddingSettings struct {
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	Dimension     int    `yaml:"dimension"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// IndexSettings configures retrieval.
type IndexSettings struct {
	Path           string `yaml:"path"`
	TopKCandidates int    `yaml:"top_k_candidates"`
	MaxSuggestions int    `yaml:"max_suggestions"`
}

// RankingWeights are the signal weights of the ranking formula.
// They must sum to 1.0; Validate rejects anything else.
type RankingWeights struct {
	Semantic        float64 `yaml:"semantic"`
	Git             float64 `yaml:"git"`
	DirectoryType   float64 `yaml:"directory_type"`
	FileType        float64 `yaml:"file_type"`
	Recency         float64 `yaml:"recency"`
	RecencyHalfLife float64 `yaml:"recency_half_life"`
}

// ContextSettings configures context collection.
type ContextSettings struct {
	MaxRecentCommands int `yaml:"max_recent_commands"`
	FileTypesLimit    int `yaml:"file_types_limit"`
	ProbeTimeoutMS    int `yaml:"probe_timeout_ms"`
}

// SafetySettings defines safety classification behavior.
type SafetySettings struct {
	Enabled   bool   `yaml:"enabled"`
	RulesFile string `yaml:"rules_file"`
}

// FixesSettings defines error-fix lookup behavior.
type FixesSettings struct {
	PatternsFile string `yaml:"patterns_file"`
}

// HistorySettings locates the command-history database.
type HistorySettings struct {
	DatabasePath string `yaml:"database_path"`
}

const weightSumTolerance = 1e-6

// Validate rejects configurations the engine must not serve with.
func (c Config) Validate() error {
	if err := c.Ranking.Validate(); err != nil {
		return err
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Index.TopKCandidates <= 0 {
		return fmt.Errorf("index.top_k_candidates must be positive, got %d", c.Index.TopKCandidates)
	}
	if c.Index.MaxSuggestions <= 0 {
		return fmt.Errorf("index.max_suggestions must be positive, got %d", c.Index.MaxSuggestions)
	}
	return nil
}

// Validate enforces that the weights form a convex combination.
func (w RankingWeights) Validate() error {
	sum := w.Semantic + w.Git + w.DirectoryType + w.FileType + w.Recency
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("ranking weights must sum to 1.0, got %.6f", sum)
	}
	for name, v := range map[string]float64{
		"semantic":       w.Semantic,
		"git":            w.Git,
		"directory_type": w.DirectoryType,
		"file_type":      w.FileType,
		"recency":        w.Recency,
	} {
		if v < 0 {
			return fmt.Errorf("ranking weight %s must not be negative, got %.4f", name, v)
		}
	}
	if w.RecencyHalfLife <= 0 {
		return fmt.Errorf("ranking.recency_half_life must be positive, got %.4f", w.RecencyHalfLife)
	}
	return nil
}
