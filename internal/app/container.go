// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/doeshing/cmdsense/assets"
	"github.com/doeshing/cmdsense/internal/application/suggest"
	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/infrastructure/config"
	contextcollector "github.com/doeshing/cmdsense/internal/infrastructure/context"
	"github.com/doeshing/cmdsense/internal/infrastructure/embed"
	"github.com/doeshing/cmdsense/internal/infrastructure/fixes"
	"github.com/doeshing/cmdsense/internal/infrastructure/history"
	"github.com/doeshing/cmdsense/internal/infrastructure/httpapi"
	"github.com/doeshing/cmdsense/internal/infrastructure/index"
	"github.com/doeshing/cmdsense/internal/infrastructure/security"
	"github.com/doeshing/cmdsense/internal/pkg/logger"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Container holds the explicitly constructed service graph. It replaces
// any notion of process-wide singletons: every handler receives its
// dependencies from here.
type Container struct {
	Config        domain.Config
	Engine        *suggest.Service
	Server        *httpapi.Server
	SafetyChecker ports.SafetyService
	Fixer         ports.FixService
	HistoryStore  *history.SQLiteStore
	Logger        *logger.ZapLogger
}

// BuildContainer constructs the dependency graph. The persisted index is
// loaded when present; a missing index is a soft condition and the
// engine starts empty.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfg, err := config.NewFileLoader("").Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return buildWithConfig(cfg, verbose)
}

func buildWithConfig(cfg domain.Config, verbose bool) (*Container, error) {
	log := logger.New(verbose)

	checker, err := security.NewChecker(rulesBytes(cfg.Safety.RulesFile, assets.DefaultSafetyYAML, log))
	if err != nil {
		return nil, fmt.Errorf("safety rules: %w", err)
	}
	fixer, err := fixes.NewFixer(rulesBytes(cfg.Fixes.PatternsFile, assets.DefaultFixesYAML, log))
	if err != nil {
		return nil, fmt.Errorf("fix patterns: %w", err)
	}

	var rankSafety ports.SafetyService
	if cfg.Safety.Enabled {
		rankSafety = checker
	}
	ranker, err := suggest.NewRanker(cfg.Ranking, rankSafety)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}

	embedder := embed.NewPool(embed.NewOllamaEmbedder(cfg.Embedding), cfg.Embedding.MaxConcurrent)

	var holder *index.Holder
	idx, err := index.Load(cfg.Index.Path)
	switch {
	case err == nil:
		log.Info("index loaded", map[string]interface{}{
			"path":         cfg.Index.Path,
			"num_commands": idx.Len(),
		})
		holder = index.NewHolder(idx)
	case errors.Is(err, fs.ErrNotExist):
		log.Info("no persisted index, starting empty", map[string]interface{}{"path": cfg.Index.Path})
		holder = index.NewHolder(nil)
	default:
		return nil, fmt.Errorf("load index %s: %w", cfg.Index.Path, err)
	}

	historyStore, err := history.NewSQLiteStore(cfg.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	engine := &suggest.Service{
		Embedder:       embedder,
		Collector:      contextcollector.NewCollector(cfg.Context),
		Fixer:          fixer,
		Ranker:         ranker,
		Holder:         holder,
		Logger:         log,
		Dimension:      cfg.Embedding.Dimension,
		TopKCandidates: cfg.Index.TopKCandidates,
		MaxSuggestions: cfg.Index.MaxSuggestions,
		SafetyEnabled:  cfg.Safety.Enabled,
		IndexPath:      cfg.Index.Path,
	}

	return &Container{
		Config:        cfg,
		Engine:        engine,
		Server:        httpapi.NewServer(engine, log, cfg.Server),
		SafetyChecker: checker,
		Fixer:         fixer,
		HistoryStore:  historyStore,
		Logger:        log,
	}, nil
}

// rulesBytes reads an override file when configured, falling back to the
// embedded defaults on any problem.
func rulesBytes(path string, fallback []byte, log ports.Logger) []byte {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("rules file unreadable, using embedded defaults", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return fallback
	}
	return data
}

// Close releases container resources.
func (c *Container) Close() {
	if c.HistoryStore != nil {
		_ = c.HistoryStore.Close()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}
