// Package suggest orchestrates the suggestion pipeline:
// context collection, query embedding, retrieval, and ranking.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/infrastructure/index"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Service is the engine behind the API boundary. All fields are wired by
// the container; the service itself is stateless per request and safe
// for concurrent use. The served index lives behind the Holder and is
// only mutated by Rebuild's copy-and-swap.
type Service struct {
	Embedder  ports.Embedder
	Collector ports.ContextCollector
	Fixer     ports.FixService
	Ranker    *Ranker
	Holder    *index.Holder
	Logger    ports.Logger

	Dimension      int
	TopKCandidates int
	MaxSuggestions int
	SafetyEnabled  bool
	IndexPath      string

	rebuildMu sync.Mutex
}

// Request is one suggestion query plus the shell state around it.
type Request struct {
	Query          string
	CWD            string
	LastCommand    string
	LastExitCode   *int
	RecentCommands []string
	MaxSuggestions int
}

// Result is the engine's answer to a suggestion request.
type Result struct {
	Suggestions     []domain.Suggestion
	Context         domain.Context
	TotalCandidates int
}

// Suggest runs the pipeline for one request. An empty or missing index
// is a soft condition: success with zero candidates. An embedding
// failure is terminal for the request.
func (s *Service) Suggest(ctx context.Context, req Request) (Result, error) {
	if req.Query == "" {
		return Result{}, fmt.Errorf("query is required: %w", domain.ErrMalformedRequest)
	}
	max := req.MaxSuggestions
	if max == 0 {
		max = s.MaxSuggestions
	}
	if max < 1 {
		return Result{}, fmt.Errorf("max_suggestions must be >= 1, got %d: %w", max, domain.ErrMalformedRequest)
	}

	shellCtx := s.Collector.Collect(ctx, domain.ContextRequest{
		CWD:            req.CWD,
		LastCommand:    req.LastCommand,
		LastExitCode:   req.LastExitCode,
		RecentCommands: req.RecentCommands,
	})

	idx := s.Holder.Current()
	if idx == nil || idx.Len() == 0 {
		return Result{
			Suggestions:     []domain.Suggestion{},
			Context:         shellCtx,
			TotalCandidates: 0,
		}, nil
	}

	queryVec, err := s.Embedder.Embed(ctx, req.Query)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %w", err)
	}

	hits, err := idx.Search(queryVec, s.TopKCandidates)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", domain.ErrInternalSearch, err)
	}

	candidates := make([]domain.Candidate, len(hits))
	for i, hit := range hits {
		candidates[i] = domain.Candidate{
			Command:       hit.Record.Text,
			SemanticScore: hit.Score,
			SemanticRank:  hit.Rank,
		}
	}

	suggestions, err := s.Ranker.Rank(candidates, shellCtx, max)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Suggestions:     suggestions,
		Context:         shellCtx,
		TotalCandidates: len(hits),
	}, nil
}

// FixError classifies an error message into ranked fix candidates.
// It never fails; no match yields an empty list and an empty quick fix.
func (s *Service) FixError(errorMessage, lastCommand string) ([]domain.FixSuggestion, string) {
	fixesFound := s.Fixer.Classify(errorMessage, lastCommand)
	if fixesFound == nil {
		fixesFound = []domain.FixSuggestion{}
	}
	return fixesFound, s.Fixer.QuickFix(errorMessage, lastCommand)
}

// Rebuild embeds the given commands, builds a complete replacement
// index off to the side, persists it, and atomically publishes it.
// Concurrent rebuilds are serialized; reads are never blocked.
func (s *Service) Rebuild(ctx context.Context, commands []string, source string) (index.Stats, error) {
	if len(commands) == 0 {
		return index.Stats{}, fmt.Errorf("commands list is empty: %w", domain.ErrMalformedRequest)
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	vectors, err := s.Embedder.EmbedBatch(ctx, commands)
	if err != nil {
		return index.Stats{}, fmt.Errorf("embed commands: %w", err)
	}

	now := time.Now().UTC()
	records := make([]index.Record, len(commands))
	for i, cmd := range commands {
		records[i] = index.Record{
			Text:   cmd,
			Vector: vectors[i],
			Meta:   index.RecordMeta{Timestamp: now, Source: source},
		}
	}

	idx, err := index.Build(s.Dimension, records)
	if err != nil {
		return index.Stats{}, err
	}

	if s.IndexPath != "" {
		if err := idx.Persist(s.IndexPath); err != nil {
			return index.Stats{}, fmt.Errorf("persist index: %w", err)
		}
	}

	s.Holder.Swap(idx)
	s.Logger.Info("index rebuilt", map[string]interface{}{
		"num_commands": idx.Len(),
		"dimension":    idx.Dimension(),
		"source":       source,
	})
	return idx.Stats(), nil
}

// ConfigStats is the configuration snapshot surfaced by /health and /stats.
type ConfigStats struct {
	MaxSuggestions     int  `json:"max_suggestions"`
	SafetyCheckEnabled bool `json:"safety_check_enabled"`
}

// Stats snapshots retriever and configuration state.
type Stats struct {
	Retriever index.Stats `json:"retriever"`
	Config    ConfigStats `json:"config"`
}

// Stats reports the current engine snapshot.
func (s *Service) Stats() Stats {
	return Stats{
		Retriever: s.Holder.Stats(),
		Config: ConfigStats{
			MaxSuggestions:     s.MaxSuggestions,
			SafetyCheckEnabled: s.SafetyEnabled,
		},
	}
}

// Healthy reports nil when the embedding backend is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	if hc, ok := s.Embedder.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
