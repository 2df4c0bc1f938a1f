package suggest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/infrastructure/index"
	"github.com/doeshing/cmdsense/internal/pkg/logger"
)

// stubEmbedder maps known texts to fixed vectors so retrieval is
// deterministic without a model backend.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return make([]float32, s.dim), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dim }
func (s *stubEmbedder) Name() string    { return "stub" }

type stubCollector struct{}

func (stubCollector) Collect(_ context.Context, req domain.ContextRequest) domain.Context {
	return domain.Context{
		CWD:            req.CWD,
		FileTypes:      map[string]int{},
		RecentCommands: req.RecentCommands,
		LastCommand:    req.LastCommand,
		LastExitCode:   req.LastExitCode,
	}
}

type stubFixer struct {
	fixes []domain.FixSuggestion
}

func (s stubFixer) Classify(string, string) []domain.FixSuggestion { return s.fixes }
func (s stubFixer) QuickFix(string, string) string {
	if len(s.fixes) == 0 {
		return ""
	}
	return s.fixes[0].Fixes[0]
}

func newTestService(t *testing.T, holder *index.Holder, emb *stubEmbedder) *Service {
	t.Helper()
	ranker, err := NewRanker(defaultWeights(), nil)
	require.NoError(t, err)
	return &Service{
		Embedder:       emb,
		Collector:      stubCollector{},
		Fixer:          stubFixer{},
		Ranker:         ranker,
		Holder:         holder,
		Logger:         logger.NewNop(),
		Dimension:      emb.dim,
		TopKCandidates: 10,
		MaxSuggestions: 5,
	}
}

func builtIndex(t *testing.T, dim int, commands map[string][]float32, order []string) *index.Index {
	t.Helper()
	records := make([]index.Record, 0, len(order))
	for _, cmd := range order {
		records = append(records, index.Record{Text: cmd, Vector: commands[cmd]})
	}
	idx, err := index.Build(dim, records)
	require.NoError(t, err)
	return idx
}

func TestSuggestRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(t, index.NewHolder(nil), &stubEmbedder{dim: 3})
	_, err := svc.Suggest(context.Background(), Request{})
	assert.True(t, errors.Is(err, domain.ErrMalformedRequest))
}

func TestSuggestRejectsNegativeMax(t *testing.T) {
	svc := newTestService(t, index.NewHolder(nil), &stubEmbedder{dim: 3})
	_, err := svc.Suggest(context.Background(), Request{Query: "list files", MaxSuggestions: -1})
	assert.True(t, errors.Is(err, domain.ErrMalformedRequest))
}

func TestSuggestEmptyIndexIsSoftSuccess(t *testing.T) {
	svc := newTestService(t, index.NewHolder(nil), &stubEmbedder{dim: 3})

	result, err := svc.Suggest(context.Background(), Request{Query: "list files"})
	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
	assert.NotNil(t, result.Suggestions)
	assert.Zero(t, result.TotalCandidates)
}

func TestSuggestRanksRetrievedCandidates(t *testing.T) {
	vectors := map[string][]float32{
		"ls -la":     {1, 0, 0},
		"git status": {0.9, 0.1, 0},
		"cargo test": {0, 0, 1},
	}
	emb := &stubEmbedder{dim: 3, vectors: map[string][]float32{
		"list files": {1, 0, 0},
	}}
	holder := index.NewHolder(builtIndex(t, 3, vectors, []string{"ls -la", "git status", "cargo test"}))
	svc := newTestService(t, holder, emb)

	result, err := svc.Suggest(context.Background(), Request{Query: "list files"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCandidates)
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "ls -la", result.Suggestions[0].Command)
	for i, s := range result.Suggestions {
		assert.Equal(t, i, s.Rank)
	}
}

func TestSuggestEmbedFailureIsTerminal(t *testing.T) {
	holder := index.NewHolder(builtIndex(t, 3,
		map[string][]float32{"ls": {1, 0, 0}}, []string{"ls"}))
	svc := newTestService(t, holder, &stubEmbedder{dim: 3, err: domain.ErrModelUnavailable})

	_, err := svc.Suggest(context.Background(), Request{Query: "list files"})
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
}

func TestRebuildCountsEveryGivenCommand(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc := newTestService(t, index.NewHolder(nil), emb)

	// Duplicates are indexed as given, not collapsed.
	commands := []string{"ls", "pwd", "ls", "git status"}
	stats, err := svc.Rebuild(context.Background(), commands, "api")
	require.NoError(t, err)
	assert.Equal(t, len(commands), stats.NumCommands)
	assert.Equal(t, 3, stats.Dimension)
	assert.True(t, stats.Loaded)
	assert.Equal(t, len(commands), svc.Holder.Current().Len())
}

func TestRebuildRejectsEmptyCommandList(t *testing.T) {
	svc := newTestService(t, index.NewHolder(nil), &stubEmbedder{dim: 3})
	_, err := svc.Rebuild(context.Background(), nil, "api")
	assert.True(t, errors.Is(err, domain.ErrMalformedRequest))
}

func TestRebuildPersistsArtifactPair(t *testing.T) {
	emb := &stubEmbedder{dim: 3}
	svc := newTestService(t, index.NewHolder(nil), emb)
	svc.IndexPath = filepath.Join(t.TempDir(), "commands.vec")

	_, err := svc.Rebuild(context.Background(), []string{"ls", "pwd"}, "api")
	require.NoError(t, err)

	_, err = os.Stat(svc.IndexPath)
	assert.NoError(t, err)
	_, err = os.Stat(index.SidecarPath(svc.IndexPath))
	assert.NoError(t, err)

	loaded, err := index.Load(svc.IndexPath)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
}

func TestRebuildSwapsWithoutDisturbingOldIndex(t *testing.T) {
	old := builtIndex(t, 3, map[string][]float32{"ls": {1, 0, 0}}, []string{"ls"})
	holder := index.NewHolder(old)
	svc := newTestService(t, holder, &stubEmbedder{dim: 3})

	_, err := svc.Rebuild(context.Background(), []string{"a", "b"}, "api")
	require.NoError(t, err)

	assert.Equal(t, 1, old.Len())
	assert.Equal(t, 2, holder.Current().Len())
}

func TestFixErrorNeverFails(t *testing.T) {
	svc := newTestService(t, index.NewHolder(nil), &stubEmbedder{dim: 3})

	fixes, quick := svc.FixError("some unknown error", "")
	assert.NotNil(t, fixes)
	assert.Empty(t, fixes)
	assert.Empty(t, quick)
}

func TestStatsSnapshot(t *testing.T) {
	holder := index.NewHolder(builtIndex(t, 3,
		map[string][]float32{"ls": {1, 0, 0}}, []string{"ls"}))
	svc := newTestService(t, holder, &stubEmbedder{dim: 3})
	svc.SafetyEnabled = true

	stats := svc.Stats()
	assert.True(t, stats.Retriever.Loaded)
	assert.Equal(t, 1, stats.Retriever.NumCommands)
	assert.Equal(t, 5, stats.Config.MaxSuggestions)
	assert.True(t, stats.Config.SafetyCheckEnabled)
}
