package suggest

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Ranker re-scores raw similarity candidates with environmental signals.
//
// final_score = w_sem*semantic + w_git*git + w_dir*dir + w_file*file + w_rec*recency,
// clipped to [0,1]. Each signal is itself normalized to [0,1] before
// weighting, and the weights are validated to sum to 1.0 at construction.
type Ranker struct {
	weights domain.RankingWeights
	safety  ports.SafetyService
}

// NewRanker validates the weight configuration and builds a ranker.
// safety may be nil when safety checking is disabled; suggestions are
// then annotated safe with no reasons.
func NewRanker(weights domain.RankingWeights, safety ports.SafetyService) (*Ranker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{weights: weights, safety: safety}, nil
}

var gitLexicon = regexp.MustCompile(`(^|\s)git(\s|$)`)

// directoryLexicons maps a directory tag to command patterns that
// belong to that kind of project.
var directoryLexicons = map[string]*regexp.Regexp{
	"python":    regexp.MustCompile(`(?i)\b(python3?|pip3?|pytest|venv|conda|poetry)\b|\.py\b`),
	"node":      regexp.MustCompile(`(?i)\b(npm|node|yarn|pnpm|npx)\b|package\.json|\.[jt]s\b`),
	"rust":      regexp.MustCompile(`(?i)\b(cargo|rustc)\b|\.rs\b`),
	"go":        regexp.MustCompile(`(?i)\bgo\s+(build|test|run|mod|vet|get|install)\b|\.go\b|\bgofmt\b`),
	"java":      regexp.MustCompile(`(?i)\b(mvn|gradle|javac?)\b|\.(java|jar)\b`),
	"docker":    regexp.MustCompile(`(?i)\bdocker(-compose)?\b|dockerfile`),
	"terraform": regexp.MustCompile(`(?i)\bterraform\b|\.tf\b`),
}

// Rank scores, sorts, deduplicates and truncates candidates. max below 1
// is a malformed request, never silently clamped.
func (r *Ranker) Rank(candidates []domain.Candidate, ctx domain.Context, max int) ([]domain.Suggestion, error) {
	if max < 1 {
		return nil, fmt.Errorf("max_suggestions must be >= 1, got %d: %w", max, domain.ErrMalformedRequest)
	}
	if len(candidates) == 0 {
		return []domain.Suggestion{}, nil
	}

	suggestions := make([]domain.Suggestion, len(candidates))
	for i, cand := range candidates {
		git := r.gitSignal(cand.Command, ctx)
		dir := r.directorySignal(cand.Command, ctx)
		file := r.fileTypeSignal(cand.Command, ctx)
		rec := r.recencySignal(cand.Command, ctx)

		contextScore := clip01(git + dir + file + rec)
		final := clip01(r.weights.Semantic*cand.SemanticScore +
			r.weights.Git*git +
			r.weights.DirectoryType*dir +
			r.weights.FileType*file +
			r.weights.Recency*rec)

		suggestions[i] = domain.Suggestion{
			Command:       cand.Command,
			SemanticScore: cand.SemanticScore,
			ContextScore:  contextScore,
			FinalScore:    final,
			Safety:        r.classify(cand.Command),
		}
	}

	// Candidates arrive in semantic-rank order; a stable sort keyed on
	// final score alone keeps that order as the tie break.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].FinalScore > suggestions[j].FinalScore
	})

	seen := make(map[string]struct{}, len(suggestions))
	out := suggestions[:0]
	for _, s := range suggestions {
		if _, dup := seen[s.Command]; dup {
			continue
		}
		seen[s.Command] = struct{}{}
		s.Rank = len(out)
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out, nil
}

func (r *Ranker) classify(command string) domain.SafetyResult {
	if r.safety == nil {
		return domain.SafetyResult{Level: domain.SafetySafe, Reasons: []string{}}
	}
	return r.safety.Classify(command)
}

// gitSignal is 1 when the command belongs to the git lexicon and the
// working directory is a git repository.
func (r *Ranker) gitSignal(command string, ctx domain.Context) float64 {
	if ctx.Git.IsGitRepo && gitLexicon.MatchString(command) {
		return 1.0
	}
	return 0.0
}

func (r *Ranker) directorySignal(command string, ctx domain.Context) float64 {
	for _, tag := range ctx.DirectoryTags {
		if lex, ok := directoryLexicons[tag]; ok && lex.MatchString(command) {
			return 1.0
		}
	}
	return 0.0
}

// fileTypeSignal is 1 when the command references an extension present
// in the directory census.
func (r *Ranker) fileTypeSignal(command string, ctx domain.Context) float64 {
	lower := strings.ToLower(command)
	for ext := range ctx.FileTypes {
		if ext == "no_extension" {
			continue
		}
		if strings.Contains(lower, ext) || strings.Contains(lower, strings.TrimPrefix(ext, ".")) {
			return 1.0
		}
	}
	return 0.0
}

// recencySignal decays exponentially with distance from the most recent
// command: 0.5^(pos/halfLife), where pos 0 is the last entry of
// recent_commands. A command absent from recent history contributes 0.
func (r *Ranker) recencySignal(command string, ctx domain.Context) float64 {
	for i := len(ctx.RecentCommands) - 1; i >= 0; i-- {
		if ctx.RecentCommands[i] == command {
			pos := float64(len(ctx.RecentCommands) - 1 - i)
			return math.Pow(0.5, pos/r.weights.RecencyHalfLife)
		}
	}
	return 0.0
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
