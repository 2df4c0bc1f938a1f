// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The application core depends on these contracts only; concrete
// adapters live in the infrastructure layer. This keeps the suggestion
// pipeline independent of the embedding backend, the index storage
// format, and the HTTP framing.
package ports

import (
	"context"

	"github.com/doeshing/cmdsense/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.cmdsense/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Embedder is the opaque text-to-vector capability the engine consumes.
// The model itself is an external collaborator; the engine only sees
// fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// HealthChecker is optionally implemented by embedders that can verify
// backend availability without producing a vector.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ContextCollector derives a Context from the working directory and the
// caller-supplied shell state. It never fails; probe errors degrade to
// neutral fields.
type ContextCollector interface {
	Collect(ctx context.Context, req domain.ContextRequest) domain.Context
}

// SafetyService classifies a command string into a severity level.
// Classification is pure and total for any input string.
type SafetyService interface {
	Classify(command string) domain.SafetyResult
}

// FixService classifies an error message plus optional last command into
// ranked fix candidates. An empty result is not an error condition.
type FixService interface {
	Classify(errorMessage, lastCommand string) []domain.FixSuggestion
	QuickFix(errorMessage, lastCommand string) string
}

// HistoryRepository persists captured shell commands between runs and
// feeds index construction.
type HistoryRepository interface {
	Append(command, source string) error
	Commands(limit int) ([]string, error)
	Count() (int, error)
	Close() error
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
