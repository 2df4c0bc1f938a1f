package embed

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/doeshing/cmdsense/internal/ports"
)

// Pool bounds concurrent embedding calls. Embedding is CPU-bound on the
// model side, so unbounded fan-out under request load would only pile up
// latency; a weighted semaphore keeps at most maxConcurrent calls in
// flight.
type Pool struct {
	inner ports.Embedder
	sem   *semaphore.Weighted
}

// NewPool wraps an embedder with a concurrency bound. maxConcurrent
// values below 1 fall back to 1.
func NewPool(inner ports.Embedder, maxConcurrent int) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{
		inner: inner,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Embed acquires a slot and delegates. A cancelled context is returned
// as-is without touching the backend.
func (p *Pool) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	return p.inner.Embed(ctx, text)
}

// EmbedBatch holds a single slot for the whole batch; the batch itself
// runs sequentially in the backend.
func (p *Pool) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	return p.inner.EmbedBatch(ctx, texts)
}

func (p *Pool) Dimensions() int { return p.inner.Dimensions() }
func (p *Pool) Name() string    { return p.inner.Name() }

// Ping delegates to the wrapped embedder when it supports health checks.
func (p *Pool) Ping(ctx context.Context) error {
	if hc, ok := p.inner.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

var _ ports.Embedder = (*Pool)(nil)
