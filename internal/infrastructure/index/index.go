// Package index implements the flat vector index the suggestion engine
// retrieves from: exact k-nearest-neighbor search over command
// embeddings by squared Euclidean distance.
package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/doeshing/cmdsense/internal/domain"
)

// RecordMeta carries the per-command metadata stored alongside each vector.
type RecordMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Record is one indexed command. Immutable once inserted.
type Record struct {
	Text   string     `json:"text"`
	Vector []float32  `json:"-"`
	Meta   RecordMeta `json:"meta"`
}

// Index holds command vectors and their metadata in insertion order.
// The vector sequence and the record sequence always have equal length.
// An Index is immutable after Build or Load and safe for concurrent reads.
type Index struct {
	dim     int
	vectors [][]float32
	records []Record
	built   time.Time
}

// Hit is one search result. Score is derived from Distance via the
// documented transform and lives in [0, 1].
type Hit struct {
	Record   Record
	Rank     int
	Distance float64
	Score    float64
}

// Build constructs an immutable index over records. Every vector must
// have exactly dim components or the build fails with
// domain.ErrDimensionMismatch.
func Build(dim int, records []Record) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	idx := &Index{
		dim:     dim,
		vectors: make([][]float32, 0, len(records)),
		records: make([]Record, 0, len(records)),
		built:   time.Now().UTC(),
	}
	for i, rec := range records {
		if len(rec.Vector) != dim {
			return nil, fmt.Errorf("record %d (%q): %w: got %d, want %d",
				i, rec.Text, domain.ErrDimensionMismatch, len(rec.Vector), dim)
		}
		vec := make([]float32, dim)
		copy(vec, rec.Vector)
		idx.vectors = append(idx.vectors, vec)
		stored := rec
		stored.Vector = vec
		idx.records = append(idx.records, stored)
	}
	return idx, nil
}

// Search returns up to k nearest neighbors of query, sorted by ascending
// squared Euclidean distance; ties keep insertion order (earlier wins).
//
// Score transform: score = 1 / (1 + distance). Monotonically decreasing
// in distance, maps distance zero to 1.0, and depends only on the stored
// vectors, so identical rebuilds produce identical scores.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search k must be positive, got %d: %w", k, domain.ErrMalformedRequest)
	}
	if len(idx.vectors) == 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query: %w: got %d, want %d",
			domain.ErrDimensionMismatch, len(query), idx.dim)
	}

	type scored struct {
		pos  int
		dist float64
	}
	all := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		var d float64
		for j := range vec {
			diff := float64(query[j]) - float64(vec[j])
			d += diff * diff
		}
		all[i] = scored{pos: i, dist: d}
	}
	// SliceStable keyed on distance alone preserves insertion order on ties.
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	if k > len(all) {
		k = len(all)
	}
	hits := make([]Hit, k)
	for rank := 0; rank < k; rank++ {
		s := all[rank]
		hits[rank] = Hit{
			Record:   idx.records[s.pos],
			Rank:     rank,
			Distance: s.dist,
			Score:    1.0 / (1.0 + s.dist),
		}
	}
	return hits, nil
}

// Len reports the number of indexed commands.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Dimension reports the fixed vector dimension of this index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Records returns the stored records in insertion order. The returned
// slice must not be mutated.
func (idx *Index) Records() []Record {
	return idx.records
}

// Stats is the retriever snapshot surfaced by /health and /stats.
type Stats struct {
	Loaded      bool                   `json:"loaded"`
	NumCommands int                    `json:"num_commands"`
	Dimension   int                    `json:"dimension"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Stats summarizes an index; a nil index reports loaded=false.
func (idx *Index) Stats() Stats {
	if idx == nil {
		return Stats{Loaded: false}
	}
	return Stats{
		Loaded:      true,
		NumCommands: len(idx.records),
		Dimension:   idx.dim,
		Metadata: map[string]interface{}{
			"num_commands": len(idx.records),
			"dimension":    idx.dim,
			"index_type":   "flat_l2",
			"built_at":     idx.built.Format(time.RFC3339),
		},
	}
}
