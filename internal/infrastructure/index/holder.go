package index

import "sync/atomic"

// Holder publishes the served index to concurrent readers. Rebuilds
// construct a complete replacement off to the side and Swap it in with a
// single atomic store, so every reader observes either the full old
// index or the full new one.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder wraps an initial index, which may be nil when nothing has
// been built or loaded yet.
func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	if idx != nil {
		h.current.Store(idx)
	}
	return h
}

// Current returns the served index, or nil when none is available.
func (h *Holder) Current() *Index {
	return h.current.Load()
}

// Swap atomically replaces the served index.
func (h *Holder) Swap(idx *Index) {
	h.current.Store(idx)
}

// Stats snapshots the served index.
func (h *Holder) Stats() Stats {
	return h.Current().Stats()
}
