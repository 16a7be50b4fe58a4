// Package snapshot holds the immutable (catalog, index) pair served to requests and
// replaces it atomically on reload.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/catalog"
	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Snapshot is a catalog and the vector index built over it. Both are read-only.
type Snapshot struct {
	Catalog  *catalog.Catalog
	Index    domain.VectorIndex
	LoadedAt time.Time
}

// Holder publishes the current snapshot. Readers see a whole pair, never a mix of
// an old catalog with a new index.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder, optionally seeded with an initial snapshot.
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Load returns the current snapshot, or false when none has been published.
func (h *Holder) Load() (*Snapshot, bool) {
	s := h.current.Load()
	return s, s != nil
}

// Swap publishes s and returns the previous snapshot, if any.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}
