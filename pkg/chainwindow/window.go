// Package chainwindow tracks the last few observed block hashes and
// answers whether a candidate base-block hash is still fresh enough to
// anchor an approval (spec §4.4 step 1, LOOK_BACK_LENGTH). It is the
// stock implementation of orgchart.BlockWindow.
package chainwindow

import (
	"sync"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/hashicorp/golang-lru"
)

// Window is a bounded recency set of block hashes, sized to
// LOOK_BACK_LENGTH. A hash is "recent" only while it remains in the
// window; once LookBackLength newer hashes have been observed, it ages
// out and any approval anchored to it is rejected as stale.
type Window struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// New builds a Window holding the last lookBackLength observed block
// hashes. Panics on a non-positive size, a construction-time invariant
// violation rather than a caller-input error.
func New(lookBackLength int) *Window {
	cache, err := lru.New(lookBackLength)
	if err != nil {
		panic("chainwindow: " + err.Error())
	}
	return &Window{cache: cache}
}

// Observe records a newly-seen block hash, evicting the oldest one if
// the window is already full.
func (w *Window) Observe(hash ocrypto.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache.Add(hash, struct{}{})
}

// IsRecent reports whether hash is still within the freshness window.
// It satisfies orgchart.BlockWindow.
func (w *Window) IsRecent(hash ocrypto.Hash) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cache.Contains(hash)
}
