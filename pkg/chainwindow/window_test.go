package chainwindow

import (
	"testing"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/stretchr/testify/require"
)

func TestObservedHashIsRecent(t *testing.T) {
	w := New(3)
	h := ocrypto.Keccak256([]byte("block-1"))
	require.False(t, w.IsRecent(h))
	w.Observe(h)
	require.True(t, w.IsRecent(h))
}

func TestHashAgesOutPastLookBackLength(t *testing.T) {
	w := New(2)
	h1 := ocrypto.Keccak256([]byte("block-1"))
	h2 := ocrypto.Keccak256([]byte("block-2"))
	h3 := ocrypto.Keccak256([]byte("block-3"))

	w.Observe(h1)
	w.Observe(h2)
	require.True(t, w.IsRecent(h1))

	w.Observe(h3)
	require.False(t, w.IsRecent(h1), "h1 should have aged out of a 2-deep window")
	require.True(t, w.IsRecent(h2))
	require.True(t, w.IsRecent(h3))
}

func TestUnobservedHashIsNeverRecent(t *testing.T) {
	w := New(3)
	require.False(t, w.IsRecent(ocrypto.Keccak256([]byte("never-seen"))))
}
