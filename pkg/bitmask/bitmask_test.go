package bitmask

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBitAndPowerOfTwo(t *testing.T) {
	b := Bit(10)
	require.True(t, IsPowerOfTwo(b))
	require.False(t, IsPowerOfTwo(Zero()))
	require.False(t, IsPowerOfTwo(new(uint256.Int).Or(Bit(1), Bit(2))))
}

func TestOverlapsAndContains(t *testing.T) {
	a := new(uint256.Int).Or(Bit(1), Bit(2))
	b := Bit(2)
	require.True(t, Overlaps(a, b))
	require.True(t, Contains(a, b))
	require.False(t, Contains(b, a))
	require.False(t, Overlaps(Bit(5), Bit(6)))
}

func TestAllOnes(t *testing.T) {
	o := AllOnes()
	require.True(t, IsAllOnes(o))
	require.False(t, IsAllOnes(Bit(0)))
	require.Equal(t, Width, o.BitLen())
}

func TestEachSetBitAscending(t *testing.T) {
	mask := new(uint256.Int)
	for _, n := range []uint{0, 1, 63, 64, 65, 200, 255} {
		mask.Or(mask, Bit(n))
	}
	var got []uint
	EachSetBit(mask, func(pos uint) { got = append(got, pos) })
	require.Equal(t, []uint{0, 1, 63, 64, 65, 200, 255}, got)
	require.Equal(t, len(got), PopCount(mask))
}

func TestEachSetBitEmpty(t *testing.T) {
	var calls int
	EachSetBit(Zero(), func(uint) { calls++ })
	require.Zero(t, calls)
}
