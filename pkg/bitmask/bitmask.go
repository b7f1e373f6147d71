// Package bitmask provides the 256-bit flag/mask primitives the role
// registry is built on: a role flag is a single set bit in a 256-bit
// word, and a structure mask is an arbitrary OR of such bits. Every
// operation here is a thin, allocation-light wrapper around
// github.com/holiman/uint256, chosen because the registry never needs
// more than fixed-width bitwise arithmetic and comparisons.
package bitmask

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// Width is the number of bits in a mask, and therefore the maximum
// number of simultaneously-active roles.
const Width = 256

// Zero returns a fresh, empty mask.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// AllOnes returns the sentinel mask with every bit set, used to mark a
// rule hash as an admin rule rather than a per-role user-management
// rule.
func AllOnes() *uint256.Int {
	m := new(uint256.Int)
	for i := range m {
		m[i] = ^uint64(0)
	}
	return m
}

// Bit returns a mask with only bit n set. Panics if n >= Width, which
// would indicate a caller bug (role flags are always derived from a
// bounded loop or a validated existing flag).
func Bit(n uint) *uint256.Int {
	if n >= Width {
		panic("bitmask: bit position out of range")
	}
	return new(uint256.Int).Lsh(uint256.NewInt(1), n)
}

// IsPowerOfTwo reports whether x is non-zero and has exactly one bit
// set, i.e. it is a valid role flag.
func IsPowerOfTwo(x *uint256.Int) bool {
	if x == nil || x.IsZero() {
		return false
	}
	t := new(uint256.Int).Sub(x, uint256.NewInt(1))
	t.And(t, x)
	return t.IsZero()
}

// Overlaps reports whether a and b share any set bit.
func Overlaps(a, b *uint256.Int) bool {
	t := new(uint256.Int).And(a, b)
	return !t.IsZero()
}

// Contains reports whether every bit set in sub is also set in super.
func Contains(super, sub *uint256.Int) bool {
	t := new(uint256.Int).And(super, sub)
	return t.Eq(sub)
}

// IsAllOnes reports whether x equals the AllOnes sentinel.
func IsAllOnes(x *uint256.Int) bool {
	return x.Eq(AllOnes())
}

// EachSetBit calls fn once for every set bit of x, in ascending bit
// position order. It walks the four 64-bit limbs of the word and, for
// each non-zero limb, repeatedly extracts the lowest set bit with
// bits.TrailingZeros64 -- the Go-idiomatic equivalent of a
// binary-search-on-bit-position over a 4x64 word, giving
// O(popcount(x)) set-bit extractions rather than a 256-iteration scan.
func EachSetBit(x *uint256.Int, fn func(pos uint)) {
	for limb := 0; limb < len(x); limb++ {
		w := x[limb]
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(uint(limb)*64 + uint(tz))
			w &= w - 1
		}
	}
}

// PopCount returns the number of set bits in x.
func PopCount(x *uint256.Int) int {
	n := 0
	for _, w := range x {
		n += bits.OnesCount64(w)
	}
	return n
}
