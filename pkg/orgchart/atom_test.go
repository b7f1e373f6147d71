package orgchart

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestEncodeAtomRejectsZeroQuantity(t *testing.T) {
	_, err := EncodeAtom(*uint256.NewInt(1), 0, false, false)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestEncodeAtomRejectsRelativeOver100(t *testing.T) {
	_, err := EncodeAtom(*uint256.NewInt(1), 101, false, true)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestEncodeAtomRejectsOversizedRoleID(t *testing.T) {
	oversized := new(uint256.Int).Lsh(uint256.NewInt(1), MaxRoleIDBits)
	_, err := EncodeAtom(*oversized, 1, false, false)
	require.ErrorIs(t, err, ErrMalformedRoleID)
}

func TestAtomLessOrdersByNumericValue(t *testing.T) {
	small, err := EncodeAtom(*uint256.NewInt(1), 1, false, false)
	require.NoError(t, err)
	large, err := EncodeAtom(*uint256.NewInt(2), 1, false, false)
	require.NoError(t, err)
	require.True(t, AtomLess(small, large))
	require.False(t, AtomLess(large, small))
}

func TestRequiredCountAbsolute(t *testing.T) {
	atom := Atom{Quantity: 5, Relative: false}
	require.Equal(t, 5, requiredCount(atom, 100, DefaultMaxNumSigners))
}

func TestRequiredCountRelativeClampsToAtLeastOne(t *testing.T) {
	atom := Atom{Quantity: 1, Relative: true}
	require.Equal(t, 1, requiredCount(atom, 0, DefaultMaxNumSigners))
}

func TestRequiredCountRelativeClampsToMaxSigners(t *testing.T) {
	atom := Atom{Quantity: 100, Relative: true}
	require.Equal(t, 10, requiredCount(atom, 1000, 10))
}
