package orgchart

import (
	"fmt"

	"github.com/holiman/uint256"
)

// RoleID is the 32-byte on-chain role identifier: the low 30 bytes
// carry the hash of the role's human name; the top 2 bytes are
// reserved for Atom metadata and must be zero for a role id at rest
// (spec §3, §4.3). It is a plain value type (not a pointer) so it can
// be used directly as a map key.
type RoleID = uint256.Int

// Flag is a 256-bit word with exactly one bit set, identifying an
// active role slot. Like RoleID it is a value type for map-key use.
type Flag = uint256.Int

// Atom encodes one quantified role requirement. Quantity is an
// absolute count (1-255) or, when Relative is set, a percentage
// (1-100).
type Atom struct {
	RoleID   RoleID
	Quantity uint8
	Strict   bool
	Relative bool
}

// ValidRoleID reports whether id fits in the low MaxRoleIDBits bits,
// i.e. its two high bytes are zero.
func ValidRoleID(id *RoleID) bool {
	return id.BitLen() <= MaxRoleIDBits
}

// EncodeAtom validates and packs an atom into its 256-bit word
// representation (spec §4.3).
func EncodeAtom(roleID RoleID, quantity uint8, strict, relative bool) (*uint256.Int, error) {
	if !ValidRoleID(&roleID) {
		return nil, fmt.Errorf("%w: role id has non-zero bytes 30-31", ErrMalformedRoleID)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrInvalidQuantity)
	}
	if relative && quantity > 100 {
		return nil, fmt.Errorf("%w: relative quantity must be <= 100", ErrInvalidQuantity)
	}
	word := new(uint256.Int).Set(&roleID)

	var modifiers uint8
	if strict {
		modifiers |= AtomFlagStrict
	}
	if relative {
		modifiers |= AtomFlagRelative
	}

	word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(uint64(quantity)), 240))
	word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(uint64(modifiers)), 248))
	return word, nil
}

// DecodeAtom unpacks a 256-bit atom word back into its fields.
func DecodeAtom(word *uint256.Int) Atom {
	roleMask := new(uint256.Int).Lsh(uint256.NewInt(1), MaxRoleIDBits)
	roleMask.Sub(roleMask, uint256.NewInt(1))

	roleID := new(uint256.Int).And(word, roleMask)

	quantityWord := new(uint256.Int).Rsh(word, 240)
	quantity := uint8(quantityWord.Uint64() & 0xff)

	modifiersWord := new(uint256.Int).Rsh(word, 248)
	modifiers := uint8(modifiersWord.Uint64() & 0xff)

	return Atom{
		RoleID:   *roleID,
		Quantity: quantity,
		Strict:   modifiers&AtomFlagStrict != 0,
		Relative: modifiers&AtomFlagRelative != 0,
	}
}

// AtomLess orders two encoded atoms by their numeric value, the
// canonical sort order used by RuleHash (spec §4.3 step 1).
func AtomLess(a, b *uint256.Int) bool {
	return a.Lt(b)
}

// requiredCount computes how many distinct signers must be assigned to
// atom a, given the current direct assignment_count of its role (spec
// §4.5 step 3). The relative case is clamped to [1, maxSigners].
func requiredCount(a Atom, directAssignmentCount int, maxSigners int) int {
	if !a.Relative {
		return int(a.Quantity)
	}
	required := (directAssignmentCount*int(a.Quantity) + 99) / 100 // ceil
	if required < 1 {
		required = 1
	}
	if required > maxSigners {
		required = maxSigners
	}
	return required
}
