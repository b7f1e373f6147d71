package orgchart

import (
	"fmt"

	"github.com/abc-research-at/corgi/pkg/bitmask"
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// buildStructureMaskLocked computes the OR of structure_mask(f) for
// every bit f set in flags (spec §4.2). Callers must hold at least the
// read lock. Used both by HasRole's inheritance closure and by
// RemoveRole when rebuilding an ancestor's structure mask from its
// remaining direct juniors.
func (c *Chart) buildStructureMaskLocked(flags *uint256.Int) *uint256.Int {
	effective := bitmask.Zero()
	bitmask.EachSetBit(flags, func(pos uint) {
		f := bitmask.Bit(pos)
		if m, ok := c.structureMask[*f]; ok {
			effective.Or(effective, m)
		}
	})
	return effective
}

// HasRole reports whether user holds roleID, directly or through
// inheritance (spec §4.2).
func (c *Chart) HasRole(user ocrypto.Address, roleID RoleID) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasRoleLocked(user, roleID)
}

func (c *Chart) hasRoleLocked(user ocrypto.Address, roleID RoleID) (bool, error) {
	required, ok := c.lookupFlagLocked(roleID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownRole, roleID.Hex())
	}

	held := c.heldFlagsLocked(user)
	if bitmask.Contains(held, required) {
		return true, nil
	}
	if held.IsZero() {
		return false, nil
	}

	effective := c.buildStructureMaskLocked(held)
	return bitmask.Contains(effective, required), nil
}

// StrictlyHasRole reports whether user directly holds roleID, ignoring
// inheritance (spec §4.2).
func (c *Chart) StrictlyHasRole(user ocrypto.Address, roleID RoleID) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strictlyHasRoleLocked(user, roleID)
}

func (c *Chart) strictlyHasRoleLocked(user ocrypto.Address, roleID RoleID) (bool, error) {
	required, ok := c.lookupFlagLocked(roleID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownRole, roleID.Hex())
	}
	held := c.heldFlagsLocked(user)
	return bitmask.Contains(held, required), nil
}

// heldFlagsLocked returns user's directly-assigned flags, restricted to
// currently-active roles (effective_roles in spec §3).
func (c *Chart) heldFlagsLocked(user ocrypto.Address) *uint256.Int {
	raw, ok := c.userRoles[user]
	if !ok {
		return bitmask.Zero()
	}
	return new(uint256.Int).And(raw, c.activeRoleFlags)
}
