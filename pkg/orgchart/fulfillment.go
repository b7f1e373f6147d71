package orgchart

import (
	"fmt"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// fulfillLocked checks that every atom's quota is met by the signers
// assigned to it (spec §4.5). nominee is nil for admin actions, where
// there is no self-sign to skip. Callers must hold at least the read
// lock (GrantRole/RevokeRole/AddRole/RemoveRole hold the write lock for
// their whole validate-then-mutate body, so this runs under that).
func (c *Chart) fulfillLocked(nominee *ocrypto.Address, signers []ocrypto.Address, atoms []*uint256.Int, assignment []int) error {
	if len(assignment) != len(signers) {
		return fmt.Errorf("%w: assignment has %d entries for %d signers", ErrInvalidAssignment, len(assignment), len(signers))
	}

	counts := make([]int, len(atoms))
	for i, signer := range signers {
		if nominee != nil && signer == *nominee {
			continue // accounted for by the self-sign check in verifyCore
		}

		idx := assignment[i]
		if idx < 0 || idx >= len(atoms) {
			return fmt.Errorf("%w: signer %d assigned index %d", ErrInvalidAssignment, i, idx)
		}

		atom := DecodeAtom(atoms[idx])

		var held bool
		var err error
		if atom.Strict {
			held, err = c.strictlyHasRoleLocked(signer, atom.RoleID)
		} else {
			held, err = c.hasRoleLocked(signer, atom.RoleID)
		}
		if err != nil {
			return err
		}
		if !held {
			return fmt.Errorf("%w: signer %d for atom %d (role %s)", ErrPermissionDenied, i, idx, atom.RoleID.Hex())
		}

		counts[idx]++
	}

	for idx, word := range atoms {
		atom := DecodeAtom(word)
		direct := c.assignmentCount[atom.RoleID]
		required := requiredCount(atom, direct, c.maxNumSigners)
		if counts[idx] < required {
			return fmt.Errorf("%w: atom %d needs %d signer(s), got %d", ErrNotEnoughSigners, idx, required, counts[idx])
		}
	}

	return nil
}
