package orgchart

import (
	"fmt"

	"github.com/abc-research-at/corgi/pkg/bitmask"
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// userMgtInner computes the ABI-encoded struct hash for a grant or
// revoke request (spec §6 USER_MGT_REQ): (address nominee, bytes32
// action, bytes32 role, bytes32 baseBlockHash).
func userMgtInner(action Action, nominee ocrypto.Address, roleID RoleID, baseBlockHash ocrypto.Hash) ocrypto.Hash {
	actionDigest := ocrypto.Keccak256([]byte(action.String()))
	roleWord := roleID.Bytes32()
	return ocrypto.Keccak256(ocrypto.EncodeWords(
		userMgtReqHash.Bytes32(),
		ocrypto.Pad32(nominee.Bytes()),
		actionDigest.Bytes32(),
		roleWord,
		baseBlockHash.Bytes32(),
	))
}

// GrantRole authorizes nominee to hold roleID, gated by the rule bound
// to that role (spec §4.6). Granting a role the nominee already
// directly holds is a no-op but still emits RoleGranted (P7).
func (c *Chart) GrantRole(appr Approval, nominee ocrypto.Address, roleID RoleID) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flag, ok := c.lookupFlagLocked(roleID)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleID.Hex())
	}

	inner := userMgtInner(ActionGrant, nominee, roleID, appr.BaseBlockHash)
	vr, err := c.verifyCore(ActionGrant, appr, inner, &nominee, flag)
	if err != nil {
		return Event{}, err
	}
	if err := c.fulfillLocked(&nominee, vr.signers, appr.Atoms, appr.Assignment); err != nil {
		return Event{}, err
	}

	held, ok := c.userRoles[nominee]
	if !ok {
		held = bitmask.Zero()
	}
	if !bitmask.Overlaps(held, flag) {
		c.userRoles[nominee] = new(uint256.Int).Or(held, flag)
		c.assignmentCount[roleID]++
	}

	ev := Event{Kind: EventRoleGranted, User: nominee, RoleID: roleID}
	c.hooks.OnEvent(ev)
	return ev, nil
}

// RevokeRole withdraws roleID from nominee's direct assignment (spec
// §4.7). Revoking a role the nominee does not directly hold is a
// deliberate no-op: it neither strips inherited authority nor errors
// (spec §9 open question, preserved as-is).
func (c *Chart) RevokeRole(appr Approval, nominee ocrypto.Address, roleID RoleID) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flag, ok := c.lookupFlagLocked(roleID)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleID.Hex())
	}

	inner := userMgtInner(ActionRevoke, nominee, roleID, appr.BaseBlockHash)
	vr, err := c.verifyCore(ActionRevoke, appr, inner, &nominee, flag)
	if err != nil {
		return Event{}, err
	}
	if err := c.fulfillLocked(&nominee, vr.signers, appr.Atoms, appr.Assignment); err != nil {
		return Event{}, err
	}

	if held, ok := c.userRoles[nominee]; ok && bitmask.Overlaps(held, flag) {
		cleared := new(uint256.Int).Not(flag)
		c.userRoles[nominee] = new(uint256.Int).And(held, cleared)
		c.assignmentCount[roleID]--
	}

	ev := Event{Kind: EventRoleRevoked, User: nominee, RoleID: roleID}
	c.hooks.OnEvent(ev)
	return ev, nil
}
