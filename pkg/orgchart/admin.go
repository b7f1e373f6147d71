package orgchart

import (
	"fmt"

	"github.com/abc-research-at/corgi/pkg/bitmask"
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// RoleDef describes a role to be inserted into the DAG, whether at
// chart construction or via a successful AddRole (spec §4.8).
type RoleDef struct {
	RoleID      RoleID
	Flag        Flag
	SeniorFlags *uint256.Int
	JuniorFlags *uint256.Int
	// RuleHashes are the grant/revoke rules this role will be governed
	// by; each gets the role's flag OR'd into its active-flags binding.
	// Admin rule hashes (bound to the all-ones sentinel) are seeded
	// separately via WithAdminRuleHashes, since they gate AddRole/
	// RemoveRole themselves rather than belonging to one role.
	RuleHashes []ocrypto.Hash
}

// WithAdminRuleHashes seeds one or more rule hashes as admin rules
// (spec §3's "all-ones sentinel"), authorizing AddRole/RemoveRole.
// There is no operation to add an admin rule after construction: a
// chart is born knowing which rules govern its own mutation.
func WithAdminRuleHashes(hashes []ocrypto.Hash) Option {
	return func(c *Chart) {
		for _, h := range hashes {
			c.ruleToActiveFlags[h] = bitmask.AllOnes()
		}
	}
}

// validateRoleDef performs spec §4.8 step 1's basic validation: flag
// is a power of two and still free, role_id is well-formed and not
// taken, any senior/junior bits name active roles, and the role's rule
// hashes fit under MAX_NUM_RULES. It is cheap and must run before any
// signature-recovery work, both for a dynamic AddRole and for a role
// seeded at chart construction.
func (c *Chart) validateRoleDef(def RoleDef) error {
	if !bitmask.IsPowerOfTwo(&def.Flag) {
		return fmt.Errorf("%w: %s", ErrMalformedRoleFlag, def.Flag.Hex())
	}
	if !bitmask.Overlaps(c.freeRoleFlags, &def.Flag) {
		return fmt.Errorf("%w: flag %s", ErrRoleFlagTaken, def.Flag.Hex())
	}
	if !ValidRoleID(&def.RoleID) {
		return fmt.Errorf("%w: %s", ErrMalformedRoleID, def.RoleID.Hex())
	}
	if _, exists := c.roleIDToFlag[def.RoleID]; exists {
		return fmt.Errorf("%w: %s", ErrRoleIDTaken, def.RoleID.Hex())
	}

	notFree := new(uint256.Int).Not(c.freeRoleFlags)
	if def.SeniorFlags != nil && !bitmask.Contains(notFree, def.SeniorFlags) {
		return fmt.Errorf("%w", ErrSeniorsMissing)
	}
	if def.JuniorFlags != nil && !bitmask.Contains(notFree, def.JuniorFlags) {
		return fmt.Errorf("%w", ErrJuniorsMissing)
	}
	if len(def.RuleHashes) >= c.maxNumRules {
		return fmt.Errorf("%w: %d rule hashes", ErrTooManyRules, len(def.RuleHashes))
	}
	return nil
}

// insertRole performs spec §4.8 steps 1 and 3-6: basic validation,
// cycle detection, ancestor-mask update, reverse-topological
// insertion, and registration. It is the admin-approval-free core
// shared by AddRole (called after the approval and self-sign checks
// pass, validateRoleDef having already run once up front) and chart
// construction (which has no approval to check).
func (c *Chart) insertRole(def RoleDef) error {
	if err := c.validateRoleDef(def); err != nil {
		return err
	}

	seniorFlags := def.SeniorFlags
	if seniorFlags == nil {
		seniorFlags = bitmask.Zero()
	}
	juniorFlags := def.JuniorFlags
	if juniorFlags == nil {
		juniorFlags = bitmask.Zero()
	}

	// Step 3: cycle detection.
	newStructureMask := new(uint256.Int).Set(&def.Flag)
	bitmask.EachSetBit(juniorFlags, func(pos uint) {
		jf := bitmask.Bit(pos)
		if m, ok := c.structureMask[*jf]; ok {
			newStructureMask.Or(newStructureMask, m)
		}
	})
	if bitmask.Overlaps(newStructureMask, seniorFlags) {
		return ErrCycleDetected
	}

	// Step 4: ancestor update.
	firstParent := -1
	for idx, rf := range c.roleIndex {
		rf := rf // local copy, addressable
		if bitmask.Overlaps(seniorFlags, &rf) {
			djm := c.directJuniorMask[rf]
			djm.Or(djm, &def.Flag)
			if firstParent == -1 {
				firstParent = idx
			}
		}
		if sm, ok := c.structureMask[rf]; ok && bitmask.Overlaps(sm, seniorFlags) {
			sm.Or(sm, newStructureMask)
		}
	}

	// Step 5: reverse-topological insertion. A role with no senior has
	// nothing above it requiring precedence, so it is appended at the
	// end (the most-senior position) rather than inserted mid-array.
	insertAt := len(c.roleIndex)
	if firstParent != -1 {
		insertAt = firstParent
	}
	c.roleIndex = append(c.roleIndex, Flag{})
	copy(c.roleIndex[insertAt+1:], c.roleIndex[insertAt:len(c.roleIndex)-1])
	c.roleIndex[insertAt] = def.Flag

	// Step 6: registration.
	c.roleIDToFlag[def.RoleID] = def.Flag
	c.flagToRoleID[def.Flag] = def.RoleID
	c.structureMask[def.Flag] = newStructureMask
	c.directJuniorMask[def.Flag] = new(uint256.Int).Set(juniorFlags)
	c.assignmentCount[def.RoleID] = 0

	for _, rh := range def.RuleHashes {
		bound, ok := c.ruleToActiveFlags[rh]
		if !ok {
			bound = bitmask.Zero()
			c.ruleToActiveFlags[rh] = bound
		}
		if bitmask.IsAllOnes(bound) {
			c.logger.Warnw("rule hash is bound as an admin rule and as a role rule",
				"rule_hash", rh.String(), "role_id", def.RoleID.Hex())
		}
		bound.Or(bound, &def.Flag)
	}

	c.freeRoleFlags.Xor(c.freeRoleFlags, &def.Flag)
	c.activeRoleFlags.Or(c.activeRoleFlags, &def.Flag)

	return nil
}

// addRoleInner computes the ABI-encoded struct hash for an AddRole
// request (spec §6 ADD_ROLE_REQ).
func addRoleInner(def RoleDef, baseBlockHash ocrypto.Hash) ocrypto.Hash {
	seniorFlags := def.SeniorFlags
	if seniorFlags == nil {
		seniorFlags = bitmask.Zero()
	}
	juniorFlags := def.JuniorFlags
	if juniorFlags == nil {
		juniorFlags = bitmask.Zero()
	}

	ruleWords := make([][32]byte, len(def.RuleHashes))
	for i, rh := range def.RuleHashes {
		ruleWords[i] = rh.Bytes32()
	}
	hashOfRuleHashes := ocrypto.Keccak256(ocrypto.EncodeWords(ruleWords...))

	return ocrypto.Keccak256(ocrypto.EncodeWords(
		addRoleReqHash.Bytes32(),
		def.RoleID.Bytes32(),
		def.Flag.Bytes32(),
		seniorFlags.Bytes32(),
		juniorFlags.Bytes32(),
		hashOfRuleHashes.Bytes32(),
		baseBlockHash.Bytes32(),
	))
}

// AddRole inserts a new role into a dynamic chart, gated by the
// registered admin rule (spec §4.8). It fails with ErrStaticChart on a
// static chart.
func (c *Chart) AddRole(appr Approval, def RoleDef) (Event, error) {
	if !c.dynamic {
		return Event{}, ErrStaticChart
	}
	if appr.SelfSignRequired {
		return Event{}, fmt.Errorf("%w", ErrSelfSignOnAdmin)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 1 (spec §4.8): basic validation runs before the expensive
	// per-signer ECDSA recovery in verifyCore, matching RemoveRole's
	// lookup-before-verify ordering.
	if err := c.validateRoleDef(def); err != nil {
		return Event{}, err
	}

	inner := addRoleInner(def, appr.BaseBlockHash)
	vr, err := c.verifyCore(ActionAdmin, appr, inner, nil, nil)
	if err != nil {
		return Event{}, err
	}
	if err := c.fulfillLocked(nil, vr.signers, appr.Atoms, appr.Assignment); err != nil {
		return Event{}, err
	}

	if err := c.insertRole(def); err != nil {
		return Event{}, err
	}

	ev := Event{
		Kind:        EventRoleAdded,
		RoleID:      def.RoleID,
		SeniorFlags: def.SeniorFlags,
		JuniorFlags: def.JuniorFlags,
	}
	c.hooks.OnEvent(ev)
	return ev, nil
}

// removeRoleInner computes the ABI-encoded struct hash for a
// RemoveRole request (spec §6 REMOVE_ROLE_REQ).
func removeRoleInner(roleID RoleID, baseBlockHash ocrypto.Hash) ocrypto.Hash {
	return ocrypto.Keccak256(ocrypto.EncodeWords(
		removeRoleReqHash.Bytes32(),
		roleID.Bytes32(),
		baseBlockHash.Bytes32(),
	))
}

// RemoveRole deletes an active role from a dynamic chart, gated by the
// registered admin rule (spec §4.9). The role's flag is never returned
// to the free pool (P6): it is deliberately lost, so a user who still
// carries that bit in their stale user_roles vector can never have it
// reassigned to a different role.
func (c *Chart) RemoveRole(appr Approval, roleID RoleID) (Event, error) {
	if !c.dynamic {
		return Event{}, ErrStaticChart
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	flag, ok := c.lookupFlagLocked(roleID)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownRole, roleID.Hex())
	}

	inner := removeRoleInner(roleID, appr.BaseBlockHash)
	vr, err := c.verifyCore(ActionAdmin, appr, inner, nil, nil)
	if err != nil {
		return Event{}, err
	}
	if err := c.fulfillLocked(nil, vr.signers, appr.Atoms, appr.Assignment); err != nil {
		return Event{}, err
	}

	targetFlag := *flag

	// Step 3: ancestor update. The direct-junior clear MUST happen
	// before the structure-mask rebuild below, or the rebuild would
	// recompute from a direct-junior set that still contains the
	// removed flag.
	position := -1
	for idx, rf := range c.roleIndex {
		if rf == targetFlag {
			position = idx
			continue
		}
		djm := c.directJuniorMask[rf]
		if bitmask.Overlaps(djm, flag) {
			cleared := new(uint256.Int).Not(flag)
			djm.And(djm, cleared)
		}
		if sm, ok := c.structureMask[rf]; ok && bitmask.Overlaps(sm, flag) {
			rfCopy := rf
			rebuilt := c.buildStructureMaskLocked(djm)
			rebuilt.Or(rebuilt, &rfCopy)
			c.structureMask[rf] = rebuilt
		}
	}

	// Step 4: removal from the reverse-topological index.
	if position >= 0 {
		c.roleIndex = append(c.roleIndex[:position], c.roleIndex[position+1:]...)
	}

	// Step 5: cleanup. The flag bit is intentionally NOT returned to
	// freeRoleFlags.
	delete(c.roleIDToFlag, roleID)
	delete(c.flagToRoleID, targetFlag)
	delete(c.structureMask, targetFlag)
	delete(c.directJuniorMask, targetFlag)
	delete(c.assignmentCount, roleID)
	c.activeRoleFlags.Xor(c.activeRoleFlags, flag)

	ev := Event{Kind: EventRoleRemoved, RoleID: roleID}
	c.hooks.OnEvent(ev)
	return ev, nil
}
