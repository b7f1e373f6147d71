package orgchart

import (
	"bytes"
	"fmt"

	"github.com/abc-research-at/corgi/pkg/bitmask"
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// Approval bundles everything a caller presents to authorize a single
// grant/revoke/admin request (spec §4.4).
type Approval struct {
	// Signatures must already be in the order the signer addresses will
	// recover to -- the verifier itself enforces strict ascending
	// order, it does not sort for the caller.
	Signatures []ocrypto.Signature
	// Atoms is the rule body the caller claims governs this request.
	Atoms []*uint256.Int
	// Assignment holds one index per signature into Atoms; an entry
	// equal to len(Atoms) marks that signature as the nominee's
	// self-sign.
	Assignment []int
	// SelfSignRequired must match the canonical rule's own flag; it is
	// part of what gets hashed, not derived from the atoms.
	SelfSignRequired bool
	// BaseBlockHash anchors the request to a recent block, preventing
	// replay across time (spec §4.4 step 1).
	BaseBlockHash ocrypto.Hash
}

// verifyResult is everything verifyCore recovers that GrantRole,
// RevokeRole, AddRole and RemoveRole all need to proceed to
// fulfillment.
type verifyResult struct {
	signers  []ocrypto.Address
	ruleHash ocrypto.Hash
}

// verifyCore runs spec §4.4 steps 1-7: base-block freshness, the size
// bound, signature recovery and ordering, self-sign detection, rule-hash
// lookup, and self-sign consistency. inner is the already-ABI-encoded,
// per-action struct hash (step 3's per-action field list folded in by
// the caller, since those fields differ per action). nominee is nil for
// admin actions. roleFlag is the target role's flag for user-management
// actions, or nil for admin actions (checked against the all-ones
// sentinel instead).
func (c *Chart) verifyCore(action Action, appr Approval, inner ocrypto.Hash, nominee *ocrypto.Address, roleFlag *uint256.Int) (verifyResult, error) {
	if !c.window.IsRecent(appr.BaseBlockHash) {
		return verifyResult{}, fmt.Errorf("%w: %s", ErrStaleBaseBlock, appr.BaseBlockHash)
	}
	if len(appr.Signatures) > c.maxNumSigners {
		return verifyResult{}, fmt.Errorf("%w: %d > %d", ErrTooManySigners, len(appr.Signatures), c.maxNumSigners)
	}

	wrapped := ocrypto.EIP712Hash(c.domainSeparator, inner)
	target := ocrypto.EthSignedMessageHash(wrapped)

	signers := make([]ocrypto.Address, 0, len(appr.Signatures))
	selfSigned := false
	for i, sig := range appr.Signatures {
		signer, err := ocrypto.RecoverSigner(sig, target)
		if err != nil {
			return verifyResult{}, fmt.Errorf("orgchart: recover signer %d: %w", i, err)
		}
		if i > 0 && bytes.Compare(signer.Bytes(), signers[i-1].Bytes()) <= 0 {
			return verifyResult{}, fmt.Errorf("%w: signer %d", ErrUnorderedSigners, i)
		}
		signers = append(signers, signer)
		if nominee != nil && signer == *nominee {
			selfSigned = true
		}
	}

	rule := Rule{Action: action, SelfSignRequired: appr.SelfSignRequired, Atoms: appr.Atoms}
	if rule.SelfSignRequired && rule.Action != ActionGrant {
		c.logger.Warnw("self-sign required on a non-grant rule, likely an authoring error",
			"action", rule.Action.String())
	}
	ruleHash := rule.Hash()

	if roleFlag != nil {
		bound, ok := c.ruleToActiveFlags[ruleHash]
		if !ok || !bitmask.Overlaps(bound, roleFlag) {
			return verifyResult{}, fmt.Errorf("%w: %s", ErrInvalidRule, ruleHash)
		}
	} else {
		bound, ok := c.ruleToActiveFlags[ruleHash]
		if !ok || !bitmask.IsAllOnes(bound) {
			return verifyResult{}, fmt.Errorf("%w: %s", ErrInvalidAdminRule, ruleHash)
		}
	}

	if selfSigned != appr.SelfSignRequired {
		if appr.SelfSignRequired {
			return verifyResult{}, ErrMissingSelfSign
		}
		return verifyResult{}, ErrUnexpectedSelfSign
	}

	return verifyResult{signers: signers, ruleHash: ruleHash}, nil
}
