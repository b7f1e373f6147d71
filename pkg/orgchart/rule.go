package orgchart

import (
	"sort"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// Rule is the tuple (action, self_sign_required, sorted_atoms)
// identified by its canonical hash (spec §3, §4.3). It is never stored
// on-chain itself -- only RuleHash() is persisted, in the
// rule-hash-to-active-flags map.
type Rule struct {
	Action           Action
	SelfSignRequired bool
	Atoms            []*uint256.Int // encoded atom words, any order on input
}

// sortedAtoms returns a copy of r.Atoms sorted ascending by numeric
// value (spec §4.3 step 1), leaving r.Atoms untouched.
func (r Rule) sortedAtoms() []*uint256.Int {
	out := make([]*uint256.Int, len(r.Atoms))
	copy(out, r.Atoms)
	sort.Slice(out, func(i, j int) bool { return AtomLess(out[i], out[j]) })
	return out
}

// Hash computes the canonical rule hash (spec §4.3). Two rules that
// differ only in the input order of their atoms hash identically (P5).
func (r Rule) Hash() ocrypto.Hash {
	atoms := r.sortedAtoms()
	words := make([][32]byte, len(atoms))
	for i, a := range atoms {
		words[i] = a.Bytes32()
	}
	atomsDigest := ocrypto.Keccak256(ocrypto.EncodeWords(words...))
	actionDigest := ocrypto.Keccak256([]byte(r.Action.String()))

	return ocrypto.Keccak256(ocrypto.EncodeWords(
		ruleTypeHash.Bytes32(),
		actionDigest.Bytes32(),
		ocrypto.Bool32(r.SelfSignRequired),
		atomsDigest.Bytes32(),
	))
}
