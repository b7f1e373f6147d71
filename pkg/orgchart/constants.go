package orgchart

import "github.com/abc-research-at/corgi/pkg/ocrypto"

// Default tunables (spec §6). A deployment overrides these through
// pkg/config.EngineConfiguration (applied with WithLimits) rather than
// recompiling.
const (
	// DefaultLookBackLength is the number of blocks, counting back from
	// the block before the current one, that a base block hash may
	// come from and still be considered fresh.
	DefaultLookBackLength = 3
	// DefaultMaxNumSigners bounds the size of a single approval.
	DefaultMaxNumSigners = 100
	// DefaultMaxNumRules bounds how many rule hashes one role may bind.
	DefaultMaxNumRules = 10

	// roleIDReservedBits is the width, in bits, of the two high bytes
	// of a 256-bit word reserved for atom metadata (modifier flags +
	// quantity). A stored role id must fit below this.
	roleIDReservedBits = 16
	// MaxRoleIDBits is the widest a role id may be: 256 - 16.
	MaxRoleIDBits = 256 - roleIDReservedBits

	// AtomFlagStrict is the strict-match modifier bit, bit 248 (byte 31,
	// bit 0).
	AtomFlagStrict = uint8(1)
	// AtomFlagRelative is the relative-quantifier modifier bit, bit 249
	// (byte 31, bit 1).
	AtomFlagRelative = uint8(2)
)

// Action identifies which of the three rule kinds an approval targets.
type Action uint8

const (
	// ActionGrant authorizes UserManagement.GrantRole.
	ActionGrant Action = iota
	// ActionRevoke authorizes UserManagement.RevokeRole.
	ActionRevoke
	// ActionAdmin authorizes AddRole/RemoveRole.
	ActionAdmin
)

// String renders the action the way it is hashed into a rule (spec
// §4.3 step 4).
func (a Action) String() string {
	switch a {
	case ActionGrant:
		return "grant"
	case ActionRevoke:
		return "revoke"
	case ActionAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Request type-hashes, computed once and reused for every approval of
// that kind (spec §6).
var (
	ruleTypeHash      = ocrypto.Keccak256([]byte("Rule(bytes32 type,bool selfSigned,bytes32 ruleHash)"))
	userMgtReqHash    = ocrypto.Keccak256([]byte("UserManagementRequest(address nominee,bytes32 action,bytes32 role,bytes32 baseBlockHash)"))
	addRoleReqHash    = ocrypto.Keccak256([]byte("AddRoleRequest(bytes32 roleId,bytes32 roleFlag,bytes32 seniorFlags,bytes32 juniorFlags,bytes32 hashOfRuleHashes,bytes32 baseBlockHash)"))
	removeRoleReqHash = ocrypto.Keccak256([]byte("RemoveRoleRequest(bytes32 roleId,bytes32 baseBlockHash)"))
	eip712DomainHash  = ocrypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract,bytes32 salt)"))
)
