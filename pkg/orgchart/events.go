package orgchart

import (
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
)

// EventKind identifies which of the four events in spec §6 occurred.
type EventKind uint8

const (
	// EventRoleGranted corresponds to RoleGranted(user, role_id).
	EventRoleGranted EventKind = iota
	// EventRoleRevoked corresponds to RoleRevoked(user, role_id).
	EventRoleRevoked
	// EventRoleAdded corresponds to RoleAdded(role_id, senior_flags, junior_flags).
	EventRoleAdded
	// EventRoleRemoved corresponds to RoleRemoved(role_id).
	EventRoleRemoved
)

// Event is the record emitted by every successful mutating operation.
// Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	User   ocrypto.Address // RoleGranted, RoleRevoked
	RoleID RoleID          // all kinds

	SeniorFlags *uint256.Int // RoleAdded only
	JuniorFlags *uint256.Int // RoleAdded only
}
