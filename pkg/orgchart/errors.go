package orgchart

import "errors"

// Sentinel errors for every failure kind named in the spec. Callers
// compare with errors.Is; every error returned by this package wraps
// one of these with additional context via fmt.Errorf("%w", ...).
var (
	ErrUnknownRole      = errors.New("orgchart: unknown role")
	ErrInvalidRule       = errors.New("orgchart: rule hash not registered for role")
	ErrInvalidAdminRule  = errors.New("orgchart: rule hash is not the admin sentinel")
	ErrStaleBaseBlock    = errors.New("orgchart: base block is not recent")
	ErrTooManySigners    = errors.New("orgchart: too many signers")
	ErrUnorderedSigners  = errors.New("orgchart: signers are not strictly ascending")
	ErrMissingSelfSign   = errors.New("orgchart: self-sign required but absent")
	ErrUnexpectedSelfSign = errors.New("orgchart: self-sign present but not required")
	ErrInvalidAssignment = errors.New("orgchart: signer assignment index out of range")
	ErrPermissionDenied  = errors.New("orgchart: signer lacks the assigned role")
	ErrNotEnoughSigners  = errors.New("orgchart: rule quota not met")
	ErrCycleDetected     = errors.New("orgchart: role addition would introduce a cycle")
	ErrRoleIDTaken       = errors.New("orgchart: role id already registered")
	ErrRoleFlagTaken     = errors.New("orgchart: role flag already active or previously freed")
	ErrMalformedRoleFlag = errors.New("orgchart: role flag is not a single bit")
	ErrMalformedRoleID   = errors.New("orgchart: role id has non-zero reserved bytes")
	ErrSeniorsMissing    = errors.New("orgchart: senior role is not active")
	ErrJuniorsMissing    = errors.New("orgchart: junior role is not active")
	ErrTooManyRules      = errors.New("orgchart: too many rule hashes for one role")
	ErrStaticChart       = errors.New("orgchart: chart is static, dynamic admin operations are disabled")
	ErrSelfSignOnAdmin   = errors.New("orgchart: admin approvals cannot be self-signed")
	ErrInvalidQuantity   = errors.New("orgchart: atom quantity out of range")
)
