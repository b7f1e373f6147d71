// Package orgchart implements the on-chain organizational-chart
// access-control engine: a bit-vector-labeled DAG of roles, a
// canonical rule representation, a signed-approval verification
// pipeline, and the grant/revoke/add/remove operations that mutate the
// chart (spec §3-§4). The whole of a chart's state belongs to one
// Chart aggregate, injected by reference into every operation -- there
// is no package-level mutable state.
package orgchart

import (
	"sync"

	"github.com/abc-research-at/corgi/pkg/bitmask"
	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// BlockWindow answers whether a base-block hash is recent enough to be
// used as the freshness anchor of an approval (spec §4.4 step 1). A
// deployment host supplies one; pkg/chainwindow.Window is the stock
// implementation.
type BlockWindow interface {
	IsRecent(hash ocrypto.Hash) bool
}

// Hooks lets a host observe every successful mutating operation without
// the core depending on any particular metrics, persistence, or
// notification library. A host implements it once and wires
// pkg/metrics, pkg/audit, pkg/notify, pkg/store behind it.
type Hooks interface {
	OnEvent(Event)
}

type noopHooks struct{}

func (noopHooks) OnEvent(Event) {}

// Chart is the single owning aggregate for a role DAG, its rule
// bindings, and its user assignments. All of §4's operations are
// methods on *Chart. Reads (HasRole, StrictlyHasRole) take the read
// lock; every mutating operation takes the write lock for its full
// validate-then-mutate body, so a failed operation is never partially
// observed (spec §5, P8).
type Chart struct {
	mu sync.RWMutex

	dynamic bool

	domainSeparator ocrypto.Hash
	window          BlockWindow
	logger          *zap.SugaredLogger
	hooks           Hooks

	lookBackLength int
	maxNumSigners  int
	maxNumRules    int

	roleIDToFlag map[RoleID]Flag
	flagToRoleID map[Flag]RoleID

	structureMask    map[Flag]*uint256.Int
	directJuniorMask map[Flag]*uint256.Int
	assignmentCount  map[RoleID]int

	userRoles map[ocrypto.Address]*uint256.Int

	ruleToActiveFlags map[ocrypto.Hash]*uint256.Int

	activeRoleFlags *uint256.Int
	freeRoleFlags   *uint256.Int

	roleIndex []Flag // reverse-topological: juniors before seniors

	pendingSeed        []RoleDef        // consumed by newChart, nil afterwards
	pendingAssignments []RoleAssignment // consumed by newChart, nil afterwards
}

// RoleAssignment seeds one user's direct role holding at genesis,
// bypassing GrantRole's approval pipeline (there is no rule to satisfy
// before the chart has its first role-holder).
type RoleAssignment struct {
	User   ocrypto.Address
	RoleID RoleID
}

// Option configures a Chart at construction time.
type Option func(*Chart)

// WithDomainSeparator sets the EIP-712-style domain separator folded
// into every signed request (spec §6).
func WithDomainSeparator(sep ocrypto.Hash) Option {
	return func(c *Chart) { c.domainSeparator = sep }
}

// WithBlockWindow sets the base-block freshness oracle. Without this
// option a Chart uses an always-fresh window, appropriate only for
// tests and simulators that don't care about replay protection.
func WithBlockWindow(w BlockWindow) Option {
	return func(c *Chart) { c.window = w }
}

// WithLogger sets the structured logger used for warnings such as the
// self-sign/non-grant-rule inconsistency noted in spec §9.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Chart) { c.logger = l }
}

// WithHooks sets the observer notified of every successful mutating
// operation.
func WithHooks(h Hooks) Option {
	return func(c *Chart) { c.hooks = h }
}

// WithLimits overrides LOOK_BACK_LENGTH, MAX_NUM_SIGNERS and
// MAX_NUM_RULES (spec §6). Zero values are ignored (the default is
// kept). The look-back length is only recorded on the Chart: the
// freshness check asks the BlockWindow, whose depth is fixed when that
// window is built (e.g. chainwindow.New).
func WithLimits(lookBackLength, maxNumSigners, maxNumRules int) Option {
	return func(c *Chart) {
		if lookBackLength > 0 {
			c.lookBackLength = lookBackLength
		}
		if maxNumSigners > 0 {
			c.maxNumSigners = maxNumSigners
		}
		if maxNumRules > 0 {
			c.maxNumRules = maxNumRules
		}
	}
}

// WithInitialRoles seeds the chart with a static role DAG at
// construction, bypassing admin approval (there is no signer at
// genesis). defs are applied in order: every SeniorFlags/JuniorFlags
// bit a def references must already be active by the time that def is
// applied, exactly as AddRole requires.
func WithInitialRoles(defs []RoleDef) Option {
	return func(c *Chart) { c.pendingSeed = append(c.pendingSeed, defs...) }
}

// WithInitialAssignments seeds direct role holdings at genesis,
// bypassing GrantRole's approval pipeline. Every assignment must name
// a role also present in WithInitialRoles.
func WithInitialAssignments(assignments []RoleAssignment) Option {
	return func(c *Chart) { c.pendingAssignments = append(c.pendingAssignments, assignments...) }
}

// alwaysFreshWindow treats every base block hash as fresh. It is the
// default so a bare NewStaticChart/NewDynamicChart is immediately
// usable in tests; production hosts should always supply a real
// pkg/chainwindow.Window via WithBlockWindow.
type alwaysFreshWindow struct{}

func (alwaysFreshWindow) IsRecent(ocrypto.Hash) bool { return true }

func newChart(dynamic bool, opts []Option) *Chart {
	c := &Chart{
		dynamic:           dynamic,
		window:            alwaysFreshWindow{},
		logger:            zap.NewNop().Sugar(),
		hooks:             noopHooks{},
		lookBackLength:    DefaultLookBackLength,
		maxNumSigners:     DefaultMaxNumSigners,
		maxNumRules:       DefaultMaxNumRules,
		roleIDToFlag:      make(map[RoleID]Flag),
		flagToRoleID:      make(map[Flag]RoleID),
		structureMask:     make(map[Flag]*uint256.Int),
		directJuniorMask:  make(map[Flag]*uint256.Int),
		assignmentCount:   make(map[RoleID]int),
		userRoles:         make(map[ocrypto.Address]*uint256.Int),
		ruleToActiveFlags: make(map[ocrypto.Hash]*uint256.Int),
		activeRoleFlags:   bitmask.Zero(),
		freeRoleFlags:     bitmask.AllOnes(),
	}
	for _, opt := range opts {
		opt(c)
	}
	seed := c.pendingSeed
	c.pendingSeed = nil
	for _, def := range seed {
		if err := c.insertRole(def); err != nil {
			panic("orgchart: invalid initial role seed " + def.RoleID.Hex() + ": " + err.Error())
		}
	}

	assignments := c.pendingAssignments
	c.pendingAssignments = nil
	for _, a := range assignments {
		flag, ok := c.lookupFlagLocked(a.RoleID)
		if !ok {
			panic("orgchart: invalid initial assignment, unknown role " + a.RoleID.Hex())
		}
		held, ok := c.userRoles[a.User]
		if !ok {
			held = bitmask.Zero()
		}
		held.Or(held, flag)
		c.userRoles[a.User] = held
		c.assignmentCount[a.RoleID]++
	}
	return c
}

// NewStaticChart builds a chart whose role DAG never changes after
// construction: AddRole and RemoveRole always fail with
// ErrStaticChart.
func NewStaticChart(opts ...Option) *Chart {
	return newChart(false, opts)
}

// NewDynamicChart builds a chart whose role DAG may be mutated after
// construction via admin-gated AddRole/RemoveRole.
func NewDynamicChart(opts ...Option) *Chart {
	return newChart(true, opts)
}

// LookupFlag returns the flag of an active role, or nil if roleID is
// not currently registered.
func (c *Chart) LookupFlag(roleID RoleID) (*uint256.Int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupFlagLocked(roleID)
}

func (c *Chart) lookupFlagLocked(roleID RoleID) (*uint256.Int, bool) {
	f, ok := c.roleIDToFlag[roleID]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(&f), true
}

// LookupMask returns the structure mask bound to an active flag.
func (c *Chart) LookupMask(flag Flag) (*uint256.Int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.structureMask[flag]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(m), true
}

// LookupJuniorMask returns the direct-junior mask bound to an active
// flag.
func (c *Chart) LookupJuniorMask(flag Flag) (*uint256.Int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.directJuniorMask[flag]
	if !ok {
		return nil, false
	}
	return new(uint256.Int).Set(m), true
}

// ActiveRoleCount returns the number of currently-active roles.
func (c *Chart) ActiveRoleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roleIndex)
}

// IsDynamic reports whether this chart accepts AddRole/RemoveRole.
func (c *Chart) IsDynamic() bool { return c.dynamic }

// Snapshot is a deep, point-in-time copy of every authoritative map
// listed in spec §6's persisted state layout. pkg/store serializes one
// verbatim for host-side persistence; RestoreSnapshot loads one back.
type Snapshot struct {
	RoleIDToFlag map[RoleID]Flag
	FlagToRoleID map[Flag]RoleID

	StructureMask    map[Flag]*uint256.Int
	DirectJuniorMask map[Flag]*uint256.Int
	AssignmentCount  map[RoleID]int

	UserRoles map[ocrypto.Address]*uint256.Int

	RuleToActiveFlags map[ocrypto.Hash]*uint256.Int

	ActiveRoleFlags *uint256.Int
	FreeRoleFlags   *uint256.Int

	RoleIndex []Flag
}

// Snapshot returns a deep copy of the chart's current state.
func (c *Chart) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		RoleIDToFlag:      make(map[RoleID]Flag, len(c.roleIDToFlag)),
		FlagToRoleID:      make(map[Flag]RoleID, len(c.flagToRoleID)),
		StructureMask:     make(map[Flag]*uint256.Int, len(c.structureMask)),
		DirectJuniorMask:  make(map[Flag]*uint256.Int, len(c.directJuniorMask)),
		AssignmentCount:   make(map[RoleID]int, len(c.assignmentCount)),
		UserRoles:         make(map[ocrypto.Address]*uint256.Int, len(c.userRoles)),
		RuleToActiveFlags: make(map[ocrypto.Hash]*uint256.Int, len(c.ruleToActiveFlags)),
		ActiveRoleFlags:   new(uint256.Int).Set(c.activeRoleFlags),
		FreeRoleFlags:     new(uint256.Int).Set(c.freeRoleFlags),
		RoleIndex:         append([]Flag(nil), c.roleIndex...),
	}
	for k, v := range c.roleIDToFlag {
		s.RoleIDToFlag[k] = v
	}
	for k, v := range c.flagToRoleID {
		s.FlagToRoleID[k] = v
	}
	for k, v := range c.structureMask {
		s.StructureMask[k] = new(uint256.Int).Set(v)
	}
	for k, v := range c.directJuniorMask {
		s.DirectJuniorMask[k] = new(uint256.Int).Set(v)
	}
	for k, v := range c.assignmentCount {
		s.AssignmentCount[k] = v
	}
	for k, v := range c.userRoles {
		s.UserRoles[k] = new(uint256.Int).Set(v)
	}
	for k, v := range c.ruleToActiveFlags {
		s.RuleToActiveFlags[k] = new(uint256.Int).Set(v)
	}
	return s
}

// RestoreSnapshot replaces the chart's entire state with s. It is
// meant for a host to call once, immediately after NewStaticChart /
// NewDynamicChart and before serving any request.
func (c *Chart) RestoreSnapshot(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roleIDToFlag = make(map[RoleID]Flag, len(s.RoleIDToFlag))
	for k, v := range s.RoleIDToFlag {
		c.roleIDToFlag[k] = v
	}
	c.flagToRoleID = make(map[Flag]RoleID, len(s.FlagToRoleID))
	for k, v := range s.FlagToRoleID {
		c.flagToRoleID[k] = v
	}
	c.structureMask = make(map[Flag]*uint256.Int, len(s.StructureMask))
	for k, v := range s.StructureMask {
		c.structureMask[k] = new(uint256.Int).Set(v)
	}
	c.directJuniorMask = make(map[Flag]*uint256.Int, len(s.DirectJuniorMask))
	for k, v := range s.DirectJuniorMask {
		c.directJuniorMask[k] = new(uint256.Int).Set(v)
	}
	c.assignmentCount = make(map[RoleID]int, len(s.AssignmentCount))
	for k, v := range s.AssignmentCount {
		c.assignmentCount[k] = v
	}
	c.userRoles = make(map[ocrypto.Address]*uint256.Int, len(s.UserRoles))
	for k, v := range s.UserRoles {
		c.userRoles[k] = new(uint256.Int).Set(v)
	}
	c.ruleToActiveFlags = make(map[ocrypto.Hash]*uint256.Int, len(s.RuleToActiveFlags))
	for k, v := range s.RuleToActiveFlags {
		c.ruleToActiveFlags[k] = new(uint256.Int).Set(v)
	}
	c.activeRoleFlags = new(uint256.Int).Set(s.ActiveRoleFlags)
	c.freeRoleFlags = new(uint256.Int).Set(s.FreeRoleFlags)
	c.roleIndex = append([]Flag(nil), s.RoleIndex...)
}
