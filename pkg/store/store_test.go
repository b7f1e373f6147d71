package store

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func flagAt(pos uint) orgchart.Flag {
	return *new(uint256.Int).Lsh(uint256.NewInt(1), pos)
}

func sampleSnapshot() orgchart.Snapshot {
	owner := *uint256.NewInt(1)
	manager := *uint256.NewInt(2)
	ownerFlag := flagAt(0)
	managerFlag := flagAt(1)

	addr := ocrypto.Address{0x01, 0x02, 0x03}
	ruleHash := ocrypto.Keccak256([]byte("grant-rule"))

	return orgchart.Snapshot{
		RoleIDToFlag: map[orgchart.RoleID]orgchart.Flag{
			owner:   ownerFlag,
			manager: managerFlag,
		},
		FlagToRoleID: map[orgchart.Flag]orgchart.RoleID{
			ownerFlag:   owner,
			managerFlag: manager,
		},
		StructureMask: map[orgchart.Flag]*uint256.Int{
			ownerFlag:   new(uint256.Int).Or(&ownerFlag, &managerFlag),
			managerFlag: new(uint256.Int).Set(&managerFlag),
		},
		DirectJuniorMask: map[orgchart.Flag]*uint256.Int{
			ownerFlag:   new(uint256.Int).Set(&managerFlag),
			managerFlag: new(uint256.Int),
		},
		AssignmentCount: map[orgchart.RoleID]int{
			owner:   1,
			manager: 0,
		},
		UserRoles: map[ocrypto.Address]*uint256.Int{
			addr: new(uint256.Int).Set(&ownerFlag),
		},
		RuleToActiveFlags: map[ocrypto.Hash]*uint256.Int{
			ruleHash: new(uint256.Int).Set(&managerFlag),
		},
		ActiveRoleFlags: new(uint256.Int).Or(&ownerFlag, &managerFlag),
		FreeRoleFlags:   new(uint256.Int).Not(new(uint256.Int).Or(&ownerFlag, &managerFlag)),
		RoleIndex:       []orgchart.Flag{managerFlag, ownerFlag},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	want := sampleSnapshot()
	require.NoError(t, Save(db, want))

	got, err := Load(db)
	require.NoError(t, err)

	require.True(t, reflect.DeepEqual(want.RoleIDToFlag, got.RoleIDToFlag))
	require.True(t, reflect.DeepEqual(want.FlagToRoleID, got.FlagToRoleID))
	require.True(t, want.ActiveRoleFlags.Eq(got.ActiveRoleFlags))
	require.True(t, want.FreeRoleFlags.Eq(got.FreeRoleFlags))
	require.Equal(t, want.RoleIndex, got.RoleIndex)
	require.Equal(t, want.AssignmentCount, got.AssignmentCount)

	for flag, mask := range want.StructureMask {
		require.True(t, mask.Eq(got.StructureMask[flag]))
	}
	for flag, mask := range want.DirectJuniorMask {
		require.True(t, mask.Eq(got.DirectJuniorMask[flag]))
	}
	for addr, roles := range want.UserRoles {
		require.True(t, roles.Eq(got.UserRoles[addr]))
	}
	for h, flags := range want.RuleToActiveFlags {
		require.True(t, flags.Eq(got.RuleToActiveFlags[h]))
	}
}

func TestLoadOnFreshDatabaseIsEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := Load(db)
	require.NoError(t, err)
	require.Empty(t, got.RoleIDToFlag)
	require.Empty(t, got.RoleIndex)
	require.True(t, got.ActiveRoleFlags.IsZero())
}

func TestSaveOverwritesPreviousContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Save(db, sampleSnapshot()))
	require.NoError(t, Save(db, orgchart.Snapshot{
		RoleIDToFlag:      map[orgchart.RoleID]orgchart.Flag{},
		FlagToRoleID:      map[orgchart.Flag]orgchart.RoleID{},
		StructureMask:     map[orgchart.Flag]*uint256.Int{},
		DirectJuniorMask:  map[orgchart.Flag]*uint256.Int{},
		AssignmentCount:   map[orgchart.RoleID]int{},
		UserRoles:         map[ocrypto.Address]*uint256.Int{},
		RuleToActiveFlags: map[ocrypto.Hash]*uint256.Int{},
		ActiveRoleFlags:   new(uint256.Int),
		FreeRoleFlags:     new(uint256.Int),
	}))

	got, err := Load(db)
	require.NoError(t, err)
	require.Empty(t, got.RoleIDToFlag)
}
