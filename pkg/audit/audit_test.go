package audit

import (
	"testing"
	"time"

	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/stretchr/testify/require"
)

func TestOnEventRecordsEntry(t *testing.T) {
	l := New(10)
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleGranted})

	recent := l.Recent()
	require.Len(t, recent, 1)
	require.Equal(t, orgchart.EventRoleGranted, recent[0].Event.Kind)
	require.NotEqual(t, recent[0].ID.String(), "")
}

func TestOnEventAssignsDistinctIDs(t *testing.T) {
	l := New(10)
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleGranted})
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleRevoked})

	recent := l.Recent()
	require.Len(t, recent, 2)
	require.NotEqual(t, recent[0].ID, recent[1].ID)
}

func TestLogEvictsOldestPastCapacity(t *testing.T) {
	l := New(2)
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleGranted})
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleRevoked})
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleAdded})

	recent := l.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, orgchart.EventRoleRevoked, recent[0].Event.Kind)
	require.Equal(t, orgchart.EventRoleAdded, recent[1].Event.Kind)
}

func TestFindLocatesEntryByID(t *testing.T) {
	l := New(10)
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleAdded})

	recent := l.Recent()
	require.Len(t, recent, 1)

	found, ok := l.Find(recent[0].ID)
	require.True(t, ok)
	require.Equal(t, recent[0], found)
}

func TestFindMissingIDReturnsFalse(t *testing.T) {
	l := New(10)
	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleAdded})

	recent := l.Recent()
	other := recent[0]
	other.ID[0] ^= 0xFF
	_, ok := l.Find(other.ID)
	require.False(t, ok)
}

func TestEntryTimestampUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := New(5)
	l.now = func() time.Time { return fixed }

	l.OnEvent(orgchart.Event{Kind: orgchart.EventRoleGranted})
	recent := l.Recent()
	require.True(t, recent[0].At.Equal(fixed))
}
