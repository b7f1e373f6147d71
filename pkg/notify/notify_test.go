package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSubscriberReceivesBroadcastEvent(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	roleID := *uint256.NewInt(7)
	hub.OnEvent(orgchart.Event{Kind: orgchart.EventRoleAdded, RoleID: roleID})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got wireEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "role_added", got.Kind)
	require.Equal(t, roleID.Hex(), got.RoleID)
}

func TestSubscriberCountDropsOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestOnEventWithNoSubscribersIsNoOp(t *testing.T) {
	hub := NewHub()
	require.NotPanics(t, func() {
		hub.OnEvent(orgchart.Event{Kind: orgchart.EventRoleGranted})
	})
}

func TestToWireOmitsUserForAdminEvents(t *testing.T) {
	w := toWire(orgchart.Event{Kind: orgchart.EventRoleAdded})
	require.Empty(t, w.User)
	require.Equal(t, "role_added", w.Kind)
}
