// Package notify fans out orgchart.Event values to websocket
// subscribers, letting an external dashboard or indexer follow chart
// activity live instead of polling. It is a stock orgchart.Hooks
// implementation.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wireEvent is the JSON shape written to every subscriber.
type wireEvent struct {
	Kind        string `json:"kind"`
	User        string `json:"user,omitempty"`
	RoleID      string `json:"role_id,omitempty"`
	SeniorFlags string `json:"senior_flags,omitempty"`
	JuniorFlags string `json:"junior_flags,omitempty"`
}

func toWire(ev orgchart.Event) wireEvent {
	w := wireEvent{Kind: eventKindName(ev.Kind), RoleID: ev.RoleID.Hex()}
	if ev.Kind == orgchart.EventRoleGranted || ev.Kind == orgchart.EventRoleRevoked {
		w.User = ev.User.String()
	}
	if ev.SeniorFlags != nil {
		w.SeniorFlags = ev.SeniorFlags.Hex()
	}
	if ev.JuniorFlags != nil {
		w.JuniorFlags = ev.JuniorFlags.Hex()
	}
	return w
}

func eventKindName(k orgchart.EventKind) string {
	switch k {
	case orgchart.EventRoleGranted:
		return "role_granted"
	case orgchart.EventRoleRevoked:
		return "role_revoked"
	case orgchart.EventRoleAdded:
		return "role_added"
	case orgchart.EventRoleRemoved:
		return "role_removed"
	default:
		return "unknown"
	}
}

// Hub upgrades incoming HTTP connections to websockets and broadcasts
// every OnEvent call to all of them. A subscriber that falls behind or
// errors out is dropped rather than allowed to block the broadcast.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// subscriber until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.subscribers[conn] = struct{}{}
	h.mu.Unlock()

	go h.drainUntilClosed(conn)
}

// drainUntilClosed discards anything the subscriber sends and removes
// it once the connection breaks, the standard gorilla/websocket idiom
// for a write-only endpoint that still must read control frames.
func (h *Hub) drainUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	delete(h.subscribers, conn)
	h.mu.Unlock()
	conn.Close()
}

// OnEvent satisfies orgchart.Hooks, broadcasting ev as JSON to every
// live subscriber.
func (h *Hub) OnEvent(ev orgchart.Event) {
	payload, err := json.Marshal(toWire(ev))
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subscribers {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.subscribers, conn)
		}
	}
}

// SubscriberCount reports how many subscribers are currently attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
