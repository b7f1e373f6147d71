// Package audit wraps every orgchart.Event in a uuid-tagged, timestamped
// transcript entry and keeps the most recent ones in memory for a
// standalone host to serve over its own API. It is a stock
// orgchart.Hooks implementation.
package audit

import (
	"sync"
	"time"

	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/google/uuid"
)

// Entry is one audited occurrence of a chart event.
type Entry struct {
	ID    uuid.UUID
	At    time.Time
	Event orgchart.Event
}

// Log keeps the last capacity entries, oldest first, discarding older
// ones once full. It implements orgchart.Hooks.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	now      func() time.Time
}

// New builds a Log retaining up to capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		panic("audit: capacity must be positive")
	}
	return &Log{capacity: capacity, now: time.Now}
}

// OnEvent appends ev as a new Entry, evicting the oldest entry if the
// log is already at capacity.
func (l *Log) OnEvent(ev orgchart.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{ID: uuid.New(), At: l.now(), Event: ev}
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Recent returns a copy of the entries currently retained, oldest first.
func (l *Log) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Find looks up a previously recorded entry by its audit ID.
func (l *Log) Find(id uuid.UUID) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
