package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/blackwell-systems/healthsync/internal/health"
	"github.com/blackwell-systems/healthsync/internal/scan"
	"github.com/blackwell-systems/healthsync/internal/watcher"
)

// EventType qualifies an engine event.
type EventType int

const (
	// EventSnapshotUpdated carries a freshly computed snapshot.
	EventSnapshotUpdated EventType = iota
	// EventDiagnosticsUpdated means one or both channels were rebuilt.
	EventDiagnosticsUpdated
	// EventScanStarted is published before the pipeline is launched.
	EventScanStarted
	// EventScanFinished carries the result of a successful scan.
	EventScanFinished
	// EventWarning carries a non-blocking user-visible alert.
	EventWarning
)

func (t EventType) String() string {
	switch t {
	case EventSnapshotUpdated:
		return "snapshot_updated"
	case EventDiagnosticsUpdated:
		return "diagnostics_updated"
	case EventScanStarted:
		return "scan_started"
	case EventScanFinished:
		return "scan_finished"
	case EventWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber of a Bus.
type Event struct {
	Type     EventType
	Time     time.Time
	Snapshot *health.Snapshot
	Scan     *scan.Result
	Kind     scan.Kind
	Alert    *watcher.Alert
}

// Bus fans events out to subscribers. Delivery is synchronous, on the
// publisher's goroutine, in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev to every current subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[id]
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
