package watcher

import (
	"sync"
	"time"
)

// Alert levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Alert is a user-visible, non-blocking notice such as a failed scan.
type Alert struct {
	Level   string
	Title   string
	Message string
	Time    time.Time
}

func (a Alert) key() string {
	return a.Level + ":" + a.Title + ":" + a.Message
}

// Deduper suppresses an alert identical to the one delivered immediately
// before it, so a scan failing the same way on every save notifies once.
type Deduper struct {
	mu   sync.Mutex
	last string
	next func(Alert)
}

// NewDeduper wraps next.
func NewDeduper(next func(Alert)) *Deduper {
	return &Deduper{next: next}
}

// Send delivers a unless it repeats the previous alert.
func (d *Deduper) Send(a Alert) {
	d.mu.Lock()
	k := a.key()
	if k == d.last {
		d.mu.Unlock()
		return
	}
	d.last = k
	d.mu.Unlock()

	if d.next != nil {
		d.next(a)
	}
}

// Reset forgets the previous alert, typically after a success.
func (d *Deduper) Reset() {
	d.mu.Lock()
	d.last = ""
	d.mu.Unlock()
}
