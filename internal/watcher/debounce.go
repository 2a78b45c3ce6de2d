package watcher

import (
	"sync"
	"time"
)

// DebounceState is the state of a Debouncer.
type DebounceState int

const (
	// Idle means no timer is armed.
	Idle DebounceState = iota
	// Pending means a timer is armed and will fire unless re-armed.
	Pending
)

func (s DebounceState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer collapses a burst of triggers into a single call of fn, made
// delay after the last trigger in the burst.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	state DebounceState
	timer *time.Timer
	gen   uint64
}

// NewDebouncer returns an idle debouncer.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger arms the timer, or re-arms it if already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.state = Pending
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn if no newer trigger has superseded this timer. A stopped
// timer whose callback already started is caught by the generation check.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.state != Pending {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// State returns the current state.
func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stop cancels any pending call and returns to Idle.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.state = Idle
}
