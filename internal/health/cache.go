package health

import (
	"context"
	"sync"
	"time"
)

// Loader computes a fresh snapshot. prev is the last snapshot the cache
// held, so a loader can keep last-good categories across parse failures.
type Loader func(ctx context.Context, prev *Snapshot) (*Snapshot, error)

// Entry is the single cache slot.
type Entry struct {
	Snapshot   *Snapshot
	ComputedAt time.Time
}

// Cache memoizes the latest snapshot in one slot. It never expires on a
// timer; callers invalidate it when they observe that the artifacts have
// changed.
type Cache struct {
	mu    sync.Mutex
	load  Loader
	entry *Entry

	// lastGood survives Invalidate so the next load can fall back to it.
	lastGood *Snapshot

	now func() time.Time
}

// NewCache returns an empty cache that fills itself with load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load, now: time.Now}
}

// Get returns the cached snapshot, computing and storing one if the slot
// is empty.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.entry != nil {
		snap := c.entry.Snapshot
		c.mu.Unlock()
		return snap, nil
	}
	prev := c.lastGood
	c.mu.Unlock()

	snap, err := c.load(ctx, prev)
	if err != nil {
		return nil, err
	}
	c.Store(snap)
	return snap, nil
}

// Store publishes a freshly computed snapshot. Concurrent recomputations
// resolve by completion order: the last Store wins.
func (c *Cache) Store(snap *Snapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &Entry{Snapshot: snap, ComputedAt: c.now()}
	c.lastGood = snap
}

// Invalidate clears the slot unconditionally.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Peek returns the current entry without computing, or nil when the slot
// is empty.
func (c *Cache) Peek() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil
	}
	e := *c.entry
	return &e
}

// LastGood returns the most recently stored snapshot, even after
// Invalidate.
func (c *Cache) LastGood() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastGood
}
