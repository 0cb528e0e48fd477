package store

import (
	"sync"
	"time"
)

// IDs issues millisecond-epoch record ids. Two ids requested in the same
// millisecond are bumped apart so they stay unique within one process.
type IDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDs creates a generator reading the given clock.
func NewIDs(now func() time.Time) *IDs {
	return &IDs{now: now}
}

// Next returns an id strictly greater than every id issued before it.
func (g *IDs) Next() int64 {
	return g.NextAbove(0)
}

// NextAbove is Next, additionally kept greater than floor.
func (g *IDs) NextAbove(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id
	return id
}
