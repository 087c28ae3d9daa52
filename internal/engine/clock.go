package engine

import "sync/atomic"

// Sequencer hands out the logical seq stamped on cached plans and runs.
// Implemented by Clock (production) and testutil.SeqClock (tests).
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock. Run records are ordered by its seq,
// never by wall-clock time, so a replayed batch logs the same order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, e.g. after the highest
// seq already in the plan cache.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
