package scheduler

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers.
type Sequencer interface {
	Next() int64
}

// Clock is the default Sequencer: a lock-free logical counter stamping
// every job with the order it was created in.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock { return &Clock{} }

// Next returns the next sequence number.
func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current returns the last number handed out.
func (c *Clock) Current() int64 { return c.seq.Load() }
