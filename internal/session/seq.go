package session

import "sync/atomic"

// SeqClock is a monotonic logical clock stamping action-log entries.
//
// All log entries are ordered by seq, never by wall time, so a replay
// applies actions in exactly the order they were recorded.
type SeqClock struct {
	seq atomic.Int64
}

// NewSeqClockAt creates a clock whose next value is start+1.
// Used when resuming a document whose log already holds entries.
func NewSeqClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}
