package testutil

import (
	"sync"
	"time"
)

// InstantClock replaces time.After in retry loops. Every wait fires
// immediately and the requested delay is recorded.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type InstantClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

// NewInstantClock creates a clock with no recorded waits.
func NewInstantClock() *InstantClock {
	return &InstantClock{}
}

// After records d and returns a channel that is already ready.
func (c *InstantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// Delays returns a copy of every delay requested so far.
func (c *InstantClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.delays))
	copy(out, c.delays)
	return out
}

// Reset forgets recorded delays.
func (c *InstantClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = nil
}

// FixedRunID generates the same run ID every time.
//
// This enables golden snapshot comparison of reports.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID string

// Generate returns the fixed ID, or "test-run-default" if empty.
func (id FixedRunID) Generate() string {
	if id == "" {
		return "test-run-default"
	}
	return string(id)
}
