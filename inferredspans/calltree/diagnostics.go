// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package calltree

import (
	"sync"

	"github.com/DataDog/inferred-spans-go/internal/atomic"
)

// Reason enumerates the recoverable anomalies the engine tolerates rather
// than surfacing as hard errors.
type Reason string

const (
	// ReasonPoolExhausted is recorded when a pool falls back to a direct
	// allocation because it had no node/root available to recycle.
	ReasonPoolExhausted Reason = "pool_exhausted"
	// ReasonOutOfOrderSample is recorded when a stack-trace sample arrives
	// with a timestamp at or before the tree's last-observed time and is
	// dropped.
	ReasonOutOfOrderSample Reason = "out_of_order_sample"
	// ReasonUnmatchedDeactivation is recorded when a deactivation event
	// names a span id that is not currently held active anywhere in the
	// tree, and is ignored.
	ReasonUnmatchedDeactivation Reason = "unmatched_deactivation"
	// ReasonEmptyChildIDTransfer names the case where GiveLastChildIDTo or
	// StealChildIDsFrom is invoked against a donor with nothing to give.
	// Both treat it as a silent no-op and never record it.
	ReasonEmptyChildIDTransfer Reason = "empty_child_id_transfer"
)

// Counts is a counter map keyed by Reason. Each counter is an atomic
// integer; the map itself is guarded by an RWMutex that is only held for
// the lookup (and, the first time a Reason is seen, for creating its
// counter), never while a counter is updated.
type Counts struct {
	mu     sync.RWMutex
	counts map[Reason]*atomic.Int64
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{counts: make(map[Reason]*atomic.Int64)}
}

// Incr increments the counter for reason by one and returns its new value.
func (c *Counts) Incr(reason Reason) int64 {
	return c.Add(reason, 1)
}

// Add adds delta to the counter for reason and returns its new value.
func (c *Counts) Add(reason Reason, delta int64) int64 {
	c.mu.RLock()
	v, ok := c.counts[reason]
	c.mu.RUnlock()
	if ok {
		return v.Add(delta)
	}
	c.mu.Lock()
	v, ok = c.counts[reason]
	if !ok {
		v = &atomic.Int64{}
		c.counts[reason] = v
	}
	c.mu.Unlock()
	return v.Add(delta)
}

// Get returns the current value of the counter for reason.
func (c *Counts) Get(reason Reason) int64 {
	c.mu.RLock()
	v, ok := c.counts[reason]
	c.mu.RUnlock()
	if !ok {
		return 0
	}
	return v.Load()
}

// Snapshot returns a point-in-time copy of every counter that Add or Incr
// has touched, including any whose value is zero.
func (c *Counts) Snapshot() map[Reason]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Reason]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v.Load()
	}
	return out
}
