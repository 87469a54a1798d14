// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inferredspans

import "time"

// systemClock is the production Clock, backed by the runtime's monotonic
// clock. Set is a no-op: a real clock cannot be rewound.
type systemClock struct {
	base time.Time
}

func newMonotonicClock() Clock {
	return systemClock{base: time.Now()}
}

// Now returns the wall-clock time at construction advanced by the
// monotonic time elapsed since, so it never goes backwards.
func (c systemClock) Now() int64 {
	return c.base.UnixNano() + int64(time.Since(c.base))
}

func (systemClock) Set(int64) {}

// FixedClock is a manually-advanced Clock for deterministic tests, mirroring
// the timestamp-driven scenarios in the call-tree reconciliation suite.
type FixedClock struct {
	nanos int64
}

// NewFixedClock returns a FixedClock starting at startNanos.
func NewFixedClock(startNanos int64) *FixedClock {
	return &FixedClock{nanos: startNanos}
}

func (c *FixedClock) Now() int64 {
	return c.nanos
}

func (c *FixedClock) Set(nanos int64) {
	c.nanos = nanos
}

// Advance moves the clock forward by d and returns the new time.
func (c *FixedClock) Advance(d time.Duration) int64 {
	c.nanos += int64(d)
	return c.nanos
}
