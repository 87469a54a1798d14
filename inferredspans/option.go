// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package inferredspans

import "time"

// Config holds the engine's configuration, built up from the recognized
// options below.
type Config struct {
	// InferredSpansMinDuration is the minimum observed node lifetime for a
	// node to survive spanification. Nodes with a shorter lifetime are
	// dropped and their samples/pending activations are absorbed into the
	// nearest surviving ancestor.
	InferredSpansMinDuration time.Duration

	// StartScheduledProfiling records whether the external scheduler that
	// drives the sampling profiler is active. The core engine never reads
	// this value itself; it exists so that configuration constructed for
	// the core can be reused, unmodified, by the process-wide profiler
	// lifecycle that embeds it.
	StartScheduledProfiling bool

	// Clock is the time source used by the engine. Defaults to a monotonic
	// wall clock.
	Clock Clock
}

// Option configures a Config.
type Option func(*Config)

// WithMinDuration sets InferredSpansMinDuration.
func WithMinDuration(d time.Duration) Option {
	return func(c *Config) {
		c.InferredSpansMinDuration = d
	}
}

// WithClock sets the Clock used by the engine. Primarily useful in tests,
// where a FixedClock (see clock.go) gives deterministic timestamps.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithScheduledProfiling records whether the external scheduler is active.
func WithScheduledProfiling(enabled bool) Option {
	return func(c *Config) {
		c.StartScheduledProfiling = enabled
	}
}

// NewConfig builds a Config from the given options, applying defaults for
// anything left unset.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		InferredSpansMinDuration: 0,
		StartScheduledProfiling:  true,
		Clock:                    newMonotonicClock(),
	}
	for _, fn := range opts {
		fn(cfg)
	}
	return cfg
}
