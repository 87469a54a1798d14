// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package inferredspans reconstructs inferred spans from periodic
// stack-trace samples taken by a sampling profiler and reconciles them
// against explicit span activations emitted by instrumented code.
//
// The package itself only specifies the ports the engine relies on: a
// Clock, a Tracer to emit spans into, and an ActivationSource that feeds the
// reconciliation pipeline. The actual call-tree aggregation and activation
// reconciliation algorithms live in the calltree subpackage; everything
// external (the sampler, the ring buffer transport, the downstream span
// emitter) is expected to satisfy these interfaces.
package inferredspans

// Clock abstracts the wall-clock source used to timestamp samples and
// activations. Implementations used in production should be monotonic;
// Set is provided purely for deterministic tests.
type Clock interface {
	// Now returns the current time in nanoseconds.
	Now() int64
	// Set overrides the clock's current time. Production clocks may treat
	// this as a no-op.
	Set(nanos int64)
}

// SpanContext is an opaque handle to an explicit span's identity, as
// returned by Tracer.StartSpan and accepted by Tracer.AddLink. The engine
// never inspects its contents; it only threads it through reconciliation.
type SpanContext interface{}

// SpanHandle represents a span that has been started through the Tracer
// port but not yet ended.
type SpanHandle interface {
	// Context returns the SpanContext that identifies this span.
	Context() SpanContext

	// SetTag attaches a single key/value attribute to the span, such as the
	// collapsed-frame stack trace recorded when pillar nodes fold into a
	// surviving ancestor.
	SetTag(key string, value interface{})
}

// Tracer is the thin port to the external tracing pipeline that the
// spanifier emits inferred spans into.
type Tracer interface {
	// StartSpan starts a new span with the given name, parent context and
	// start time (nanoseconds).
	StartSpan(name string, parent SpanContext, startNanos int64) SpanHandle

	// AddLink attaches a link from span to target. When isChild is true,
	// consumers should treat target as a logical child of span,
	// notwithstanding target's own recorded parent pointer.
	AddLink(span SpanHandle, target SpanContext, isChild bool)

	// End finishes span at the given time (nanoseconds).
	End(span SpanHandle, endNanos int64)
}

// ActivationKind distinguishes the two event kinds on the activation
// timeline.
type ActivationKind uint8

const (
	// Activate marks a span becoming the current span on a thread.
	Activate ActivationKind = iota
	// Deactivate marks a span ceasing to be the current span on a thread.
	Deactivate
)

func (k ActivationKind) String() string {
	if k == Activate {
		return "activate"
	}
	return "deactivate"
}

// ActivationEvent is a single entry on the activation timeline.
type ActivationEvent struct {
	Kind    ActivationKind
	SpanID  string
	TraceID string
	// Context is the activated span's own SpanContext, used to link it as
	// a logical child of whichever inferred span it gets anchored under.
	// Unused on Deactivate events, where only SpanID and Timestamp matter.
	Context   SpanContext
	Parent    SpanContext
	Timestamp int64
}

// ActivationSource yields activation events in timestamp order. DrainUpTo
// returns (and consumes) every event with Timestamp <= t that is currently
// available; the engine tolerates globally non-monotonic interleaving
// across producer threads as long as the source sorts within its own drain
// window before returning events.
type ActivationSource interface {
	DrainUpTo(t int64) []ActivationEvent
}
