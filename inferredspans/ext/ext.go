// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package ext holds attribute and tag name constants shared by the
// inferred-spans engine and anything consuming its emitted spans, mirroring
// the flat const-name convention of ddtrace/ext.
package ext

const (
	// CodeStacktrace is the tag key holding the collapsed-frame stack
	// trace recorded on a surviving span when one or more of its
	// intermediate ancestors folded into it.
	CodeStacktrace = "code.stacktrace"

	// InferredSpanKind is the tag key marking a span as reconstructed from
	// sampled stack traces rather than started explicitly by instrumented
	// code.
	InferredSpanKind = "inferred_span"
)

// FrameSeparator joins a Frame's class and method name in emitted span
// names ("ClassName#method").
const FrameSeparator = "#"
