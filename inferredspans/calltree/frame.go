// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package calltree aggregates periodic stack-trace samples into a prefix
// tree and reconciles that tree against explicit span activation/
// deactivation events, emitting inferred spans for the surviving nodes.
package calltree

import (
	"fmt"

	"github.com/DataDog/inferred-spans-go/inferredspans/ext"
)

// Frame identifies a single stack frame by class and method name. Frame is
// comparable so it can be used directly as a map key and for node identity
// when merging samples into the tree.
type Frame struct {
	Class  string
	Method string
}

// NewFrame returns a Frame for the given class/method pair.
func NewFrame(class, method string) Frame {
	return Frame{Class: class, Method: method}
}

// Name returns the "Class#Method" form used for span names and log
// messages.
func (f Frame) Name() string {
	if f.Class == "" {
		return f.Method
	}
	return fmt.Sprintf("%s"+ext.FrameSeparator+"%s", f.Class, f.Method)
}

func (f Frame) String() string {
	return f.Name()
}

// IsRoot reports whether f is the synthetic placeholder frame used for a
// tree's root node, which carries no stack frame of its own.
func (f Frame) IsRoot() bool {
	return f == Frame{}
}
