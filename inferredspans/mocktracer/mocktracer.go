// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package mocktracer provides an in-memory inferredspans.Tracer for tests,
// recording every started/finished span and link so assertions can inspect
// the shape of the tree the engine produced.
package mocktracer

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/DataDog/inferred-spans-go/inferredspans"
)

// Tracer is a thread-safe, in-memory implementation of inferredspans.Tracer.
type Tracer struct {
	mu       sync.Mutex
	spans    []*Span
	finished []*Span
	links    []Link
}

// Start returns a new, empty Tracer.
func Start() *Tracer {
	return &Tracer{}
}

// Link records a tracer link created via AddLink.
type Link struct {
	From    *Span
	To      inferredspans.SpanContext
	IsChild bool
}

var _ inferredspans.Tracer = (*Tracer)(nil)

// StartSpan implements inferredspans.Tracer.
func (t *Tracer) StartSpan(name string, parent inferredspans.SpanContext, startNanos int64) inferredspans.SpanHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &Span{
		name:      name,
		spanID:    newID(),
		start:     startNanos,
		tags:      map[string]interface{}{},
		tracer:    t,
	}
	if p, ok := parent.(*SpanContext); ok && p != nil {
		s.parentID = p.spanID
		s.traceID = p.traceID
	} else {
		s.traceID = newID()
	}
	t.spans = append(t.spans, s)
	return s
}

// AddLink implements inferredspans.Tracer.
func (t *Tracer) AddLink(span inferredspans.SpanHandle, target inferredspans.SpanContext, isChild bool) {
	s, ok := span.(*Span)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.links = append(t.links, Link{From: s, To: target, IsChild: isChild})
	s.links = append(s.links, Link{From: s, To: target, IsChild: isChild})
}

// End implements inferredspans.Tracer.
func (t *Tracer) End(span inferredspans.SpanHandle, endNanos int64) {
	s, ok := span.(*Span)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s.end = endNanos
	s.finished = true
	t.finished = append(t.finished, s)
}

// OpenSpans returns every span started but not yet finished.
func (t *Tracer) OpenSpans() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Span
	for _, s := range t.spans {
		if !s.finished {
			out = append(out, s)
		}
	}
	return out
}

// FinishedSpans returns every span that has been ended, in the order End
// was called.
func (t *Tracer) FinishedSpans() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Span, len(t.finished))
	copy(out, t.finished)
	return out
}

// Links returns every link recorded via AddLink.
func (t *Tracer) Links() []Link {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Link, len(t.links))
	copy(out, t.links)
	return out
}

// Reset discards every recorded span and link.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
	t.finished = nil
	t.links = nil
}

// Span is a single span recorded by Tracer.
type Span struct {
	tracer   *Tracer
	name     string
	spanID   uint64
	traceID  uint64
	parentID uint64
	start    int64
	end      int64
	finished bool
	tags     map[string]interface{}
	links    []Link
}

var _ inferredspans.SpanHandle = (*Span)(nil)

// Context returns the SpanContext identifying this span.
func (s *Span) Context() inferredspans.SpanContext {
	return &SpanContext{spanID: s.spanID, traceID: s.traceID}
}

// SetTag implements inferredspans.SpanHandle.
func (s *Span) SetTag(key string, value interface{}) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tags[key] = value
}

// Tag returns the value set for key, and whether it was set at all.
func (s *Span) Tag(key string) (interface{}, bool) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	v, ok := s.tags[key]
	return v, ok
}

// Name returns the span's name.
func (s *Span) Name() string { return s.name }

// Start returns the span's start time in nanoseconds.
func (s *Span) Start() int64 { return s.start }

// End returns the span's end time in nanoseconds, or 0 if unfinished.
func (s *Span) End() int64 { return s.end }

// ParentID returns the span id of this span's parent, or 0 if it has none.
func (s *Span) ParentID() uint64 { return s.parentID }

// SpanID returns this span's own id.
func (s *Span) SpanID() uint64 { return s.spanID }

// Links returns the links recorded from this span.
func (s *Span) Links() []Link {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	out := make([]Link, len(s.links))
	copy(out, s.links)
	return out
}

func (s *Span) String() string {
	return fmt.Sprintf("%s[%d-%d]", s.name, s.start, s.end)
}

// SpanContext is the SpanContext implementation handed out by Span.Context.
type SpanContext struct {
	spanID  uint64
	traceID uint64
}

var _ inferredspans.SpanContext = (*SpanContext)(nil)

// SpanID returns the identified span's id.
func (c *SpanContext) SpanID() uint64 { return c.spanID }

// TraceID returns the identified span's trace id.
func (c *SpanContext) TraceID() uint64 { return c.traceID }

var idMu sync.Mutex

func newID() uint64 {
	idMu.Lock()
	defer idMu.Unlock()
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	id := binary.LittleEndian.Uint64(buf[:])
	if id == 0 {
		id = 1
	}
	return id
}
