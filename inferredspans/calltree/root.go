// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package calltree

import (
	"fmt"

	"github.com/DataDog/inferred-spans-go/inferredspans"
	"github.com/DataDog/inferred-spans-go/internal/log"
)

// transition records a change of the current sampled leaf (topOfStack), so
// activation events processed out of order relative to samples can still be
// anchored to whichever node was live at their own timestamp.
type transition struct {
	At   int64
	Node *CallTree
}

// heldActivation is a real span activation the reconciler has seen Activate
// for but not yet Deactivate.
type heldActivation struct {
	SpanID        string
	TraceID       string
	Context       inferredspans.SpanContext
	ParentContext inferredspans.SpanContext
	ActivatedAt   int64
	Anchor        *CallTree
}

// Root owns one sampled call tree for one profiled thread/goroutine and
// drives its reconciliation against the thread's activation timeline.
type Root struct {
	*CallTree

	pool     *NodePool
	rootPool *RootPool
	counts   *Counts
	tracer   inferredspans.Tracer
	cfg      *inferredspans.Config

	lastSampleAt int64
	topOfStack   *CallTree
	timeline     []transition

	held []*heldActivation

	parentContext inferredspans.SpanContext
	ended         bool
}

// NewRoot obtains a Root from rootPool (or allocates one) and initializes
// it. parentContext is the explicit span, if any, that encloses the entire
// profiled window; it becomes the parent of every top-level inferred span.
func NewRoot(pool *NodePool, rootPool *RootPool, counts *Counts, tracer inferredspans.Tracer, cfg *inferredspans.Config, parentContext inferredspans.SpanContext) *Root {
	var r *Root
	if rootPool != nil {
		r = rootPool.Get()
	} else {
		r = &Root{}
	}
	if r.CallTree == nil {
		r.CallTree = &CallTree{}
	}
	r.pool = pool
	r.rootPool = rootPool
	r.counts = counts
	r.tracer = tracer
	r.cfg = cfg
	r.parentContext = parentContext
	r.topOfStack = r.CallTree
	return r
}

// reset clears r so it can be returned to a RootPool. It does not release
// its CallTree nodes back to the NodePool; callers that want that should
// call Release instead.
func (r *Root) reset() {
	if r.CallTree != nil {
		r.CallTree.reset()
	}
	r.pool = nil
	r.rootPool = nil
	r.counts = nil
	r.tracer = nil
	r.cfg = nil
	r.lastSampleAt = 0
	r.topOfStack = nil
	r.timeline = r.timeline[:0]
	r.held = r.held[:0]
	r.parentContext = nil
	r.ended = false
}

// Release returns every node in the tree to the node pool, then returns r
// itself to the root pool.
func (r *Root) Release() {
	if r.pool != nil {
		releaseSubtree(r.CallTree, r.pool)
	}
	if r.rootPool != nil {
		r.rootPool.Put(r)
	}
}

func releaseSubtree(n *CallTree, pool *NodePool) {
	for _, c := range n.Children {
		releaseSubtree(c, pool)
	}
	n.Children = nil
	pool.Put(n)
}

// AddStackTrace merges a single sample (frames ordered from the root of the
// call stack down to the leaf) into the tree at timestamp. Samples at or
// before the last accepted sample's timestamp are dropped as out of order.
func (r *Root) AddStackTrace(frames []Frame, timestamp int64) {
	if r.ended {
		return
	}
	if timestamp <= r.lastSampleAt && r.lastSampleAt != 0 {
		if r.counts != nil {
			r.counts.Incr(ReasonOutOfOrderSample)
		}
		log.Debug("calltree: dropping out-of-order sample at %d (last=%d)", timestamp, r.lastSampleAt)
		return
	}
	r.lastSampleAt = timestamp

	prevLeaf := r.topOfStack
	cur := r.CallTree
	for _, f := range frames {
		cur = cur.addOrUpdateChild(f, timestamp, r.pool)
	}
	closeAbandonedPath(cur, prevLeaf)
	if cur != r.topOfStack {
		r.topOfStack = cur
		r.timeline = append(r.timeline, transition{At: timestamp, Node: cur})
	}
}

// closeAbandonedPath handles the case addOrUpdateChild's own divergence
// check can't see: a sample whose path returns to a shallower frame without
// ever revisiting the deeper one. If prevLeaf lies strictly below cursor
// (the method it was in returned, rather than being in a sibling branch),
// the child of cursor on prevLeaf's path is closed so a later sample naming
// the same frame again starts a new sibling instead of reopening it.
func closeAbandonedPath(cursor, prevLeaf *CallTree) {
	if prevLeaf == nil || prevLeaf == cursor || !prevLeaf.isSuccessorOf(cursor) {
		return
	}
	child := prevLeaf
	for child.Parent != cursor {
		child = child.Parent
	}
	child.Ended = true
}

// nodeAtTime returns whichever node was the sampled leaf at ts, using the
// transition history rather than the current topOfStack so activation
// events can be reconciled even when they are processed out of order with
// respect to sample ingestion.
func (r *Root) nodeAtTime(ts int64) *CallTree {
	node := r.CallTree
	for _, t := range r.timeline {
		if t.At > ts {
			break
		}
		node = t.Node
	}
	return node
}

// Activate records that spanID became the active span at timestamp,
// anchoring it to whatever node was topmost in the sampled stack at that
// time. The anchor's inferred span (if it survives spanification) will
// carry a link to this span marked as a logical child.
func (r *Root) Activate(ev inferredspans.ActivationEvent) {
	if r.ended {
		return
	}
	anchor := r.nodeAtTime(ev.Timestamp)
	// Activation-after-method-ends: the node that was current at
	// ev.Timestamp has since been closed (a diverging sibling appeared), so
	// it will never receive another sample and the new span isn't nested
	// under it. Walk up to the nearest still-open ancestor; the two end up
	// as siblings there instead.
	for anchor.Parent != nil && anchor.Ended {
		anchor = anchor.Parent
	}
	anchor.recordChildID(ev.SpanID, ev.Context, ev.Timestamp)
	r.held = append(r.held, &heldActivation{
		SpanID:        ev.SpanID,
		TraceID:       ev.TraceID,
		Context:       ev.Context,
		ParentContext: ev.Parent,
		ActivatedAt:   ev.Timestamp,
		Anchor:        anchor,
	})
}

// Deactivate closes the held activation for spanID. An unmatched
// deactivation (no held activation with that id) is ignored, counted for
// diagnostics rather than treated as an error.
func (r *Root) Deactivate(spanID string, timestamp int64) {
	if r.ended {
		return
	}
	idx := -1
	for i := len(r.held) - 1; i >= 0; i-- {
		if r.held[i].SpanID == spanID {
			idx = i
			break
		}
	}
	if idx == -1 {
		if r.counts != nil {
			r.counts.Incr(ReasonUnmatchedDeactivation)
		}
		log.Debug("calltree: unmatched deactivation for span %s", spanID)
		return
	}
	act := r.held[idx]
	r.held = append(r.held[:idx], r.held[idx+1:]...)

	anchor := act.Anchor
	switch {
	case timestamp < anchor.LastSeen:
		// Deactivation before end: the anchor kept receiving samples after
		// this span stopped being current, so anything it recorded as a
		// child of this activation from here on belongs one level up.
		if anchor.Parent != nil {
			anchor.Parent.StealChildIDsFrom(anchor, timestamp, anchor.LastSeen)
		}
	case timestamp > anchor.LastSeen:
		// Deactivation after end: the span outlived its last observed
		// sample, so extend the anchor's recorded lifetime to match.
		anchor.LastSeen = timestamp
	}
}

// ProcessActivationEventsUpTo drains every activation event with a
// timestamp <= t from source and applies it. eof indicates the caller has
// no more samples to add for this window and is finalizing; it is
// currently only used to decide whether trailing held activations should
// be treated as still-open (eof == false) or force-closed at t (eof ==
// true).
func (r *Root) ProcessActivationEventsUpTo(source inferredspans.ActivationSource, t int64, eof bool) {
	for _, ev := range source.DrainUpTo(t) {
		switch ev.Kind {
		case inferredspans.Activate:
			r.Activate(ev)
		case inferredspans.Deactivate:
			r.Deactivate(ev.SpanID, ev.Timestamp)
		}
	}
	if eof {
		for _, act := range r.held {
			if t > act.Anchor.LastSeen {
				act.Anchor.LastSeen = t
			}
		}
		r.held = nil
	}
}

// End marks the tree closed at timestamp. No further samples or
// activations are accepted after End; Spanify panics if called before End.
func (r *Root) End(timestamp int64) {
	if timestamp > r.LastSeen {
		r.LastSeen = timestamp
	}
	r.ended = true
}

// Ended reports whether End has been called.
func (r *Root) Ended() bool {
	return r.ended
}

func (r *Root) String() string {
	if r.CallTree == nil {
		return "<empty root>"
	}
	return fmt.Sprintf("root(samples ended=%v, last=%d)\n%s", r.ended, r.lastSampleAt, r.CallTree.String())
}
