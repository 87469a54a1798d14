// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package calltree

import (
	"github.com/DataDog/inferred-spans-go/inferredspans"
	"github.com/DataDog/inferred-spans-go/inferredspans/ext"
)

// ParentOverride lets callers redirect a node's chosen parent span
// immediately before it is started, e.g. to fold a would-be root span onto
// an externally supplied ancestor. DefaultParentOverride is a no-op.
type ParentOverride func(node *CallTree, ancestorCtx inferredspans.SpanContext) inferredspans.SpanContext

// DefaultParentOverride returns ancestorCtx unmodified.
func DefaultParentOverride(_ *CallTree, ancestorCtx inferredspans.SpanContext) inferredspans.SpanContext {
	return ancestorCtx
}

// SpanDescriptor summarizes a span emitted during Spanify, mainly useful
// for tests that want to assert on the shape of the emitted tree without
// depending on a concrete Tracer implementation.
type SpanDescriptor struct {
	Name       string
	Start      int64
	End        int64
	StackTrace []string
	Handle     inferredspans.SpanHandle
}

// Spanify walks the tree top-down (a node is fully started before its
// children are visited, so children always have a real parent SpanContext
// to hand down to) and starts/ends a span for every surviving node through
// r.tracer.
//
// A node survives unless it is a pillar (see survives) or its observed
// lifetime is shorter than cfg.InferredSpansMinDuration. Nodes that don't
// survive fold into their nearest surviving ancestor: their pending child
// ids move up to it and are linked from its span, and their frame name is
// recorded as a collapsed stack-trace entry on the surviving descendant
// below them (deepest dropped frame first). Spanify panics if the tree has
// not been ended; converting an
// in-progress tree into spans is a programming error, not a runtime
// condition to recover from.
func (r *Root) Spanify(override ParentOverride) []SpanDescriptor {
	if !r.ended {
		panic("calltree: Spanify called on a tree that has not been ended")
	}
	if override == nil {
		override = DefaultParentOverride
	}
	var out []SpanDescriptor
	sp := &spanifier{root: r, override: override, out: &out}
	for _, child := range r.CallTree.Children {
		sp.visit(child, nil, r.parentContext, nil)
	}
	return out
}

type spanifier struct {
	root     *Root
	override ParentOverride
	out      *[]SpanDescriptor
}

// survives decides whether n gets its own inferred span. A node is a
// pillar, and folds into its surviving ancestor instead, in two cases:
// it was observed on exactly one sample and has no children of its own
// (an ephemeral leaf that adds no information), or it has exactly one
// child that was observed on precisely as many samples as n itself (a
// pure pass-through frame that never appeared without that child, so it
// contributes no self time worth reporting separately). Everything else
// survives down to the minimum-duration floor.
func (sp *spanifier) survives(n *CallTree) bool {
	if n.Count == 1 && n.IsLeaf() {
		return false
	}
	if len(n.Children) == 1 && n.Children[0].Count == n.Count {
		return false
	}
	return n.Duration() >= int64(sp.root.cfg.InferredSpansMinDuration)
}

// visit spanifies n's subtree. parentNode is the nearest surviving
// ancestor already spanified (nil if none yet), parentCtx is that
// ancestor's resulting SpanContext (or the tree's external parent context
// if parentNode is nil), and collapsed accumulates the names of
// non-surviving nodes folded between parentNode and n, deepest dropped
// frame first (the frame closest to the surviving descendant that inherits
// the list comes first, matching the wire format other consumers expect).
func (sp *spanifier) visit(n *CallTree, parentNode *CallTree, parentCtx inferredspans.SpanContext, collapsed []string) {
	if !sp.survives(n) {
		if parentNode != nil && len(n.childIDs) > 0 {
			parentNode.childIDs = append(parentNode.childIDs, n.childIDs...)
		}
		folded := append([]string{n.Frame.Name()}, collapsed...)
		for _, c := range n.Children {
			sp.visit(c, parentNode, parentCtx, folded)
		}
		return
	}

	effectiveParent := sp.override(n, parentCtx)
	handle := sp.root.tracer.StartSpan(n.Frame.Name(), effectiveParent, n.FirstSeen)
	handle.SetTag(ext.InferredSpanKind, true)
	if len(collapsed) > 0 {
		handle.SetTag(ext.CodeStacktrace, collapsed)
	}

	*sp.out = append(*sp.out, SpanDescriptor{
		Name:       n.Frame.Name(),
		Start:      n.FirstSeen,
		End:        n.LastSeen,
		StackTrace: collapsed,
		Handle:     handle,
	})

	// Children are visited before links are emitted so that pending child
	// ids folded up from non-surviving descendants are linked from n too.
	for _, c := range n.Children {
		sp.visit(c, n, handle.Context(), nil)
	}
	for _, id := range n.childIDs {
		if id.Context != nil {
			sp.root.tracer.AddLink(handle, id.Context, true)
		}
	}
	sp.root.tracer.End(handle, n.LastSeen)
}
