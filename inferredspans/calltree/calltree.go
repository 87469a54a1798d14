// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package calltree

import (
	"fmt"
	"strings"

	"github.com/DataDog/inferred-spans-go/inferredspans"
)

// pendingChildID records an activation whose corresponding span has not yet
// been spanified but has been observed as logically nested under this node.
// It is consumed (and possibly moved to another node) during reconciliation.
type pendingChildID struct {
	SpanID  string
	Context inferredspans.SpanContext
	At      int64
}

// CallTree is a single node in the sampled call-stack prefix tree. A Root
// embeds one CallTree with the zero Frame as the tree's sentinel root node;
// every other CallTree is an interior or leaf node built up from
// stack-trace samples.
type CallTree struct {
	Frame     Frame
	Parent    *CallTree
	Children  []*CallTree
	Count     int
	FirstSeen int64
	LastSeen  int64
	// Ended marks a node that can no longer receive samples: once a sibling
	// path diverges from it, it is closed for good even if a later sample
	// happens to name the same frame again (see addOrUpdateChild).
	Ended bool

	childIDs []pendingChildID
	depth    int
}

func newChild(parent *CallTree, frame Frame, timestamp int64) *CallTree {
	return &CallTree{
		Frame:     frame,
		Parent:    parent,
		FirstSeen: timestamp,
		LastSeen:  timestamp,
		Count:     1,
		depth:     parent.depth + 1,
	}
}

// reset clears n so it can be returned to a NodePool.
func (n *CallTree) reset() {
	n.Frame = Frame{}
	n.Parent = nil
	n.Children = n.Children[:0]
	n.Count = 0
	n.FirstSeen = 0
	n.LastSeen = 0
	n.Ended = false
	n.childIDs = n.childIDs[:0]
	n.depth = 0
}

// Duration returns the node's observed lifetime: the span between its
// first and last appearance across samples.
func (n *CallTree) Duration() int64 {
	return n.LastSeen - n.FirstSeen
}

// IsLeaf reports whether n has no children.
func (n *CallTree) IsLeaf() bool {
	return len(n.Children) == 0
}

// lastChild returns n's most recently appended child, or nil.
func (n *CallTree) lastChild() *CallTree {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// addOrUpdateChild merges a sample into n's children. Only the last child is
// ever a merge candidate: a stack sample names a path in strict temporal
// order, so if the path doesn't continue through the last child, that
// child's path has ended for good, even if a later sample names the same
// frame again. Diverging closes every not-yet-ended child of n, so a
// reappearance of a previously-seen frame always starts a fresh sibling
// rather than reopening the old one.
func (n *CallTree) addOrUpdateChild(frame Frame, timestamp int64, pool *NodePool) *CallTree {
	if tail := n.lastChild(); tail != nil && !tail.Ended && tail.Frame == frame {
		tail.Count++
		if timestamp > tail.LastSeen {
			tail.LastSeen = timestamp
		}
		return tail
	}
	for _, c := range n.Children {
		c.Ended = true
	}
	var c *CallTree
	if pool != nil {
		c = pool.Get()
		c.Frame = frame
		c.Parent = n
		c.FirstSeen = timestamp
		c.LastSeen = timestamp
		c.Count = 1
		c.depth = n.depth + 1
	} else {
		c = newChild(n, frame, timestamp)
	}
	n.Children = append(n.Children, c)
	return c
}

// isSuccessorOf reports whether n is equal to or a descendant of ancestor.
func (n *CallTree) isSuccessorOf(ancestor *CallTree) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// GiveLastChildIDTo transfers the most recently recorded pending child id
// from n to target. Calling this on a node with no pending child ids is a
// deliberate no-op: activation skew means this is frequently invoked
// speculatively.
func (n *CallTree) GiveLastChildIDTo(target *CallTree) {
	if len(n.childIDs) == 0 {
		return
	}
	last := n.childIDs[len(n.childIDs)-1]
	n.childIDs = n.childIDs[:len(n.childIDs)-1]
	target.childIDs = append(target.childIDs, last)
}

// StealChildIDsFrom moves every pending child id recorded on donor with
// At in [since, until] onto n, preserving recording order. A donor with no
// matching entries is left untouched; this is a no-op, not an error.
func (n *CallTree) StealChildIDsFrom(donor *CallTree, since, until int64) {
	if donor == nil || len(donor.childIDs) == 0 {
		return
	}
	kept := donor.childIDs[:0:0]
	for _, id := range donor.childIDs {
		if id.At >= since && id.At <= until {
			n.childIDs = append(n.childIDs, id)
		} else {
			kept = append(kept, id)
		}
	}
	donor.childIDs = kept
}

// recordChildID appends a pending child id observed at timestamp.
func (n *CallTree) recordChildID(spanID string, ctx inferredspans.SpanContext, timestamp int64) {
	n.childIDs = append(n.childIDs, pendingChildID{SpanID: spanID, Context: ctx, At: timestamp})
}

func (n *CallTree) String() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *CallTree) render(b *strings.Builder, indent int) {
	fmt.Fprintf(b, "%s%s (count=%d, %d-%d)\n", strings.Repeat("  ", indent), n.Frame.Name(), n.Count, n.FirstSeen, n.LastSeen)
	for _, c := range n.Children {
		c.render(b, indent+1)
	}
}
