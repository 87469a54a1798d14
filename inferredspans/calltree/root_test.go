package calltree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DataDog/inferred-spans-go/inferredspans"
	"github.com/DataDog/inferred-spans-go/inferredspans/mocktracer"
)

func newTestRoot() (*Root, *Counts) {
	counts := NewCounts()
	pool := NewNodePool(counts)
	rootPool := NewRootPool(counts)
	cfg := inferredspans.NewConfig(inferredspans.WithMinDuration(0))
	tracer := mocktracer.Start()
	return NewRoot(pool, rootPool, counts, tracer, cfg, nil), counts
}

func TestAddStackTraceBuildsPath(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")
	b := NewFrame("", "b")

	r.AddStackTrace([]Frame{a, b}, 10)
	r.AddStackTrace([]Frame{a, b}, 20)

	require := assert.New(t)
	require.Len(r.CallTree.Children, 1)
	aNode := r.CallTree.Children[0]
	require.Equal(2, aNode.Count)
	require.Len(aNode.Children, 1)
	bNode := aNode.Children[0]
	require.Equal(2, bNode.Count)
	require.Equal(int64(10), bNode.FirstSeen)
	require.Equal(int64(20), bNode.LastSeen)
}

func TestAddStackTraceOutOfOrderDropped(t *testing.T) {
	r, counts := newTestRoot()
	a := NewFrame("", "a")

	r.AddStackTrace([]Frame{a}, 100)
	r.AddStackTrace([]Frame{a}, 50)

	assert.Equal(t, int64(1), counts.Get(ReasonOutOfOrderSample))
	assert.Equal(t, 1, r.CallTree.Children[0].Count)
}

func TestDeactivateUnmatchedIsIgnored(t *testing.T) {
	r, counts := newTestRoot()
	assert.NotPanics(t, func() {
		r.Deactivate("no-such-span", 10)
	})
	assert.Equal(t, int64(1), counts.Get(ReasonUnmatchedDeactivation))
}

func TestActivateAnchorsToLeafCurrentAtTimestamp(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")
	b := NewFrame("", "b")

	r.AddStackTrace([]Frame{a}, 10)
	r.AddStackTrace([]Frame{a, b}, 20)

	r.Activate(inferredspans.ActivationEvent{
		Kind:      inferredspans.Activate,
		SpanID:    "s1",
		Timestamp: 25,
	})

	bNode := r.CallTree.Children[0].Children[0]
	assert.Len(t, bNode.childIDs, 1)
	assert.Equal(t, "s1", bNode.childIDs[0].SpanID)
}

func TestDeactivationAfterLastSampleExtendsLastSeen(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")

	r.AddStackTrace([]Frame{a}, 10)
	r.Activate(inferredspans.ActivationEvent{Kind: inferredspans.Activate, SpanID: "s1", Timestamp: 10})

	r.Deactivate("s1", 50)

	aNode := r.CallTree.Children[0]
	assert.Equal(t, int64(50), aNode.LastSeen)
}

func TestDeactivationBeforeEndDoesNotShrinkLastSeen(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")

	r.AddStackTrace([]Frame{a}, 10)
	r.AddStackTrace([]Frame{a}, 20)
	r.AddStackTrace([]Frame{a}, 30)

	r.Activate(inferredspans.ActivationEvent{Kind: inferredspans.Activate, SpanID: "s1", Timestamp: 12})
	r.Deactivate("s1", 18)

	aNode := r.CallTree.Children[0]
	assert.Equal(t, int64(30), aNode.LastSeen)
	assert.Len(t, aNode.childIDs, 1)
	assert.Equal(t, "s1", aNode.childIDs[0].SpanID)
}

func TestSpanifyPanicsWhenTreeNotEnded(t *testing.T) {
	r, _ := newTestRoot()
	assert.Panics(t, func() {
		r.Spanify(nil)
	})
}

func TestActivationAfterMethodEndsAnchorsToCommonAncestor(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")
	b := NewFrame("", "b")

	r.AddStackTrace([]Frame{a}, 10)
	r.AddStackTrace([]Frame{a}, 20)
	r.AddStackTrace([]Frame{b}, 40)
	r.AddStackTrace([]Frame{b}, 50)

	r.Activate(inferredspans.ActivationEvent{Kind: inferredspans.Activate, SpanID: "s2", Timestamp: 30})

	aNode := r.CallTree.Children[0]
	assert.Empty(t, aNode.childIDs, "activation arriving after a's last sample must not be attributed to a")
	assert.Len(t, r.CallTree.childIDs, 1)
	assert.Equal(t, "s2", r.CallTree.childIDs[0].SpanID)
}

// TestActivationBeforeAnySampleAttachesToRoot documents a known limitation:
// an activation whose timestamp precedes every sample has nothing to anchor
// to yet, so it is attributed directly to the transaction root rather than
// to whichever method eventually turns out to contain it.
func TestActivationBeforeAnySampleAttachesToRoot(t *testing.T) {
	r, _ := newTestRoot()
	a := NewFrame("", "a")

	r.Activate(inferredspans.ActivationEvent{Kind: inferredspans.Activate, SpanID: "s1", Timestamp: 5})
	r.AddStackTrace([]Frame{a}, 10)

	assert.Len(t, r.CallTree.childIDs, 1)
	assert.Equal(t, "s1", r.CallTree.childIDs[0].SpanID)
	assert.Empty(t, r.CallTree.Children[0].childIDs)
}
