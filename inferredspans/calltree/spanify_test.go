package calltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/inferred-spans-go/inferredspans"
	"github.com/DataDog/inferred-spans-go/inferredspans/ext"
	"github.com/DataDog/inferred-spans-go/inferredspans/mocktracer"
)

// buildBranchingTree constructs:
//
//	a -> b -> c   (b is a pure pass-through: same sample count as c, folds into a)
//	a -> d
//
// so that a and d survive on their own, b collapses into a, and c survives
// as a's child carrying "b" as a collapsed stack-trace entry.
func buildBranchingTree(r *Root) {
	a := NewFrame("", "a")
	b := NewFrame("", "b")
	c := NewFrame("", "c")
	d := NewFrame("", "d")

	r.AddStackTrace([]Frame{a, b, c}, 10)
	r.AddStackTrace([]Frame{a, b, c}, 20)
	r.AddStackTrace([]Frame{a, d}, 30)
	r.AddStackTrace([]Frame{a, d}, 40)
}

func TestSpanifyCollapsesPassThroughPillar(t *testing.T) {
	tracer := mocktracer.Start()
	counts := NewCounts()
	pool := NewNodePool(counts)
	rootPool := NewRootPool(counts)
	cfg := inferredspans.NewConfig(inferredspans.WithMinDuration(0))
	r := NewRoot(pool, rootPool, counts, tracer, cfg, nil)

	buildBranchingTree(r)
	r.End(40)

	descriptors := r.Spanify(nil)
	require.Len(t, descriptors, 3)

	byName := map[string]SpanDescriptor{}
	for _, d := range descriptors {
		byName[d.Name] = d
	}
	assert.Contains(t, byName, "a")
	assert.Contains(t, byName, "c")
	assert.Contains(t, byName, "d")
	assert.NotContains(t, byName, "b", "pass-through pillar must not get its own span")

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 3)

	var aSpan, cSpan, dSpan *mocktracer.Span
	for _, s := range finished {
		switch s.Name() {
		case "a":
			aSpan = s
		case "c":
			cSpan = s
		case "d":
			dSpan = s
		}
	}
	require.NotNil(t, aSpan)
	require.NotNil(t, cSpan)
	require.NotNil(t, dSpan)

	assert.Equal(t, aSpan.SpanID(), cSpan.ParentID(), "c must be reparented onto a once b collapses")
	assert.Equal(t, aSpan.SpanID(), dSpan.ParentID())
	assert.Equal(t, uint64(0), aSpan.ParentID(), "a has no explicit enclosing span")

	tag, ok := cSpan.Tag(ext.CodeStacktrace)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, tag)

	_, ok = dSpan.Tag(ext.CodeStacktrace)
	assert.False(t, ok, "d folded no ancestors and should carry no stack trace")
}

func TestSpanifyLinksActivatedSpanAsChild(t *testing.T) {
	tracer := mocktracer.Start()
	counts := NewCounts()
	pool := NewNodePool(counts)
	rootPool := NewRootPool(counts)
	cfg := inferredspans.NewConfig(inferredspans.WithMinDuration(0))
	r := NewRoot(pool, rootPool, counts, tracer, cfg, nil)

	a := NewFrame("", "a")
	d := NewFrame("", "d")
	r.AddStackTrace([]Frame{a, d}, 10)
	r.AddStackTrace([]Frame{a, d}, 20)

	explicit := &mocktracer.SpanContext{}
	r.Activate(inferredspans.ActivationEvent{
		Kind:      inferredspans.Activate,
		SpanID:    "explicit-1",
		Context:   explicit,
		Timestamp: 15,
	})

	r.End(20)
	descriptors := r.Spanify(nil)
	// a is a pure pass-through to its only child d (same sample count), so
	// it folds away and only d survives, carrying "a" as a collapsed frame.
	require.Len(t, descriptors, 1)
	dDescriptor := descriptors[0]
	assert.Equal(t, "d", dDescriptor.Name)
	assert.Equal(t, []string{"a"}, dDescriptor.StackTrace)

	dSpan := dDescriptor.Handle.(*mocktracer.Span)
	links := dSpan.Links()
	require.Len(t, links, 1)
	assert.True(t, links[0].IsChild)
	assert.Same(t, explicit, links[0].To)
}

func TestSpanifyOrdersCollapsedPillarsDeepestFirst(t *testing.T) {
	// a -> b -> c -> d, with a sampled once on its own before the path ever
	// reaches b/c/d. a therefore keeps a higher count than its one child
	// and survives on its own; b and c are pure pass-throughs (each has
	// exactly one child with its own sample count) and both collapse into
	// d. c is the deeper of the two dropped pillars, so it must be listed
	// before b.
	tracer := mocktracer.Start()
	counts := NewCounts()
	pool := NewNodePool(counts)
	rootPool := NewRootPool(counts)
	cfg := inferredspans.NewConfig(inferredspans.WithMinDuration(0))
	r := NewRoot(pool, rootPool, counts, tracer, cfg, nil)

	a := NewFrame("", "a")
	b := NewFrame("", "b")
	c := NewFrame("", "c")
	d := NewFrame("", "d")

	r.AddStackTrace([]Frame{a}, 10)
	r.AddStackTrace([]Frame{a, b, c, d}, 20)
	r.AddStackTrace([]Frame{a, b, c, d}, 30)
	r.End(30)

	descriptors := r.Spanify(nil)
	require.Len(t, descriptors, 2)

	byName := map[string]SpanDescriptor{}
	for _, desc := range descriptors {
		byName[desc.Name] = desc
	}
	require.Contains(t, byName, "a")
	require.Contains(t, byName, "d")
	assert.NotContains(t, byName, "b")
	assert.NotContains(t, byName, "c")

	assert.Equal(t, []string{"c", "b"}, byName["d"].StackTrace)
	assert.Empty(t, byName["a"].StackTrace)
}

func TestSpanifyEmptyTree(t *testing.T) {
	tracer := mocktracer.Start()
	counts := NewCounts()
	pool := NewNodePool(counts)
	rootPool := NewRootPool(counts)
	cfg := inferredspans.NewConfig(inferredspans.WithMinDuration(0))
	r := NewRoot(pool, rootPool, counts, tracer, cfg, nil)

	r.End(0)
	descriptors := r.Spanify(nil)
	assert.Empty(t, descriptors)
}
