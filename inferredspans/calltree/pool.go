// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package calltree

import (
	"sync"

	"github.com/DataDog/inferred-spans-go/internal/log"
)

// NodePool recycles *CallTree nodes across samples. Disabling the pool (via
// SetEnabled) makes Get always allocate fresh, which is useful for tests
// that want to assert on node identity without pool reuse muddying results.
type NodePool struct {
	pool        sync.Pool
	enabled     atomicBool
	counts      *Counts
	exhaustOnce sync.Once
}

// NewNodePool returns an enabled NodePool that reports exhaustion/fallback
// events into counts.
func NewNodePool(counts *Counts) *NodePool {
	p := &NodePool{counts: counts}
	p.enabled.set(true)
	return p
}

// SetEnabled toggles pooling. When disabled, Get always allocates and Put
// always discards, matching span_pool's gate.
func (p *NodePool) SetEnabled(enabled bool) {
	p.enabled.set(enabled)
}

// Get returns a zeroed *CallTree, recycled from the pool when possible.
func (p *NodePool) Get() *CallTree {
	if !p.enabled.get() {
		return &CallTree{}
	}
	n, ok := p.pool.Get().(*CallTree)
	if !ok || n == nil {
		if p.counts != nil {
			p.counts.Incr(ReasonPoolExhausted)
		}
		p.exhaustOnce.Do(func() { log.Warn("calltree: node pool exhausted, allocating directly") })
		return &CallTree{}
	}
	return n
}

// Put resets n and returns it to the pool.
func (p *NodePool) Put(n *CallTree) {
	if n == nil || !p.enabled.get() {
		return
	}
	n.reset()
	p.pool.Put(n)
}

// RootPool recycles *Root values the same way NodePool recycles *CallTree.
type RootPool struct {
	pool        sync.Pool
	enabled     atomicBool
	counts      *Counts
	exhaustOnce sync.Once
}

// NewRootPool returns an enabled RootPool.
func NewRootPool(counts *Counts) *RootPool {
	p := &RootPool{counts: counts}
	p.enabled.set(true)
	return p
}

// SetEnabled toggles pooling.
func (p *RootPool) SetEnabled(enabled bool) {
	p.enabled.set(enabled)
}

// Get returns a zeroed *Root, recycled from the pool when possible.
func (p *RootPool) Get() *Root {
	if !p.enabled.get() {
		return &Root{}
	}
	r, ok := p.pool.Get().(*Root)
	if !ok || r == nil {
		if p.counts != nil {
			p.counts.Incr(ReasonPoolExhausted)
		}
		p.exhaustOnce.Do(func() { log.Warn("calltree: root pool exhausted, allocating directly") })
		return &Root{}
	}
	return r
}

// Put resets r and returns it to the pool.
func (p *RootPool) Put(r *Root) {
	if r == nil || !p.enabled.get() {
		return
	}
	r.reset()
	p.pool.Put(r)
}

// atomicBool is a tiny mutex-backed bool, mirroring the enabled gate in
// span_pool.go without pulling in a dependency on a specific atomic.Bool
// type across older Go versions.
type atomicBool struct {
	mu sync.RWMutex
	v  bool
}

func (b *atomicBool) set(v bool) {
	b.mu.Lock()
	b.v = v
	b.mu.Unlock()
}

func (b *atomicBool) get() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.v
}
