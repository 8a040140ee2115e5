// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MaxAlignment is the size granularity of large pool blocks: every large
// block's byte length is a multiple of MaxAlignment.
const MaxAlignment = 128

// largeThreshold separates small buckets (per-P free lists) from large
// buckets (one shared lock-free stack each).
const largeThreshold = 1 << 18

// PoolAllocator hands out headerless byte blocks from pools of fixed
// bucket sizes, so task records can be produced and recycled at the same
// rate the deque is exercised.
//
// Bucket sizes are given at construction, must be at least 8 and strictly
// increasing. Blocks below largeThreshold come from per-bucket [sync.Pool]
// free lists (the runtime's per-P caches serve as the thread-local lists).
// Larger blocks up to the maximum bucket size come from one shared
// lock-free stack per bucket and are retained across calls. Requests
// beyond the largest bucket go straight to the runtime allocator, rounded
// up to a multiple of MaxAlignment, and are released on Deallocate.
//
// A block is returned with its length set to the requested size and its
// capacity set to the bucket's block size; Deallocate routes blocks back
// by capacity, so callers must not reslice a block's capacity before
// returning it.
type PoolAllocator struct {
	sizes     []int          // bucket payload sizes, ascending
	allocs    []int          // actual block sizes per bucket
	numSmall  int            // buckets below largeThreshold
	maxSmall  int            // largest small bucket size, 0 if none
	maxSize   int            // largest bucket size
	small     []sync.Pool    // per-bucket free lists, index < numSmall
	smallUsed []atomix.Int64 // outstanding bytes per small bucket
	large     []largeStack   // shared stacks, index >= numSmall

	largeAllocated atomix.Int64 // bytes of live large blocks
	largeUsed      atomix.Int64 // bytes of large blocks held by callers
}

// NewPoolAllocator creates a pool allocator with the given bucket sizes.
// Sizes must be at least 8 and strictly increasing; panics otherwise.
func NewPoolAllocator(sizes []int) *PoolAllocator {
	if len(sizes) == 0 {
		panic("wsd: pool allocator needs at least one bucket size")
	}
	prev := 0
	for _, s := range sizes {
		if s < 8 {
			panic("wsd: bucket sizes must be at least 8")
		}
		if s <= prev {
			panic("wsd: bucket sizes must be strictly increasing")
		}
		prev = s
	}

	p := &PoolAllocator{
		sizes:   append([]int(nil), sizes...),
		allocs:  make([]int, len(sizes)),
		maxSize: sizes[len(sizes)-1],
	}
	for p.numSmall < len(sizes) && sizes[p.numSmall] < largeThreshold {
		p.numSmall++
	}
	if p.numSmall > 0 {
		p.maxSmall = sizes[p.numSmall-1]
	}

	p.small = make([]sync.Pool, p.numSmall)
	p.smallUsed = make([]atomix.Int64, p.numSmall)
	for i := range p.small {
		n := sizes[i]
		p.allocs[i] = n
		p.small[i].New = func() any { return make([]byte, n) }
	}
	p.large = make([]largeStack, len(sizes)-p.numSmall)
	for i := p.numSmall; i < len(sizes); i++ {
		p.allocs[i] = alignUp(sizes[i])
	}
	return p
}

// Allocate returns a block of at least n bytes, length n.
// Panics if n is not positive.
func (p *PoolAllocator) Allocate(n int) []byte {
	if n <= 0 {
		panic("wsd: allocation size must be positive")
	}
	if n > p.maxSmall {
		return p.allocateLarge(n)
	}
	bucket := 0
	for n > p.sizes[bucket] {
		bucket++
	}
	p.smallUsed[bucket].Add(int64(p.allocs[bucket]))
	return p.small[bucket].Get().([]byte)[:n]
}

// Deallocate returns a block obtained from Allocate. The block is routed
// back to its bucket by capacity; blocks beyond the largest bucket are
// released to the runtime.
func (p *PoolAllocator) Deallocate(buf []byte) {
	size := cap(buf)
	if size == 0 {
		return
	}
	if size > p.maxSmall {
		p.deallocateLarge(buf[:size])
		return
	}
	bucket := 0
	for size > p.sizes[bucket] {
		bucket++
	}
	p.smallUsed[bucket].Add(-int64(p.allocs[bucket]))
	p.small[bucket].Put(buf[:size])
}

func (p *PoolAllocator) allocateLarge(n int) []byte {
	if n > p.maxSize {
		size := alignUp(n)
		p.largeUsed.Add(int64(size))
		p.largeAllocated.Add(int64(size))
		return make([]byte, size)[:n]
	}
	bucket := p.numSmall
	for n > p.sizes[bucket] {
		bucket++
	}
	size := p.allocs[bucket]
	p.largeUsed.Add(int64(size))
	if buf, ok := p.large[bucket-p.numSmall].pop(); ok {
		return buf[:n]
	}
	p.largeAllocated.Add(int64(size))
	return make([]byte, size)[:n]
}

func (p *PoolAllocator) deallocateLarge(buf []byte) {
	size := cap(buf)
	p.largeUsed.Add(-int64(size))
	if len(p.large) == 0 || size > alignUp(p.maxSize) {
		p.largeAllocated.Add(-int64(size))
		return
	}
	bucket := p.numSmall
	for size > p.allocs[bucket] {
		bucket++
	}
	// Large bucket blocks are retained across calls
	p.large[bucket-p.numSmall].push(buf)
}

// Stats reports currently used bytes and the bytes the allocator retains
// in reserve.
//
// Reserve covers the shared large buckets only: small free lists live in
// [sync.Pool] and are drained by the collector at its own pace.
func (p *PoolAllocator) Stats() (used, reserved int64) {
	for i := range p.smallUsed {
		used += p.smallUsed[i].Load()
	}
	u := p.largeUsed.Load()
	return used + u, p.largeAllocated.Load() - u
}

// Clear drains the shared large buckets, releasing their retained blocks
// to the runtime. Outstanding blocks are unaffected.
func (p *PoolAllocator) Clear() {
	for i := range p.large {
		for {
			buf, ok := p.large[i].pop()
			if !ok {
				break
			}
			p.largeAllocated.Add(-int64(cap(buf)))
		}
	}
}

// alignUp rounds n up to the next multiple of MaxAlignment.
func alignUp(n int) int {
	return (n + MaxAlignment - 1) &^ (MaxAlignment - 1)
}

// largeNode carries one free block on a largeStack.
type largeNode struct {
	next *largeNode
	buf  []byte
}

// largeStack is a Treiber stack of free blocks shared by all goroutines.
//
// Nodes are allocated per push and never reused while reachable, so the
// pop CAS cannot observe an ABA'd head.
//
// The head is a traced atomic pointer rather than a raw word: the stack
// is the only reference to its blocks, so the collector must see it.
type largeStack struct {
	head atomic.Pointer[largeNode]
	_    padPtr
}

func (s *largeStack) push(buf []byte) {
	n := &largeNode{buf: buf}
	sw := spin.Wait{}
	for {
		h := s.head.Load()
		n.next = h
		if s.head.CompareAndSwap(h, n) {
			return
		}
		sw.Once()
	}
}

func (s *largeStack) pop() ([]byte, bool) {
	sw := spin.Wait{}
	for {
		h := s.head.Load()
		if h == nil {
			return nil, false
		}
		if s.head.CompareAndSwap(h, h.next) {
			return h.buf, true
		}
		sw.Once()
	}
}
