// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wsd provides an unbounded, lock-free, single-owner
// multiple-stealer work-stealing deque, plus the pool allocator that
// feeds a task-parallel runtime built on top of it.
//
// A work-stealing deque is the dispatch primitive of such a runtime:
// the owning worker pushes and pops tasks at the bottom in LIFO order,
// while idle workers ("thieves") steal from the top in FIFO order.
// Storage is a continuous array built from doubly linked fixed-size
// blocks, so pushes never fail, never move elements, and blocks the
// stealers have moved past are retired for reuse.
//
// # Quick Start
//
// Direct constructors:
//
//	d := wsd.NewDeque[Task]()       // carries *Task
//	d := wsd.NewDequeIndirect()     // carries uintptr handles
//	d := wsd.NewDequePtr()          // carries unsafe.Pointer
//
// Builder API for configuration:
//
//	d := wsd.Build[Task](wsd.New())
//	d := wsd.New().BlockSizeLog(10).BuildIndirect()
//
// # Basic Usage
//
// The owner works the bottom end:
//
//	d := wsd.NewDeque[Task]()
//
//	d.PushBottom(&task)             // never fails (unbounded)
//
//	next, err := d.PopBottom()
//	if wsd.IsWouldBlock(err) {
//	    // Own deque empty - time to steal from a victim
//	}
//
// Every other goroutine steals from the top:
//
//	task, emptyAfter, err := victim.PopTop()
//	if err == nil {
//	    run(task)
//	}
//	if emptyAfter {
//	    // Deque drained - pick another victim
//	}
//
// # Roles
//
// Exactly one goroutine per deque is the owner; it alone may call
// PushBottom, PopBottom, and FreeRetired. Any number of other goroutines
// may call PopTop concurrently. Violating the single-owner constraint
// causes undefined behavior including data corruption.
//
// The [Owner] and [Stealer] interface families capture the two roles, so
// a scheduler can hand each worker the stealer view of every other
// worker's deque and the owner view of its own.
//
// # Deque Variants
//
// Three flavors are available, mirroring the payload forms a runtime
// passes around:
//
//	Deque[T]      - carries *T task pointers
//	DequeIndirect - carries uintptr values (pool indices, handles)
//	DequePtr      - carries unsafe.Pointer (zero-copy pointer passing)
//
// All three store a single machine word per element: the deque carries
// task pointers, never task records. Deque[T] and DequePtr store the
// word without keeping the referent reachable on their own; keep task
// records alive in an owning structure (an arena, the pool allocator, a
// result buffer) until they are popped. DequeIndirect has no such
// concern and is the natural fit for index-based task pools.
//
// # Memory Ordering
//
// The protocol follows "Correct and Efficient Work-Stealing for Weak
// Memory Models" (Lê, Pop, Cohen, Zappa Nardelli), with block-chain
// storage in the spirit of the dynamic-sized deque of Hendler, Lev,
// Moir and Shavit. The C++ formulation's seq-cst fences map to
// sequentially consistent atomix operations at the fence points:
//
//   - PushBottom publishes with a sequentially consistent store of bot;
//     the slot write itself is relaxed.
//   - PopTop loads top and bot sequentially consistently, then claims
//     the element with a CAS on top - the linearization point.
//   - PopBottom decrements bot with a sequentially consistent store,
//     loads top, and in the last-element case races stealers with the
//     same CAS on top.
//
// For any successful PopTop returning v there is a matching
// PushBottom(v) that happens-before it. top never exceeds bot+1 at any
// consistent observation; bot == top means empty. Slot reads and writes
// inside the continuous array are relaxed - causality comes from the
// bot/top ordering, not per-slot synchronization.
//
// # Block Retirement and Reuse
//
// Blocks hold 1<<BlockSizeLog slots each and form a doubly linked
// chain. When a stealer's read proves that the tail block can never be
// read again, that stealer retires it: a CAS swings tail
// forward and the block goes onto a lock-free retire stack. The owner
// calls FreeRetired to move retired blocks onto its private reuse
// stack, where later pushes recycle them instead of allocating.
//
// FreeRetired must only be called when no stealer still holds a pointer
// into a retired block - either because the stealers are quiescent, or
// because an external epoch or hazard pointer scheme guards the window.
// The deque supplies the hook; the policy lives in the runtime.
//
// # Pool Allocator
//
// [PoolAllocator] recycles the task records whose pointers flow through
// the deque. Small buckets are served from per-P free lists, large
// buckets from one shared lock-free stack each, and oversized requests
// go straight to the runtime allocator:
//
//	pool := wsd.NewPoolAllocator([]int{64, 256, 1024, 1 << 19})
//	buf := pool.Allocate(200)   // from the 256-byte bucket
//	pool.Deallocate(buf)
//	used, reserved := pool.Stats()
//	pool.Clear()                // drop retained large blocks
//
// # Error Handling
//
// Pops return [ErrWouldBlock] when there is nothing to take; it is a
// control flow signal sourced from [code.hybscloud.com/iox] for
// ecosystem consistency, not a failure. A stealer that loses a race for
// an element also gets ErrWouldBlock: the element went to the winner.
// Use the emptyAfter result of PopTop to decide when to stop polling.
//
//	lfqStyle := func(d *wsd.DequeIndirect) {
//	    backoff := iox.Backoff{}
//	    for {
//	        v, emptyAfter, err := d.PopTop()
//	        if err == nil {
//	            backoff.Reset()
//	            consume(v)
//	        }
//	        if emptyAfter {
//	            return
//	        }
//	        backoff.Wait()
//	    }
//	}
//
// Protocol violations (an index outside the block chain, a nil tail,
// top outrunning bottom) are bugs in the caller or the package and
// panic.
//
// # Length
//
// Length is intentionally not provided because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
// Track counts in application logic when needed.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm
// verification. It tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established through atomic memory orderings on separate variables.
// The deque protocol synchronizes slot accesses through the ordering of
// bot and top, which the detector cannot track, so concurrent tests may
// report false positives. Concurrent tests skip themselves when
// RaceEnabled is set, and the examples are excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering, [code.hybscloud.com/iox] for semantic
// errors, and [code.hybscloud.com/spin] for CPU pause instructions in
// retry loops.
package wsd
