// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import "testing"

// =============================================================================
// Block Coverage
// =============================================================================

// TestContinuousArrayHeadRoundTrip writes a run of indices through the
// owner interface and reads them back from both ends: every index must be
// covered by a block reachable from the head walk and the tail walk.
func TestContinuousArrayHeadRoundTrip(t *testing.T) {
	ca := newContinuousArray(4) // 16 slots per block

	const n = 100
	for i := uint64(0); i < n; i++ {
		ca.putHead(i, uintptr(i+1))
	}

	// Head walk backward
	for i := int64(n - 1); i >= 0; i-- {
		if got := ca.getHead(uint64(i)); got != uintptr(i+1) {
			t.Fatalf("getHead(%d): got %d, want %d", i, got, i+1)
		}
	}
	// Tail walk forward covers the same indices
	for i := uint64(0); i < n; i++ {
		if got := ca.getTail(i); got != uintptr(i+1) {
			t.Fatalf("getTail(%d): got %d, want %d", i, got, i+1)
		}
	}
}

func TestContinuousArrayBlockGeometry(t *testing.T) {
	ca := newContinuousArray(4)

	if ca.blockSize() != 16 {
		t.Fatalf("blockSize: got %d, want 16", ca.blockSize())
	}
	if ca.head.id != 0 || ca.tailBlockID() != 0 {
		t.Fatalf("fresh array: head id %d, tail id %d, want 0, 0", ca.head.id, ca.tailBlockID())
	}

	// Writing the first slot of block k allocates block k
	ca.putHead(0, 1)
	ca.putHead(16, 2)
	ca.putHead(32, 3)
	if ca.head.id != 2 {
		t.Fatalf("head id after 3 blocks: got %d, want 2", ca.head.id)
	}

	// Chain is linked in both directions with consecutive ids
	for b := ca.head; b != nil; b = blockAt(b.prev.LoadRelaxed()) {
		if nxt := blockAt(b.next.LoadRelaxed()); nxt != nil {
			if nxt.id != b.id+1 {
				t.Fatalf("next id: got %d, want %d", nxt.id, b.id+1)
			}
			if blockAt(nxt.prev.LoadRelaxed()) != b {
				t.Fatal("next.prev does not point back")
			}
		}
	}
}

// =============================================================================
// Tail Walks
// =============================================================================

// TestContinuousArrayTailWalks drives getTail through both link
// directions: forward when the stored tail is behind the desired block,
// backward when retirement moved tail past a read still in flight.
func TestContinuousArrayTailWalks(t *testing.T) {
	ca := newContinuousArray(4)
	const n = 48 // blocks 0, 1, 2
	for i := uint64(0); i < n; i++ {
		ca.putHead(i, uintptr(i+1))
	}

	// Forward walk: tail is at block 0, read from block 2
	if got := ca.getTail(40); got != 41 {
		t.Fatalf("getTail(40): got %d, want 41", got)
	}
	if ca.tailBlockID() != 0 {
		t.Fatalf("tail moved on a non-boundary read: id %d", ca.tailBlockID())
	}

	// Reading offset 0 of block 1 retires block 0
	if got := ca.getTail(16); got != 17 {
		t.Fatalf("getTail(16): got %d, want 17", got)
	}
	if ca.tailBlockID() != 1 {
		t.Fatalf("tail after retirement: id %d, want 1", ca.tailBlockID())
	}

	// Backward walk: a read targeting block 0 claimed before the
	// retirement still finds its block through prev links, because the
	// block is retired, not reclaimed.
	if got := ca.getTail(15); got != 16 {
		t.Fatalf("getTail(15) after retirement: got %d, want 16", got)
	}
}

// =============================================================================
// Retirement and Reuse
// =============================================================================

// TestContinuousArrayRetirementReuse follows the block lifecycle: fill
// three blocks, steal past two boundaries, reclaim, and verify the
// retired blocks feed later allocations instead of the heap.
func TestContinuousArrayRetirementReuse(t *testing.T) {
	d := New().BlockSizeLog(4).BuildIndirect()
	ca := d.arr
	bs := int(ca.blockSize())

	for i := range 3 * bs {
		if err := d.PushBottom(uintptr(i + 1)); err != nil {
			t.Fatalf("PushBottom(%d): %v", i, err)
		}
	}
	// Steal through both block boundaries
	for i := range 2*bs + 1 {
		v, _, err := d.PopTop()
		if err != nil {
			t.Fatalf("PopTop(%d): %v", i, err)
		}
		if v != uintptr(i+1) {
			t.Fatalf("PopTop(%d): got %d, want %d", i, v, i+1)
		}
	}

	if ca.tailBlockID() != 2 {
		t.Fatalf("tail block id: got %d, want 2", ca.tailBlockID())
	}
	if got := d.FreeRetired(); got != 2 {
		t.Fatalf("FreeRetired: got %d, want 2", got)
	}
	if got := ca.reuseLen(); got != 2 {
		t.Fatalf("reuse stack depth: got %d, want 2", got)
	}

	// Two more blocks of pushes recycle both reused blocks
	allocated := len(ca.anchors)
	for i := range 2 * bs {
		if err := d.PushBottom(uintptr(1000 + i)); err != nil {
			t.Fatalf("PushBottom(%d): %v", i, err)
		}
	}
	if len(ca.anchors) != allocated {
		t.Fatalf("fresh allocations after reuse: got %d, want %d", len(ca.anchors), allocated)
	}
	if got := ca.reuseLen(); got != 0 {
		t.Fatalf("reuse stack depth after recycling: got %d, want 0", got)
	}

	// Everything still drains exactly once
	remaining := 3*bs - (2*bs + 1) + 2*bs
	for range remaining {
		if _, err := d.PopBottom(); err != nil {
			t.Fatalf("PopBottom: %v", err)
		}
	}
	if _, err := d.PopBottom(); !IsWouldBlock(err) {
		t.Fatalf("PopBottom after drain: got %v, want ErrWouldBlock", err)
	}
}

// TestContinuousArrayReclaimEmpty verifies reclaim on an empty retire
// stack is a no-op.
func TestContinuousArrayReclaimEmpty(t *testing.T) {
	d := NewDequeIndirect()
	if got := d.FreeRetired(); got != 0 {
		t.Fatalf("FreeRetired on fresh deque: got %d, want 0", got)
	}
}

// TestContinuousArrayReusedBlockIDs verifies reused blocks get fresh,
// monotonically increasing ids when respliced at the head.
func TestContinuousArrayReusedBlockIDs(t *testing.T) {
	d := New().BlockSizeLog(2).BuildIndirect()
	ca := d.arr
	bs := int(ca.blockSize())

	for i := range 2 * bs {
		_ = d.PushBottom(uintptr(i + 1))
	}
	for i := range bs + 1 {
		if _, _, err := d.PopTop(); err != nil {
			t.Fatalf("PopTop(%d): %v", i, err)
		}
	}
	if d.FreeRetired() != 1 {
		t.Fatal("expected one retired block")
	}

	prevHead := ca.head.id
	for i := range bs {
		_ = d.PushBottom(uintptr(100 + i))
	}
	if ca.head.id != prevHead+1 {
		t.Fatalf("reused block id: got %d, want %d", ca.head.id, prevHead+1)
	}
}
