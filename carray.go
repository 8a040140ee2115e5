// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// block is a fixed-capacity chunk of the continuous array.
//
// A block with id B covers logical indices [B*blockSize, (B+1)*blockSize).
// Ids are unique and monotonically increasing. prev links to the block with
// id B-1 and next to the block with id B+1, when they exist.
//
// prev doubles as the intrusive link of the retire stack: a retired block
// has no meaningful prev left, so the slot is recycled.
//
// Links are stored as raw words. Blocks stay reachable through the owner's
// anchor list for the lifetime of the array, so the collector never needs
// to trace them through these links.
type block struct {
	prev  atomix.Uintptr // older neighbor, or retire-stack link
	next  atomix.Uintptr // younger neighbor
	id    uint64
	slots []atomix.Uintptr
}

// blockAt converts a stored link word back to a block pointer.
func blockAt(p uintptr) *block {
	return (*block)(unsafe.Pointer(p))
}

// blockWord converts a block pointer to its link word.
func blockWord(b *block) uintptr {
	return uintptr(unsafe.Pointer(b))
}

// continuousArray presents an unbounded index-addressable array of words
// to the deque, backed by a doubly linked chain of fixed-size blocks.
//
// Access is asymmetric: the owner writes and reads at the head end
// (putHead, getHead, alloc, reclaim), thieves read at the tail end
// (getTail) and cooperate to retire blocks the tail has moved past.
type continuousArray struct {
	// Owner-only state. No synchronization.
	head       *block   // youngest block
	blockInUse *block   // owner's cursor
	reuse      *block   // reuse stack, linked through prev
	curr       uint64   // next block id to assign
	anchors    []*block // keeps every allocated block reachable
	sizeLog    uint
	mask       uint64

	_        pad
	tail     atomix.Uintptr // *block; advanced by thieves via CAS
	_        pad
	toRetire atomix.Uintptr // retire stack head; thieves push, owner drains
	_        pad
}

// newContinuousArray creates an array with 1<<sizeLog slots per block and
// allocates the first block.
func newContinuousArray(sizeLog uint) *continuousArray {
	ca := &continuousArray{
		sizeLog: sizeLog,
		mask:    (uint64(1) << sizeLog) - 1,
	}
	first := ca.getBlock()
	first.id = ca.curr
	ca.curr++
	ca.head = first
	ca.blockInUse = first
	ca.tail.StoreRelaxed(blockWord(first))
	return ca
}

// blockSize returns the number of slots per block.
func (ca *continuousArray) blockSize() uint64 {
	return ca.mask + 1
}

// getBlock pops a block from the reuse stack or allocates a fresh one.
func (ca *continuousArray) getBlock() *block {
	if b := ca.popReuse(); b != nil {
		return b
	}
	b := &block{slots: make([]atomix.Uintptr, ca.blockSize())}
	ca.anchors = append(ca.anchors, b)
	return b
}

// pushReuse adds a block to the owner's reuse stack.
func (ca *continuousArray) pushReuse(b *block) {
	b.prev.StoreRelaxed(blockWord(ca.reuse))
	ca.reuse = b
}

// popReuse removes a block from the owner's reuse stack.
func (ca *continuousArray) popReuse() *block {
	b := ca.reuse
	if b == nil {
		return nil
	}
	ca.reuse = blockAt(b.prev.LoadRelaxed())
	return b
}

// reuseLen reports the depth of the reuse stack. Owner only.
func (ca *continuousArray) reuseLen() int {
	n := 0
	for b := ca.reuse; b != nil; b = blockAt(b.prev.LoadRelaxed()) {
		n++
	}
	return n
}

// alloc splices one block at the head. Owner only.
//
// The release store on head.next publishes the new block's id and prev to
// thieves walking forward from tail.
func (ca *continuousArray) alloc() {
	nb := ca.getBlock()
	nb.id = ca.curr
	ca.curr++
	nb.prev.StoreRelaxed(blockWord(ca.head))
	nb.next.StoreRelaxed(0)
	ca.head.next.StoreRelease(blockWord(nb))
	ca.head = nb
}

// putHead stores val at the given logical index. Owner only.
//
// Crossing into a block that does not exist yet allocates it. The slot
// store is relaxed: visibility to thieves is provided by the deque's
// sequentially consistent publication of bot.
func (ca *continuousArray) putHead(index uint64, val uintptr) {
	want := index >> ca.sizeLog
	offset := index & ca.mask
	if offset == 0 {
		if ca.curr == want {
			ca.alloc()
		}
		if ca.blockInUse.id != want {
			ca.blockInUse = blockAt(ca.blockInUse.next.LoadRelaxed())
		}
	}
	if ca.blockInUse == nil || ca.blockInUse.id != want {
		panic("wsd: write outside the allocated block chain")
	}
	ca.blockInUse.slots[offset].StoreRelaxed(val)
}

// getHead reads the value at the given logical index. Owner only.
//
// The owner pops one index at a time, but the walk is generalized to any
// number of backward steps so the cursor never depends on that property.
func (ca *continuousArray) getHead(index uint64) uintptr {
	want := index >> ca.sizeLog
	offset := index & ca.mask
	for ca.blockInUse != nil && ca.blockInUse.id != want {
		ca.blockInUse = blockAt(ca.blockInUse.prev.LoadRelaxed())
	}
	if ca.blockInUse == nil {
		panic("wsd: read outside the allocated block chain")
	}
	return ca.blockInUse.slots[offset].LoadRelaxed()
}

// getTail reads the value at the given logical index. Thieves only.
//
// The walk starts at tail and follows next links while behind the desired
// block (the owner linked younger blocks since tail was last read), then
// prev links while ahead of it (a concurrent thief retired tail past the
// slot being read). The block found must match exactly.
//
// After the read, if the slot is the first of its block, the block is not
// the observed tail, and the observed tail lies immediately behind the
// desired block, the tail block can never be read again by a correct
// caller and is retired.
func (ca *continuousArray) getTail(index uint64) uintptr {
	want := index >> ca.sizeLog
	offset := index & ca.mask
	t := blockAt(ca.tail.LoadRelaxed())
	if t == nil {
		panic("wsd: tail is nil")
	}
	b := t
	for b != nil && b.id < want {
		b = blockAt(b.next.LoadAcquire())
	}
	for b != nil && b.id > want {
		b = blockAt(b.prev.LoadAcquire())
	}
	if b == nil || b.id != want {
		panic("wsd: stolen index not covered by the block chain")
	}
	val := b.slots[offset].LoadRelaxed()
	if offset == 0 && b != t && t.id == want-1 {
		ca.retireLastBlock()
	}
	return val
}

// retireLastBlock swings tail one block forward and pushes the old tail
// onto the retire stack. Thieves only.
//
// The CAS is idempotent across thieves: at most one succeeds in advancing
// each step. A loser that observes a tail at least as young as its
// candidate stops, because another thief has done at least as much.
func (ca *continuousArray) retireLastBlock() {
	old := blockAt(ca.tail.LoadRelaxed())
	if old == nil {
		panic("wsd: tail is nil")
	}
	nxt := blockAt(old.next.LoadAcquire())
	if nxt == nil {
		panic("wsd: retiring the youngest block")
	}
	for !ca.tail.CompareAndSwap(blockWord(old), blockWord(nxt)) {
		cur := blockAt(ca.tail.LoadRelaxed())
		if cur != nil && cur.id >= nxt.id {
			return
		}
	}
	sw := spin.Wait{}
	for {
		h := ca.toRetire.LoadRelaxed()
		old.prev.StoreRelaxed(h)
		if ca.toRetire.CompareAndSwapAcqRel(h, blockWord(old)) {
			return
		}
		sw.Once()
	}
}

// detachRetired takes the entire retire stack. Owner only.
func (ca *continuousArray) detachRetired() *block {
	sw := spin.Wait{}
	for {
		h := ca.toRetire.LoadRelaxed()
		if h == 0 {
			return nil
		}
		if ca.toRetire.CompareAndSwapAcqRel(h, 0) {
			return blockAt(h)
		}
		sw.Once()
	}
}

// reclaim moves every retired block onto the reuse stack and reports how
// many were moved. Owner only.
//
// The caller must have established that no thief still holds a pointer
// into any retired block; that proof belongs to an external quiescence or
// hazard scheme.
func (ca *continuousArray) reclaim() int {
	n := 0
	b := ca.detachRetired()
	for b != nil {
		next := blockAt(b.prev.LoadRelaxed())
		ca.pushReuse(b)
		b = next
		n++
	}
	return n
}

// tailBlockID reports the id of the block tail currently points at.
func (ca *continuousArray) tailBlockID() uint64 {
	t := blockAt(ca.tail.LoadRelaxed())
	if t == nil {
		panic("wsd: tail is nil")
	}
	return t.id
}
