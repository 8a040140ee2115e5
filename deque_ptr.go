// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// DequePtr is an unbounded work-stealing deque for unsafe.Pointer values.
//
// Same protocol as DequeIndirect; see that type for the algorithm notes.
//
// Ownership semantics: PushBottom transfers the element to whichever pop
// eventually returns it. The deque stores the pointer as a raw word and
// does not keep the referent reachable on its own; keep task records alive
// in an owning structure (an arena, a pool, a result buffer) until they
// are popped.
type DequePtr struct {
	_   pad
	bot atomix.Uint64 // owner's end: next push site
	_   pad
	top atomix.Uint64 // thieves' end: next steal site
	_   pad
	arr *continuousArray
}

// NewDequePtr creates a pointer deque with the default block size.
func NewDequePtr() *DequePtr {
	return &DequePtr{arr: newContinuousArray(DefaultBlockSizeLog)}
}

// PushBottom adds a pointer to the bottom of the deque. Owner only.
// The returned error is always nil: the deque is unbounded.
func (d *DequePtr) PushBottom(elem unsafe.Pointer) error {
	b := d.bot.LoadRelaxed()
	d.arr.putHead(b, uintptr(elem))
	d.bot.Store(b + 1)
	return nil
}

// PopTop removes a pointer from the top of the deque. Any goroutine, the
// owner included, may call this. emptyAfter is true iff the deque is empty
// after this operation.
func (d *DequePtr) PopTop() (elem unsafe.Pointer, emptyAfter bool, err error) {
	t := d.top.Load()
	b := d.bot.Load()
	if b+1 < t {
		panic("wsd: top outran bottom")
	}
	if b <= t {
		return nil, true, ErrWouldBlock
	}
	if d.top.CompareAndSwap(t, t+1) {
		v := d.arr.getTail(t)
		return *(*unsafe.Pointer)(unsafe.Pointer(&v)), b == t+1, nil
	}
	return nil, b == t+1, ErrWouldBlock
}

// PopBottom removes the most recently pushed pointer. Owner only.
// Returns ErrWouldBlock iff the deque is empty from the owner's view.
func (d *DequePtr) PopBottom() (unsafe.Pointer, error) {
	b := d.bot.LoadRelaxed()
	if b == 0 {
		return nil, ErrWouldBlock
	}
	b--
	d.bot.Store(b)
	t := d.top.Load()
	if t > b {
		d.bot.StoreRelaxed(b + 1)
		return nil, ErrWouldBlock
	}
	v := d.arr.getHead(b)
	if t == b {
		won := d.top.CompareAndSwap(t, t+1)
		d.bot.StoreRelaxed(b + 1)
		if !won {
			return nil, ErrWouldBlock
		}
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&v)), nil
}

// FreeRetired moves blocks retired by thieves onto the owner's reuse
// stack and reports how many were moved. Owner only. See
// DequeIndirect.FreeRetired for the reclamation contract.
func (d *DequePtr) FreeRetired() int {
	return d.arr.reclaim()
}
