// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Deque is an unbounded work-stealing deque carrying *T elements.
//
// Same protocol as DequeIndirect; see that type for the algorithm notes.
//
// The element type is a pointer to the task record, never the record
// itself: a slot is a single word and the deque never copies or moves
// payloads. As with DequePtr, the deque stores the word without keeping
// the referent reachable on its own; keep task records alive in an owning
// structure until they are popped.
type Deque[T any] struct {
	_   pad
	bot atomix.Uint64 // owner's end: next push site
	_   pad
	top atomix.Uint64 // thieves' end: next steal site
	_   pad
	arr *continuousArray
}

// NewDeque creates a deque with the default block size.
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{arr: newContinuousArray(DefaultBlockSizeLog)}
}

// PushBottom adds an element to the bottom of the deque. Owner only.
// The returned error is always nil: the deque is unbounded.
func (d *Deque[T]) PushBottom(elem *T) error {
	b := d.bot.LoadRelaxed()
	d.arr.putHead(b, uintptr(unsafe.Pointer(elem)))
	d.bot.Store(b + 1)
	return nil
}

// PopTop removes an element from the top of the deque. Any goroutine, the
// owner included, may call this. emptyAfter is true iff the deque is empty
// after this operation, letting a thief stop polling.
func (d *Deque[T]) PopTop() (elem *T, emptyAfter bool, err error) {
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
		return (*T)(*(*unsafe.Pointer)(unsafe.Pointer(&v))), b == t+1, nil
	}
	return nil, b == t+1, ErrWouldBlock
}

// PopBottom removes the most recently pushed element. Owner only.
// Returns ErrWouldBlock iff the deque is empty from the owner's view.
func (d *Deque[T]) PopBottom() (*T, error) {
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
	return (*T)(*(*unsafe.Pointer)(unsafe.Pointer(&v))), nil
}

// FreeRetired moves blocks retired by thieves onto the owner's reuse
// stack and reports how many were moved. Owner only. See
// DequeIndirect.FreeRetired for the reclamation contract.
func (d *Deque[T]) FreeRetired() int {
	return d.arr.reclaim()
}
