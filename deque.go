// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import "code.hybscloud.com/atomix"

// DequeIndirect is an unbounded work-stealing deque for uintptr values.
//
// The owning goroutine pushes and pops at the bottom in LIFO order;
// any other goroutine steals from the top in FIFO order. Storage is a
// continuous array of linked fixed-size blocks, so pushes never fail
// and never move existing elements.
//
// Based on the ABP protocol as formulated for weak memory models by
// Lê, Pop, Cohen and Zappa Nardelli, with block-chain storage in the
// spirit of the dynamic-sized deque of Hendler, Lev, Moir and Shavit.
//
// bot and top are monotonic: bot is one past the bottom-most occupied
// slot, top is the top-most un-stolen slot. top <= bot+1 at every
// consistent observation; bot == top means empty.
//
// Use DequeIndirect for pool indices and handles.
type DequeIndirect struct {
	_   pad
	bot atomix.Uint64 // owner's end: next push site
	_   pad
	top atomix.Uint64 // thieves' end: next steal site
	_   pad
	arr *continuousArray
}

// NewDequeIndirect creates an indirect deque with the default block size.
func NewDequeIndirect() *DequeIndirect {
	return &DequeIndirect{arr: newContinuousArray(DefaultBlockSizeLog)}
}

// PushBottom adds a value to the bottom of the deque. Owner only.
//
// The returned error is always nil: the deque is unbounded. The signature
// mirrors PopBottom for call-site symmetry.
//
// The sequentially consistent store of bot is the synchronization point
// with thieves: it orders the slot write before the count a thief's
// PopTop load of bot can observe.
func (d *DequeIndirect) PushBottom(elem uintptr) error {
	b := d.bot.LoadRelaxed()
	d.arr.putHead(b, elem)
	d.bot.Store(b + 1)
	return nil
}

// PopTop removes a value from the top of the deque. Any goroutine, the
// owner included, may call this.
//
// emptyAfter is true iff the deque is empty after this operation, letting
// a thief stop polling. A failed race against another thief or the owner
// returns ErrWouldBlock without a value; the element went to the winner.
func (d *DequeIndirect) PopTop() (elem uintptr, emptyAfter bool, err error) {
	t := d.top.Load()
	b := d.bot.Load()
	if b+1 < t {
		panic("wsd: top outran bottom")
	}
	if b <= t {
		return 0, true, ErrWouldBlock
	}
	if d.top.CompareAndSwap(t, t+1) {
		return d.arr.getTail(t), b == t+1, nil
	}
	return 0, b == t+1, ErrWouldBlock
}

// PopBottom removes the most recently pushed value. Owner only.
//
// Returns ErrWouldBlock iff the deque is empty from the owner's view.
// When exactly one element remains the owner races thieves with a CAS on
// top; whoever wins takes the element. bot is re-published afterwards in
// either case to restore bot >= top.
func (d *DequeIndirect) PopBottom() (uintptr, error) {
	b := d.bot.LoadRelaxed()
	if b == 0 {
		return 0, ErrWouldBlock
	}
	b--
	d.bot.Store(b)
	t := d.top.Load()
	if t > b {
		d.bot.StoreRelaxed(b + 1)
		return 0, ErrWouldBlock
	}
	val := d.arr.getHead(b)
	if t == b {
		won := d.top.CompareAndSwap(t, t+1)
		d.bot.StoreRelaxed(b + 1)
		if !won {
			return 0, ErrWouldBlock
		}
	}
	return val, nil
}

// FreeRetired moves blocks retired by thieves onto the owner's reuse
// stack and reports how many were moved. Owner only.
//
// Call only when no thief still holds a pointer into a retired block;
// proving that is the job of an external quiescence, epoch, or hazard
// pointer scheme.
func (d *DequeIndirect) FreeRetired() int {
	return d.arr.reclaim()
}
