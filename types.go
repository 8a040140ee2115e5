// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import "unsafe"

// Owner is the interface to the bottom end of a deque carrying *T.
//
// Exactly one goroutine per deque may use this interface. The owner
// pushes and pops in LIFO order: PopBottom returns the most recently
// pushed element that has not been stolen.
//
// Example:
//
//	var d wsd.Owner[Task] = wsd.NewDeque[Task]()
//
//	d.PushBottom(&task)
//	next, err := d.PopBottom()
//	if wsd.IsWouldBlock(err) {
//	    // Nothing left - go steal from someone else
//	}
type Owner[T any] interface {
	// PushBottom adds an element to the bottom of the deque.
	// The error is always nil; the deque is unbounded.
	PushBottom(elem *T) error

	// PopBottom removes and returns the most recently pushed element.
	// Returns (nil, ErrWouldBlock) if the deque is empty.
	PopBottom() (*T, error)

	// FreeRetired reclaims blocks retired by stealers. Owner only;
	// see the package documentation for the reclamation contract.
	FreeRetired() int
}

// Stealer is the interface to the top end of a deque carrying *T.
//
// Any goroutine, the owner included, may use this interface. Stealers
// take the oldest elements first, so each individual stealer observes
// ascending push order.
//
// Example:
//
//	for {
//	    task, emptyAfter, err := d.PopTop()
//	    if err == nil {
//	        run(task)
//	    }
//	    if emptyAfter {
//	        break // deque drained - stop polling it
//	    }
//	}
type Stealer[T any] interface {
	// PopTop removes and returns an element from the top of the deque.
	// emptyAfter is true iff the deque is empty after this operation.
	// Returns ErrWouldBlock when there is nothing to take or another
	// pop won the race for the targeted element.
	PopTop() (elem *T, emptyAfter bool, err error)
}

// OwnerIndirect is the owner interface for uintptr deques.
type OwnerIndirect interface {
	// PushBottom adds a value to the bottom of the deque.
	// The error is always nil; the deque is unbounded.
	PushBottom(elem uintptr) error

	// PopBottom removes and returns the most recently pushed value.
	// Returns (0, ErrWouldBlock) if the deque is empty.
	PopBottom() (uintptr, error)

	// FreeRetired reclaims blocks retired by stealers.
	FreeRetired() int
}

// StealerIndirect is the stealer interface for uintptr deques.
type StealerIndirect interface {
	// PopTop removes and returns a value from the top of the deque.
	// emptyAfter is true iff the deque is empty after this operation.
	PopTop() (elem uintptr, emptyAfter bool, err error)
}

// OwnerPtr is the owner interface for unsafe.Pointer deques.
type OwnerPtr interface {
	// PushBottom adds a pointer to the bottom of the deque.
	// The error is always nil; the deque is unbounded.
	PushBottom(elem unsafe.Pointer) error

	// PopBottom removes and returns the most recently pushed pointer.
	// Returns (nil, ErrWouldBlock) if the deque is empty.
	PopBottom() (unsafe.Pointer, error)

	// FreeRetired reclaims blocks retired by stealers.
	FreeRetired() int
}

// StealerPtr is the stealer interface for unsafe.Pointer deques.
type StealerPtr interface {
	// PopTop removes and returns a pointer from the top of the deque.
	// emptyAfter is true iff the deque is empty after this operation.
	PopTop() (elem unsafe.Pointer, emptyAfter bool, err error)
}
