// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import "unsafe"

// DefaultBlockSizeLog is the default log2 of the number of slots per
// block: 16384 slots, one word each.
const DefaultBlockSizeLog = 14

// Options configures deque creation.
type Options struct {
	// Slots per block as a power of 2
	blockSizeLog uint
}

// Builder creates deques with fluent configuration.
//
// Example:
//
//	// Default block size (16384 slots)
//	d := wsd.Build[Task](wsd.New())
//
//	// Small blocks, e.g. to exercise block turnover
//	d := wsd.New().BlockSizeLog(4).BuildIndirect()
type Builder struct {
	opts Options
}

// New creates a deque builder with the default block size.
func New() *Builder {
	return &Builder{opts: Options{blockSizeLog: DefaultBlockSizeLog}}
}

// BlockSizeLog sets the log2 of the number of slots per block.
//
// Smaller blocks turn over faster through retirement and reuse; larger
// blocks amortize allocation over more pushes. Panics unless
// 1 <= k <= 24.
func (b *Builder) BlockSizeLog(k uint) *Builder {
	if k < 1 || k > 24 {
		panic("wsd: block size log must be in [1, 24]")
	}
	b.opts.blockSizeLog = k
	return b
}

// Build creates a Deque[T] carrying *T elements.
func Build[T any](b *Builder) *Deque[T] {
	return &Deque[T]{arr: newContinuousArray(b.opts.blockSizeLog)}
}

// BuildIndirect creates a deque for uintptr values (indices, handles).
func (b *Builder) BuildIndirect() *DequeIndirect {
	return &DequeIndirect{arr: newContinuousArray(b.opts.blockSizeLog)}
}

// BuildPtr creates a deque for unsafe.Pointer values.
func (b *Builder) BuildPtr() *DequePtr {
	return &DequePtr{arr: newContinuousArray(b.opts.blockSizeLog)}
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
