// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates the operation found nothing to take.
//
// For PopBottom: the deque is empty from the owner's view.
// For PopTop: the deque is empty, or another pop won the race for the
// element this thief targeted.
//
// ErrWouldBlock is a control flow signal, not a failure. A thief should
// consult the emptyAfter result of PopTop to decide whether to keep
// polling; contention losses simply mean the element went elsewhere.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or ErrWouldBlock.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
