// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wsd_test

import (
	"testing"

	"github.com/gammazero/deque"
	"pgregory.net/rapid"

	"code.hybscloud.com/wsd"
)

// TestDequeModel checks the deque against a sequential double-ended queue
// model over random operation sequences. Single-goroutine runs are fully
// deterministic: the thief protocol never loses a race, so PushBottom,
// PopBottom and PopTop must agree exactly with PushBack, PopBack and
// PopFront on the model.
func TestDequeModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blockSizeLog := rapid.UintRange(1, 6).Draw(t, "blockSizeLog")
		d := wsd.New().BlockSizeLog(blockSizeLog).BuildIndirect()
		var model deque.Deque[uintptr]

		next := uintptr(1)
		ops := rapid.IntRange(1, 500).Draw(t, "ops")
		for range ops {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0: // PushBottom
				if err := d.PushBottom(next); err != nil {
					t.Fatalf("PushBottom(%d): %v", next, err)
				}
				model.PushBack(next)
				next++
			case 1: // PopBottom
				v, err := d.PopBottom()
				if model.Len() == 0 {
					if !wsd.IsWouldBlock(err) {
						t.Fatalf("PopBottom on empty: got (%d, %v)", v, err)
					}
					continue
				}
				want := model.PopBack()
				if err != nil {
					t.Fatalf("PopBottom: %v, want %d", err, want)
				}
				if v != want {
					t.Fatalf("PopBottom: got %d, want %d", v, want)
				}
			case 2: // PopTop
				v, emptyAfter, err := d.PopTop()
				if model.Len() == 0 {
					if !wsd.IsWouldBlock(err) || !emptyAfter {
						t.Fatalf("PopTop on empty: got (%d, %v, %v)", v, emptyAfter, err)
					}
					continue
				}
				want := model.PopFront()
				if err != nil {
					t.Fatalf("PopTop: %v, want %d", err, want)
				}
				if v != want {
					t.Fatalf("PopTop: got %d, want %d", v, want)
				}
				if emptyAfter != (model.Len() == 0) {
					t.Fatalf("PopTop: emptyAfter = %v with %d left", emptyAfter, model.Len())
				}
			}
		}

		// Drain and compare the leftovers from the bottom
		for model.Len() > 0 {
			want := model.PopBack()
			v, err := d.PopBottom()
			if err != nil {
				t.Fatalf("drain PopBottom: %v, want %d", err, want)
			}
			if v != want {
				t.Fatalf("drain PopBottom: got %d, want %d", v, want)
			}
		}
		if _, err := d.PopBottom(); !wsd.IsWouldBlock(err) {
			t.Fatalf("PopBottom after drain: got %v, want ErrWouldBlock", err)
		}
	})
}
