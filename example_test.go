// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that exercise the deque from multiple
// goroutines. These trigger false positives with Go's race detector
// because the protocol's synchronization runs through atomic memory
// orderings the detector cannot observe. The examples are correct;
// they're excluded from race testing.

package wsd_test

import (
	"fmt"
	"slices"
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/wsd"
)

// ExampleNewDeque demonstrates the owner's LIFO view of its own deque.
func ExampleNewDeque() {
	type task struct{ id int }

	d := wsd.NewDeque[task]()

	tasks := make([]task, 3)
	for i := range tasks {
		tasks[i] = task{id: i + 1}
		d.PushBottom(&tasks[i])
	}

	// The owner works newest-first
	for {
		next, err := d.PopBottom()
		if err != nil {
			break
		}
		fmt.Println(next.id)
	}

	// Output:
	// 3
	// 2
	// 1
}

// ExampleDequeIndirect_PopTop demonstrates a stealer draining a victim's
// deque oldest-first, stopping when the deque reports empty.
func ExampleDequeIndirect_PopTop() {
	victim := wsd.NewDequeIndirect()
	for i := 1; i <= 4; i++ {
		victim.PushBottom(uintptr(i * 10))
	}

	var stolen []uintptr
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for {
			v, emptyAfter, err := victim.PopTop()
			if err == nil {
				backoff.Reset()
				stolen = append(stolen, v)
			}
			if emptyAfter {
				return
			}
			backoff.Wait()
		}
	}()
	wg.Wait()

	fmt.Println(stolen)
	// Output:
	// [10 20 30 40]
}

// ExampleNewPoolAllocator demonstrates recycling task records through
// fixed-size buckets.
func ExampleNewPoolAllocator() {
	pool := wsd.NewPoolAllocator([]int{64, 256, 1024})

	buf := pool.Allocate(200) // served from the 256-byte bucket
	fmt.Println(len(buf), cap(buf))

	pool.Deallocate(buf)
	used, _ := pool.Stats()
	fmt.Println(used)

	// Output:
	// 200 256
	// 0
}

// Example_workStealing wires one owner and three stealers over a shared
// deque, the shape of a task scheduler's dispatch loop.
func Example_workStealing() {
	d := wsd.New().BlockSizeLog(4).BuildIndirect()

	const n = 1000
	for i := 1; i <= n; i++ {
		d.PushBottom(uintptr(i))
	}

	results := make([][]uintptr, 4)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for tid := range 4 {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			<-start
			if tid == 0 { // owner drains newest-first
				for {
					v, err := d.PopBottom()
					if err != nil {
						return
					}
					results[tid] = append(results[tid], v)
				}
			}
			for { // stealers drain oldest-first
				v, emptyAfter, err := d.PopTop()
				if err == nil {
					results[tid] = append(results[tid], v)
				}
				if emptyAfter {
					return
				}
			}
		}(tid)
	}
	close(start)
	wg.Wait()

	var all []uintptr
	for _, r := range results {
		all = append(all, r...)
	}
	slices.Sort(all)
	unique := len(slices.Compact(all))
	fmt.Println(len(all), unique)
	// Output:
	// 1000 1000
}
