// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package xsync

import (
	"sync"

	"github.com/fabricmock/fabricmock/internal/locker"
)

// List is a thread-safe, duplicate-free collection that remembers insertion
// order. Transactions use it to track the collections they touched, so that
// commit visits them in the order they were enlisted and abort in reverse.
type List[T comparable] struct {
	_    locker.NoCopy
	data []T
	mu   sync.RWMutex
}

// NewList creates an empty List.
func NewList[T comparable]() *List[T] {
	return &List[T]{data: make([]T, 0, 4)}
}

// Len returns the number of items.
func (x *List[T]) Len() int {
	x.mu.RLock()
	l := len(x.data)
	x.mu.RUnlock()
	return l
}

// Contains reports whether item is present.
func (x *List[T]) Contains(item T) bool {
	x.mu.RLock()
	found := x.indexOf(item) >= 0
	x.mu.RUnlock()
	return found
}

// Append adds item unless it is already present. It reports whether the
// item was added.
func (x *List[T]) Append(item T) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.indexOf(item) >= 0 {
		return false
	}
	x.data = append(x.data, item)
	return true
}

// Remove deletes item and reports whether it was present.
func (x *List[T]) Remove(item T) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	index := x.indexOf(item)
	if index < 0 {
		return false
	}
	copy(x.data[index:], x.data[index+1:])
	var zero T
	x.data[len(x.data)-1] = zero
	x.data = x.data[:len(x.data)-1]
	return true
}

// Items returns a copy of the items in insertion order.
func (x *List[T]) Items() []T {
	x.mu.RLock()
	out := make([]T, len(x.data))
	copy(out, x.data)
	x.mu.RUnlock()
	return out
}

// Reversed returns a copy of the items, most recently appended first.
func (x *List[T]) Reversed() []T {
	x.mu.RLock()
	out := make([]T, len(x.data))
	for i, item := range x.data {
		out[len(x.data)-1-i] = item
	}
	x.mu.RUnlock()
	return out
}

// Reset removes every item, keeping the backing array.
func (x *List[T]) Reset() {
	x.mu.Lock()
	clear(x.data)
	x.data = x.data[:0]
	x.mu.Unlock()
}

// indexOf returns the position of item or -1.
// Callers must hold at least a read lock.
func (x *List[T]) indexOf(item T) int {
	for i, v := range x.data {
		if v == item {
			return i
		}
	}
	return -1
}
