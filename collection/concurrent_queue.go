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

package collection

import (
	"container/list"
	"context"
	"sync"
)

// ConcurrentQueue is a queue without isolation: it takes no locks, so
// concurrent transactions never wait on each other and ordering across
// transactions is best effort. Enqueued items become visible when the
// enqueuing transaction commits. A dequeue is visible at once and is undone by
// putting the item back at the head when its transaction aborts.
type ConcurrentQueue[T any] struct {
	name    string
	journal *Journal

	mu    sync.Mutex
	items *list.List
}

var _ Participant = (*ConcurrentQueue[any])(nil)

// NewConcurrentQueue creates an empty ConcurrentQueue.
func NewConcurrentQueue[T any](name string) *ConcurrentQueue[T] {
	q := &ConcurrentQueue[T]{
		name:  name,
		items: list.New(),
	}
	q.journal = NewJournal(q, func(int64) {})
	return q
}

// Name returns the name of the queue.
func (q *ConcurrentQueue[T]) Name() string {
	return q.name
}

// EnqueueAsync appends item once tx commits.
func (q *ConcurrentQueue[T]) EnqueueAsync(ctx context.Context, tx Transaction, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.journal.Begin(tx); err != nil {
		return err
	}

	q.journal.Record(tx, nil, func() {
		q.mu.Lock()
		q.items.PushBack(&node[T]{value: item})
		q.mu.Unlock()
	})
	return nil
}

// TryDequeueAsync removes the item at the head of the queue.
func (q *ConcurrentQueue[T]) TryDequeueAsync(ctx context.Context, tx Transaction) (ConditionalValue[T], error) {
	if err := ctx.Err(); err != nil {
		return None[T](), err
	}
	if err := q.journal.Begin(tx); err != nil {
		return None[T](), err
	}

	q.mu.Lock()
	front := q.items.Front()
	if front == nil {
		q.mu.Unlock()
		return None[T](), nil
	}
	n := q.items.Remove(front).(*node[T])
	q.mu.Unlock()

	q.journal.Record(tx, func() {
		q.mu.Lock()
		q.items.PushFront(n)
		q.mu.Unlock()
	}, nil)
	return Some(n.value), nil
}

// Count returns the number of committed items not yet dequeued.
func (q *ConcurrentQueue[T]) Count() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(q.items.Len())
}

// Snapshot returns the visible items from head to tail.
func (q *ConcurrentQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(*node[T]).value)
	}
	return items
}

// Restore replaces the content with items.
func (q *ConcurrentQueue[T]) Restore(items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
	for _, item := range items {
		q.items.PushBack(&node[T]{value: item})
	}
}

// CommitTransaction makes the enqueues of tx visible.
func (q *ConcurrentQueue[T]) CommitTransaction(tx Transaction) {
	q.journal.Commit(tx)
}

// AbortTransaction puts the items dequeued by tx back at the head.
func (q *ConcurrentQueue[T]) AbortTransaction(tx Transaction) {
	q.journal.Abort(tx)
}
