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
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/fabricmock/fabricmock/lock"
)

// node is a queued item. The same node is put back when a dequeue is
// aborted, which lets an aborted enqueue find it wherever it ended up.
type node[T any] struct {
	value T
}

// Queue is a transactional FIFO queue.
//
// The whole queue is guarded by a single lock: a transaction that enqueues or
// dequeues holds it in Update mode until it ends. Aborting a dequeue puts the
// item back at the front and aborting an enqueue removes exactly the item
// that was enqueued.
type Queue[T any] struct {
	name    string
	locks   *lock.Manager[string]
	journal *Journal

	mu    sync.Mutex
	items *list.List
}

var _ Participant = (*Queue[any])(nil)

// NewQueue creates an empty Queue.
func NewQueue[T any](name string) *Queue[T] {
	q := &Queue[T]{
		name:  name,
		locks: lock.NewManager[string](),
		items: list.New(),
	}
	q.journal = NewJournal(q, q.locks.ReleaseLocks)
	return q
}

// Name returns the name of the queue.
func (q *Queue[T]) Name() string {
	return q.name
}

// EnqueueAsync appends item to the tail of the queue.
func (q *Queue[T]) EnqueueAsync(ctx context.Context, tx Transaction, item T, timeout time.Duration) error {
	if _, err := q.lock(ctx, tx, lock.Update, timeout); err != nil {
		return err
	}

	n := &node[T]{value: item}
	q.mu.Lock()
	q.items.PushBack(n)
	q.mu.Unlock()

	q.journal.Record(tx, func() { q.remove(n) }, nil)
	return nil
}

// TryDequeueAsync removes the item at the head of the queue.
func (q *Queue[T]) TryDequeueAsync(ctx context.Context, tx Transaction, timeout time.Duration) (ConditionalValue[T], error) {
	g, err := q.lock(ctx, tx, lock.Update, timeout)
	if err != nil {
		return None[T](), err
	}

	q.mu.Lock()
	front := q.items.Front()
	if front == nil {
		q.mu.Unlock()
		g.undo()
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

// TryPeekAsync returns the item at the head of the queue without removing it.
func (q *Queue[T]) TryPeekAsync(ctx context.Context, tx Transaction, mode lock.Mode, timeout time.Duration) (ConditionalValue[T], error) {
	if _, err := q.lock(ctx, tx, mode, timeout); err != nil {
		return None[T](), err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if front := q.items.Front(); front != nil {
		return Some(front.Value.(*node[T]).value), nil
	}
	return None[T](), nil
}

// GetCountAsync returns the number of queued items.
func (q *Queue[T]) GetCountAsync(ctx context.Context, tx Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := q.journal.Begin(tx); err != nil {
		return 0, err
	}
	return q.Count(), nil
}

// Count returns the number of queued items outside of any transaction.
func (q *Queue[T]) Count() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(q.items.Len())
}

// ClearAsync removes every item immediately. It takes no lock and cannot be
// undone by aborting a transaction.
func (q *Queue[T]) ClearAsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	q.items.Init()
	q.mu.Unlock()
	return nil
}

// CreateEnumerableAsync takes a Default lock on the queue and returns its
// items from head to tail.
func (q *Queue[T]) CreateEnumerableAsync(ctx context.Context, tx Transaction, timeout time.Duration) (iter.Seq[T], error) {
	if _, err := q.lock(ctx, tx, lock.Default, timeout); err != nil {
		return nil, err
	}
	return slices.Values(q.Snapshot()), nil
}

// Snapshot returns the queued items from head to tail.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(*node[T]).value)
	}
	return items
}

// Restore replaces the content with items. It bypasses locks and is meant
// for restoring backups while no transaction runs.
func (q *Queue[T]) Restore(items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
	for _, item := range items {
		q.items.PushBack(&node[T]{value: item})
	}
}

// CommitTransaction releases the queue lock held by tx.
func (q *Queue[T]) CommitTransaction(tx Transaction) {
	q.journal.Commit(tx)
}

// AbortTransaction undoes the enqueues and dequeues of tx and releases the queue lock.
func (q *Queue[T]) AbortTransaction(tx Transaction) {
	q.journal.Abort(tx)
}

func (q *Queue[T]) lock(ctx context.Context, tx Transaction, mode lock.Mode, timeout time.Duration) (*grant[string], error) {
	if err := q.journal.Begin(tx); err != nil {
		return nil, err
	}
	return acquire(ctx, q.locks, tx.TransactionID(), q.name, mode, timeout)
}

func (q *Queue[T]) remove(n *node[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for e := q.items.Front(); e != nil; e = e.Next() {
		if e.Value.(*node[T]) == n {
			q.items.Remove(e)
			return
		}
	}
}
