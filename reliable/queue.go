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

package reliable

import (
	"context"
	"iter"
	"time"

	"github.com/fabricmock/fabricmock/collection"
	"github.com/fabricmock/fabricmock/lock"
)

// Queue is a reliable FIFO queue registered in a StateManager.
type Queue[T any] struct {
	name    string
	inner   *collection.Queue[T]
	timeout time.Duration
	items   Serializer[T]
}

var _ store = (*Queue[any])(nil)

func newQueue[T any](manager *StateManager, name string, config *collectionConfig) (*Queue[T], error) {
	items, err := serializerFor[T](manager, config.valueSerializer)
	if err != nil {
		return nil, err
	}

	return &Queue[T]{
		name:    name,
		inner:   collection.NewQueue[T](name),
		timeout: manager.lockTimeout,
		items:   items,
	}, nil
}

// Name returns the name of the queue.
func (q *Queue[T]) Name() string {
	return q.name
}

// Kind returns QueueKind.
func (q *Queue[T]) Kind() Kind {
	return QueueKind
}

// Transacted returns the underlying transacted queue.
func (q *Queue[T]) Transacted() *collection.Queue[T] {
	return q.inner
}

// EnqueueAsync appends item to the tail of the queue.
func (q *Queue[T]) EnqueueAsync(ctx context.Context, tx *Transaction, item T) error {
	return q.inner.EnqueueAsync(ctx, participantOf(tx), item, q.timeout)
}

// TryDequeueAsync removes the item at the head of the queue.
func (q *Queue[T]) TryDequeueAsync(ctx context.Context, tx *Transaction) (ConditionalValue[T], error) {
	return q.inner.TryDequeueAsync(ctx, participantOf(tx), q.timeout)
}

// TryPeekAsync returns the item at the head of the queue.
func (q *Queue[T]) TryPeekAsync(ctx context.Context, tx *Transaction, mode lock.Mode) (ConditionalValue[T], error) {
	return q.inner.TryPeekAsync(ctx, participantOf(tx), mode, q.timeout)
}

// GetCountAsync returns the number of queued items.
func (q *Queue[T]) GetCountAsync(ctx context.Context, tx *Transaction) (int64, error) {
	return q.inner.GetCountAsync(ctx, participantOf(tx))
}

// ClearAsync removes every item at once, outside of any transaction.
func (q *Queue[T]) ClearAsync(ctx context.Context) error {
	return q.inner.ClearAsync(ctx)
}

// CreateEnumerableAsync returns the items from head to tail.
func (q *Queue[T]) CreateEnumerableAsync(ctx context.Context, tx *Transaction) (iter.Seq[T], error) {
	return q.inner.CreateEnumerableAsync(ctx, participantOf(tx), q.timeout)
}

// Count returns the number of queued items outside of any transaction.
func (q *Queue[T]) Count() int64 {
	return q.inner.Count()
}

func (q *Queue[T]) export() ([]record, error) {
	return exportItems(q.inner.Snapshot(), q.items)
}

func (q *Queue[T]) decode(records []record) (func(), error) {
	items, err := loadItems(records, q.items)
	if err != nil {
		return nil, err
	}
	return func() { q.inner.Restore(items) }, nil
}

// ConcurrentQueue is a reliable queue without isolation registered in a StateManager.
type ConcurrentQueue[T any] struct {
	name  string
	inner *collection.ConcurrentQueue[T]
	items Serializer[T]
}

var _ store = (*ConcurrentQueue[any])(nil)

func newConcurrentQueue[T any](manager *StateManager, name string, config *collectionConfig) (*ConcurrentQueue[T], error) {
	items, err := serializerFor[T](manager, config.valueSerializer)
	if err != nil {
		return nil, err
	}

	return &ConcurrentQueue[T]{
		name:  name,
		inner: collection.NewConcurrentQueue[T](name),
		items: items,
	}, nil
}

// Name returns the name of the queue.
func (q *ConcurrentQueue[T]) Name() string {
	return q.name
}

// Kind returns ConcurrentQueueKind.
func (q *ConcurrentQueue[T]) Kind() Kind {
	return ConcurrentQueueKind
}

// EnqueueAsync appends item once tx commits.
func (q *ConcurrentQueue[T]) EnqueueAsync(ctx context.Context, tx *Transaction, item T) error {
	return q.inner.EnqueueAsync(ctx, participantOf(tx), item)
}

// TryDequeueAsync removes the item at the head of the queue.
func (q *ConcurrentQueue[T]) TryDequeueAsync(ctx context.Context, tx *Transaction) (ConditionalValue[T], error) {
	return q.inner.TryDequeueAsync(ctx, participantOf(tx))
}

// Count returns the number of committed items not yet dequeued.
func (q *ConcurrentQueue[T]) Count() int64 {
	return q.inner.Count()
}

func (q *ConcurrentQueue[T]) export() ([]record, error) {
	return exportItems(q.inner.Snapshot(), q.items)
}

func (q *ConcurrentQueue[T]) decode(records []record) (func(), error) {
	items, err := loadItems(records, q.items)
	if err != nil {
		return nil, err
	}
	return func() { q.inner.Restore(items) }, nil
}

func exportItems[T any](items []T, serializer Serializer[T]) ([]record, error) {
	records := make([]record, 0, len(items))
	for _, item := range items {
		value, err := serializer.Marshal(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record{Value: value})
	}
	return records, nil
}

func loadItems[T any](records []record, serializer Serializer[T]) ([]T, error) {
	items := make([]T, 0, len(records))
	for _, r := range records {
		item, err := serializer.Unmarshal(r.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
