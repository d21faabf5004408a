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
	"context"
	"time"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/eventstream"
	"github.com/fabricmock/fabricmock/internal/xsync"
	"github.com/fabricmock/fabricmock/lock"
)

// Dictionary is a transactional key/value store.
//
// Every operation runs on behalf of a transaction: it locks the key through
// the lock manager, touches the backing map while the lock is held and
// records how to undo the change on abort and how to publish it on commit.
// Isolation is per key. ClearAsync is the only operation that bypasses the
// locks and the journal.
type Dictionary[K comparable, V any] struct {
	name    string
	data    *xsync.Map[K, V]
	locks   *lock.Manager[K]
	journal *Journal
	changes *eventstream.Stream[DictionaryChange[K, V]]

	compare func(a, b K) int
	equal   func(a, b V) bool
}

var _ Participant = (*Dictionary[string, any])(nil)

// NewDictionary creates an empty Dictionary.
func NewDictionary[K comparable, V any](name string, opts ...Option) *Dictionary[K, V] {
	config := newOptions(opts...)
	d := &Dictionary[K, V]{
		name:    name,
		data:    xsync.NewMap[K, V](),
		locks:   lock.NewManager[K](),
		changes: eventstream.New[DictionaryChange[K, V]](),
		compare: keyComparer[K](config),
		equal:   valueEqual[V](config),
	}
	d.journal = NewJournal(d, d.locks.ReleaseLocks)
	return d
}

// Name returns the name of the dictionary.
func (d *Dictionary[K, V]) Name() string {
	return d.name
}

// AddChangeHandler registers handler for committed changes and returns a
// function that unregisters it. Handlers run on the committing goroutine.
func (d *Dictionary[K, V]) AddChangeHandler(handler ChangeHandler[K, V]) (unsubscribe func()) {
	return d.changes.Subscribe(handler)
}

// AddAsync adds key. It fails immediately with errors.ErrKeyAlreadyExists when
// the key is present, including when it was added earlier by the same
// uncommitted transaction.
func (d *Dictionary[K, V]) AddAsync(ctx context.Context, tx Transaction, key K, value V, timeout time.Duration) error {
	grant, err := d.lockKey(ctx, tx, key, lock.Update, timeout)
	if err != nil {
		return err
	}

	if d.data.Has(key) {
		grant.undo()
		return gerrors.NewErrKeyAlreadyExists(key)
	}

	d.insert(tx, key, value)
	return nil
}

// AddOrUpdateAsync adds key with addValue or replaces the current value with
// the result of update. It returns the stored value.
func (d *Dictionary[K, V]) AddOrUpdateAsync(ctx context.Context, tx Transaction, key K, addValue V, update func(key K, current V) V, timeout time.Duration) (V, error) {
	if _, err := d.lockKey(ctx, tx, key, lock.Update, timeout); err != nil {
		var zero V
		return zero, err
	}

	current, ok := d.data.Get(key)
	if !ok {
		d.insert(tx, key, addValue)
		return addValue, nil
	}

	value := update(key, current)
	d.replace(tx, key, current, value)
	return value, nil
}

// ContainsKeyAsync reports whether key is present, holding a lock of the
// given mode until the transaction ends.
func (d *Dictionary[K, V]) ContainsKeyAsync(ctx context.Context, tx Transaction, key K, mode lock.Mode, timeout time.Duration) (bool, error) {
	if _, err := d.lockKey(ctx, tx, key, mode, timeout); err != nil {
		return false, err
	}
	return d.data.Has(key), nil
}

// GetOrAddAsync returns the value of key, adding the value built by factory
// when the key is missing. When the key exists nothing is written and the
// lock is downgraded to Default.
func (d *Dictionary[K, V]) GetOrAddAsync(ctx context.Context, tx Transaction, key K, factory func(key K) V, timeout time.Duration) (V, error) {
	grant, err := d.lockKey(ctx, tx, key, lock.Update, timeout)
	if err != nil {
		var zero V
		return zero, err
	}

	if current, ok := d.data.Get(key); ok {
		grant.downgrade()
		return current, nil
	}

	value := factory(key)
	d.insert(tx, key, value)
	return value, nil
}

// SetAsync stores value under key whether or not the key exists.
func (d *Dictionary[K, V]) SetAsync(ctx context.Context, tx Transaction, key K, value V, timeout time.Duration) error {
	if _, err := d.lockKey(ctx, tx, key, lock.Update, timeout); err != nil {
		return err
	}

	if current, ok := d.data.Get(key); ok {
		d.replace(tx, key, current, value)
		return nil
	}

	d.insert(tx, key, value)
	return nil
}

// TryAddAsync adds key when it is missing and reports whether it did.
func (d *Dictionary[K, V]) TryAddAsync(ctx context.Context, tx Transaction, key K, value V, timeout time.Duration) (bool, error) {
	grant, err := d.lockKey(ctx, tx, key, lock.Update, timeout)
	if err != nil {
		return false, err
	}

	if d.data.Has(key) {
		grant.undo()
		return false, nil
	}

	d.insert(tx, key, value)
	return true, nil
}

// TryGetValueAsync returns the value of key, holding a lock of the given mode
// until the transaction ends. A missing key is not an error.
func (d *Dictionary[K, V]) TryGetValueAsync(ctx context.Context, tx Transaction, key K, mode lock.Mode, timeout time.Duration) (ConditionalValue[V], error) {
	if _, err := d.lockKey(ctx, tx, key, mode, timeout); err != nil {
		return None[V](), err
	}

	if value, ok := d.data.Get(key); ok {
		return Some(value), nil
	}
	return None[V](), nil
}

// TryRemoveAsync removes key and returns the value it held.
func (d *Dictionary[K, V]) TryRemoveAsync(ctx context.Context, tx Transaction, key K, timeout time.Duration) (ConditionalValue[V], error) {
	grant, err := d.lockKey(ctx, tx, key, lock.Update, timeout)
	if err != nil {
		return None[V](), err
	}

	value, ok := d.data.Delete(key)
	if !ok {
		grant.undo()
		return None[V](), nil
	}

	d.journal.Record(tx,
		func() { d.data.Set(key, value) },
		func() { d.changes.Publish(&ItemRemoved[K, V]{Tx: tx, Key: key, Value: value}) })
	return Some(value), nil
}

// TryUpdateAsync replaces the value of key with newValue when the current
// value equals comparisonValue, and reports whether it did.
func (d *Dictionary[K, V]) TryUpdateAsync(ctx context.Context, tx Transaction, key K, newValue, comparisonValue V, timeout time.Duration) (bool, error) {
	grant, err := d.lockKey(ctx, tx, key, lock.Update, timeout)
	if err != nil {
		return false, err
	}

	current, ok := d.data.Get(key)
	if !ok || !d.equal(current, comparisonValue) {
		grant.undo()
		return false, nil
	}

	d.replace(tx, key, current, newValue)
	return true, nil
}

// ClearAsync removes every key immediately. It takes no lock and cannot be
// undone by aborting a transaction.
func (d *Dictionary[K, V]) ClearAsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.data.Reset()
	return nil
}

// GetCountAsync returns the number of keys.
func (d *Dictionary[K, V]) GetCountAsync(ctx context.Context, tx Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := d.journal.Begin(tx); err != nil {
		return 0, err
	}
	return int64(d.data.Len()), nil
}

// Count returns the number of keys outside of any transaction.
func (d *Dictionary[K, V]) Count() int64 {
	return int64(d.data.Len())
}

// Snapshot returns a copy of the current content, including changes of
// transactions that are still running.
func (d *Dictionary[K, V]) Snapshot() map[K]V {
	snapshot := make(map[K]V, d.data.Len())
	d.data.Range(func(k K, v V) {
		snapshot[k] = v
	})
	return snapshot
}

// Restore replaces the whole content with entries. It bypasses locks and is
// meant for restoring backups while no transaction runs.
func (d *Dictionary[K, V]) Restore(entries map[K]V) {
	d.data.Replace(entries)
}

// CommitTransaction publishes the changes of tx and releases its locks.
func (d *Dictionary[K, V]) CommitTransaction(tx Transaction) {
	d.journal.Commit(tx)
}

// AbortTransaction undoes the changes of tx and releases its locks.
func (d *Dictionary[K, V]) AbortTransaction(tx Transaction) {
	d.journal.Abort(tx)
}

// LockManager exposes the lock manager of the dictionary.
func (d *Dictionary[K, V]) LockManager() *lock.Manager[K] {
	return d.locks
}

func (d *Dictionary[K, V]) insert(tx Transaction, key K, value V) {
	d.data.Set(key, value)
	d.journal.Record(tx,
		func() { d.data.Delete(key) },
		func() { d.changes.Publish(&ItemAdded[K, V]{Tx: tx, Key: key, Value: value}) })
}

func (d *Dictionary[K, V]) replace(tx Transaction, key K, current, value V) {
	d.data.Set(key, value)
	d.journal.Record(tx,
		func() { d.data.Set(key, current) },
		func() { d.changes.Publish(&ItemUpdated[K, V]{Tx: tx, Key: key, OldValue: current, NewValue: value}) })
}

// lockKey enlists the dictionary in tx and locks key on its behalf.
func (d *Dictionary[K, V]) lockKey(ctx context.Context, tx Transaction, key K, mode lock.Mode, timeout time.Duration) (*grant[K], error) {
	if err := d.journal.Begin(tx); err != nil {
		return nil, err
	}

	transactionID := tx.TransactionID()
	return acquire(ctx, d.locks, transactionID, key, mode, timeout)
}

// grant describes how a lock was obtained so that an operation which ends
// up writing nothing can give it back.
type grant[K comparable] struct {
	locks         *lock.Manager[K]
	transactionID int64
	key           K
	result        lock.AcquireResult
	upgraded      bool
}

func acquire[K comparable](ctx context.Context, locks *lock.Manager[K], transactionID int64, key K, mode lock.Mode, timeout time.Duration) (*grant[K], error) {
	held := false
	if lk, ok := locks.Lock(key); ok && lk.IsOwner(transactionID) {
		held = lk.Mode() == lock.Default
	}

	result, err := locks.AcquireLock(ctx, transactionID, key, mode, timeout)
	if err != nil {
		return nil, err
	}

	return &grant[K]{
		locks:         locks,
		transactionID: transactionID,
		key:           key,
		result:        result,
		upgraded:      held && mode == lock.Update && result == lock.Owned,
	}, nil
}

// undo releases a lock taken by this call, or reverts an upgrade.
func (g *grant[K]) undo() {
	switch {
	case g.result == lock.Acquired:
		g.locks.ReleaseLock(g.transactionID, g.key)
	case g.upgraded:
		g.locks.DowngradeLock(g.transactionID, g.key)
	}
}

// downgrade keeps the lock but drops an Update obtained by this call.
func (g *grant[K]) downgrade() {
	if g.result == lock.Acquired || g.upgraded {
		g.locks.DowngradeLock(g.transactionID, g.key)
	}
}
