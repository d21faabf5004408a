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

// Dictionary is a reliable dictionary registered in a StateManager.
// Operations use the lock timeout of the state manager.
type Dictionary[K comparable, V any] struct {
	name    string
	inner   *collection.Dictionary[K, V]
	timeout time.Duration
	keys    Serializer[K]
	values  Serializer[V]
}

var _ store = (*Dictionary[string, any])(nil)

func newDictionary[K comparable, V any](manager *StateManager, name string, config *collectionConfig) (*Dictionary[K, V], error) {
	keys, err := serializerFor[K](manager, config.keySerializer)
	if err != nil {
		return nil, err
	}

	values, err := serializerFor[V](manager, config.valueSerializer)
	if err != nil {
		return nil, err
	}

	return &Dictionary[K, V]{
		name:    name,
		inner:   collection.NewDictionary[K, V](name, config.options...),
		timeout: manager.lockTimeout,
		keys:    keys,
		values:  values,
	}, nil
}

// Name returns the name of the dictionary.
func (d *Dictionary[K, V]) Name() string {
	return d.name
}

// Kind returns DictionaryKind.
func (d *Dictionary[K, V]) Kind() Kind {
	return DictionaryKind
}

// Transacted returns the underlying transacted dictionary, for callers that
// need per-call lock timeouts.
func (d *Dictionary[K, V]) Transacted() *collection.Dictionary[K, V] {
	return d.inner
}

// AddChangeHandler registers handler for committed changes.
func (d *Dictionary[K, V]) AddChangeHandler(handler collection.ChangeHandler[K, V]) (unsubscribe func()) {
	return d.inner.AddChangeHandler(handler)
}

// AddAsync adds key, failing with errors.ErrKeyAlreadyExists when present.
func (d *Dictionary[K, V]) AddAsync(ctx context.Context, tx *Transaction, key K, value V) error {
	return d.inner.AddAsync(ctx, participantOf(tx), key, value, d.timeout)
}

// AddOrUpdateAsync adds key or replaces its value with the result of update.
func (d *Dictionary[K, V]) AddOrUpdateAsync(ctx context.Context, tx *Transaction, key K, addValue V, update func(key K, current V) V) (V, error) {
	return d.inner.AddOrUpdateAsync(ctx, participantOf(tx), key, addValue, update, d.timeout)
}

// ContainsKeyAsync reports whether key is present.
func (d *Dictionary[K, V]) ContainsKeyAsync(ctx context.Context, tx *Transaction, key K, mode lock.Mode) (bool, error) {
	return d.inner.ContainsKeyAsync(ctx, participantOf(tx), key, mode, d.timeout)
}

// GetOrAddAsync returns the value of key, adding the one built by factory when missing.
func (d *Dictionary[K, V]) GetOrAddAsync(ctx context.Context, tx *Transaction, key K, factory func(key K) V) (V, error) {
	return d.inner.GetOrAddAsync(ctx, participantOf(tx), key, factory, d.timeout)
}

// SetAsync stores value under key.
func (d *Dictionary[K, V]) SetAsync(ctx context.Context, tx *Transaction, key K, value V) error {
	return d.inner.SetAsync(ctx, participantOf(tx), key, value, d.timeout)
}

// TryAddAsync adds key when missing and reports whether it did.
func (d *Dictionary[K, V]) TryAddAsync(ctx context.Context, tx *Transaction, key K, value V) (bool, error) {
	return d.inner.TryAddAsync(ctx, participantOf(tx), key, value, d.timeout)
}

// TryGetValueAsync returns the value of key.
func (d *Dictionary[K, V]) TryGetValueAsync(ctx context.Context, tx *Transaction, key K, mode lock.Mode) (ConditionalValue[V], error) {
	return d.inner.TryGetValueAsync(ctx, participantOf(tx), key, mode, d.timeout)
}

// TryRemoveAsync removes key and returns the value it held.
func (d *Dictionary[K, V]) TryRemoveAsync(ctx context.Context, tx *Transaction, key K) (ConditionalValue[V], error) {
	return d.inner.TryRemoveAsync(ctx, participantOf(tx), key, d.timeout)
}

// TryUpdateAsync replaces the value of key when it equals comparisonValue.
func (d *Dictionary[K, V]) TryUpdateAsync(ctx context.Context, tx *Transaction, key K, newValue, comparisonValue V) (bool, error) {
	return d.inner.TryUpdateAsync(ctx, participantOf(tx), key, newValue, comparisonValue, d.timeout)
}

// ClearAsync removes every key at once, outside of any transaction.
func (d *Dictionary[K, V]) ClearAsync(ctx context.Context) error {
	return d.inner.ClearAsync(ctx)
}

// GetCountAsync returns the number of keys.
func (d *Dictionary[K, V]) GetCountAsync(ctx context.Context, tx *Transaction) (int64, error) {
	return d.inner.GetCountAsync(ctx, participantOf(tx))
}

// CreateEnumerableAsync returns the entries accepted by filter.
func (d *Dictionary[K, V]) CreateEnumerableAsync(ctx context.Context, tx *Transaction, filter func(key K) bool, mode collection.EnumerationMode) (iter.Seq2[K, V], error) {
	return d.inner.CreateEnumerableAsync(ctx, participantOf(tx), filter, mode, d.timeout)
}

// CreateKeyEnumerableAsync returns the keys.
func (d *Dictionary[K, V]) CreateKeyEnumerableAsync(ctx context.Context, tx *Transaction, mode collection.EnumerationMode) (iter.Seq[K], error) {
	return d.inner.CreateKeyEnumerableAsync(ctx, participantOf(tx), mode, d.timeout)
}

// Count returns the number of keys outside of any transaction.
func (d *Dictionary[K, V]) Count() int64 {
	return d.inner.Count()
}

func (d *Dictionary[K, V]) export() ([]record, error) {
	snapshot := d.inner.Snapshot()
	records := make([]record, 0, len(snapshot))
	for key, value := range snapshot {
		k, err := d.keys.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := d.values.Marshal(value)
		if err != nil {
			return nil, err
		}
		records = append(records, record{Key: k, Value: v})
	}
	return records, nil
}

func (d *Dictionary[K, V]) decode(records []record) (func(), error) {
	entries := make(map[K]V, len(records))
	for _, r := range records {
		key, err := d.keys.Unmarshal(r.Key)
		if err != nil {
			return nil, err
		}
		value, err := d.values.Unmarshal(r.Value)
		if err != nil {
			return nil, err
		}
		entries[key] = value
	}
	return func() { d.inner.Restore(entries) }, nil
}

// participantOf avoids handing a typed nil to the collections.
func participantOf(tx *Transaction) collection.Transaction {
	if tx == nil {
		return nil
	}
	return tx
}
