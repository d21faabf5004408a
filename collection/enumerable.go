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
	"iter"
	"slices"
	"time"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/lock"
)

// EnumerationMode selects whether an enumeration is sorted by key.
type EnumerationMode int

const (
	// Unordered enumerates keys in no particular order.
	Unordered EnumerationMode = iota
	// Ordered enumerates keys in ascending order of the key comparer.
	Ordered
)

// String returns the name of the enumeration mode
func (m EnumerationMode) String() string {
	switch m {
	case Unordered:
		return "Unordered"
	case Ordered:
		return "Ordered"
	default:
		return "Unknown"
	}
}

// CreateEnumerableAsync locks every key accepted by filter with a Default lock
// and returns the matching entries. The locks are held until the transaction
// ends, so the enumerated keys stay stable for the transaction. When a lock
// cannot be obtained, every lock taken by this enumeration is released before
// the error is returned. A nil filter accepts every key.
func (d *Dictionary[K, V]) CreateEnumerableAsync(ctx context.Context, tx Transaction, filter func(key K) bool, mode EnumerationMode, timeout time.Duration) (iter.Seq2[K, V], error) {
	keys, err := d.lockKeys(ctx, tx, filter, mode, timeout)
	if err != nil {
		return nil, err
	}

	type entry struct {
		key   K
		value V
	}

	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		if value, ok := d.data.Get(key); ok {
			entries = append(entries, entry{key: key, value: value})
		}
	}

	return func(yield func(K, V) bool) {
		for _, e := range entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}, nil
}

// CreateKeyEnumerableAsync is CreateEnumerableAsync restricted to keys.
func (d *Dictionary[K, V]) CreateKeyEnumerableAsync(ctx context.Context, tx Transaction, mode EnumerationMode, timeout time.Duration) (iter.Seq[K], error) {
	keys, err := d.lockKeys(ctx, tx, nil, mode, timeout)
	if err != nil {
		return nil, err
	}

	keys = slices.DeleteFunc(keys, func(key K) bool { return !d.data.Has(key) })
	return slices.Values(keys), nil
}

func (d *Dictionary[K, V]) lockKeys(ctx context.Context, tx Transaction, filter func(key K) bool, mode EnumerationMode, timeout time.Duration) ([]K, error) {
	if mode == Ordered && d.compare == nil {
		return nil, gerrors.ErrUnorderedKeys
	}

	if err := d.journal.Begin(tx); err != nil {
		return nil, err
	}

	keys := d.data.Keys()
	if filter != nil {
		keys = slices.DeleteFunc(keys, func(key K) bool { return !filter(key) })
	}

	if mode == Ordered {
		slices.SortFunc(keys, d.compare)
	}

	transactionID := tx.TransactionID()
	acquired := make([]K, 0, len(keys))
	for _, key := range keys {
		result, err := d.locks.AcquireLock(ctx, transactionID, key, lock.Default, timeout)
		if err != nil {
			for _, k := range acquired {
				d.locks.ReleaseLock(transactionID, k)
			}
			return nil, err
		}

		if result == lock.Acquired {
			acquired = append(acquired, key)
		}
	}
	return keys, nil
}
