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
	"cmp"
	"context"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/lock"
)

const (
	timeout = time.Second
	short   = 30 * time.Millisecond
)

func seed(t *testing.T, d *Dictionary[string, int], entries map[string]int) {
	t.Helper()
	tx := newTransaction()
	for key, value := range entries {
		require.NoError(t, d.AddAsync(context.Background(), tx, key, value, timeout))
	}
	tx.commit()
}

func TestDictionaryAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("commit publishes ItemAdded and releases the lock", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		var changes []DictionaryChange[string, int]
		d.AddChangeHandler(func(change DictionaryChange[string, int]) {
			changes = append(changes, change)
		})

		tx := newTransaction()
		require.NoError(t, d.AddAsync(ctx, tx, "a", 1, timeout))
		assert.Empty(t, changes)
		tx.commit()

		require.Len(t, changes, 1)
		added, ok := changes[0].(*ItemAdded[string, int])
		require.True(t, ok)
		assert.Equal(t, "a", added.Key)
		assert.Equal(t, 1, added.Value)
		assert.Equal(t, tx, added.Transaction())
		assert.Empty(t, d.LockManager().HeldKeys(tx.id))
	})

	t.Run("duplicate add fails immediately within the same transaction", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		tx := newTransaction()
		require.NoError(t, d.AddAsync(ctx, tx, "a", 1, timeout))

		err := d.AddAsync(ctx, tx, "a", 2, timeout)
		require.ErrorIs(t, err, gerrors.ErrKeyAlreadyExists)

		value, err := d.TryGetValueAsync(ctx, tx, "a", lock.Default, timeout)
		require.NoError(t, err)
		assert.Equal(t, Some(1), value)
		tx.commit()
	})

	t.Run("duplicate add of a committed key releases the new lock", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1})

		tx := newTransaction()
		err := d.AddAsync(ctx, tx, "a", 2, timeout)
		require.ErrorIs(t, err, gerrors.ErrKeyAlreadyExists)
		assert.Empty(t, d.LockManager().HeldKeys(tx.id))
		tx.abort()
	})

	t.Run("writers on the same key are isolated", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		tx1 := newTransaction()
		require.NoError(t, d.AddAsync(ctx, tx1, "a", 1, timeout))

		tx2 := newTransaction()
		err := d.SetAsync(ctx, tx2, "a", 2, short)
		require.ErrorIs(t, err, gerrors.ErrLockTimeout)
		_, err = d.TryGetValueAsync(ctx, tx2, "a", lock.Default, short)
		require.ErrorIs(t, err, gerrors.ErrLockTimeout)

		tx1.commit()
		require.NoError(t, d.SetAsync(ctx, tx2, "a", 2, timeout))
		tx2.commit()
		assert.Equal(t, map[string]int{"a": 2}, d.Snapshot())
	})

	t.Run("ended transaction is rejected", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		tx := newTransaction()
		require.NoError(t, d.AddAsync(ctx, tx, "a", 1, timeout))
		tx.commit()

		err := d.AddAsync(ctx, tx, "b", 1, timeout)
		require.ErrorIs(t, err, gerrors.ErrTransactionEnded)
		assert.Equal(t, int64(1), d.Count())
	})

	t.Run("nil transaction is rejected", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		assert.ErrorIs(t, d.AddAsync(ctx, nil, "a", 1, timeout), gerrors.ErrNilTransaction)
	})
}

func TestDictionaryAbortRestoresState(t *testing.T) {
	ctx := context.Background()
	d := NewDictionary[string, int]("d")
	seed(t, d, map[string]int{"a": 1, "b": 2, "c": 3})
	before := d.Snapshot()

	var changes int
	d.AddChangeHandler(func(DictionaryChange[string, int]) { changes++ })

	tx := newTransaction()
	require.NoError(t, d.AddAsync(ctx, tx, "d", 4, timeout))
	require.NoError(t, d.SetAsync(ctx, tx, "a", 10, timeout))
	require.NoError(t, d.SetAsync(ctx, tx, "a", 11, timeout))
	removed, err := d.TryRemoveAsync(ctx, tx, "b", timeout)
	require.NoError(t, err)
	assert.Equal(t, Some(2), removed)
	updated, err := d.TryUpdateAsync(ctx, tx, "c", 30, 3, timeout)
	require.NoError(t, err)
	assert.True(t, updated)
	_, err = d.AddOrUpdateAsync(ctx, tx, "d", 0, func(_ string, v int) int { return v * 10 }, timeout)
	require.NoError(t, err)
	require.NoError(t, d.AddAsync(ctx, tx, "b", 20, timeout))

	assert.Equal(t, map[string]int{"a": 11, "b": 20, "c": 30, "d": 40}, d.Snapshot())

	tx.abort()
	assert.Equal(t, before, d.Snapshot())
	assert.Zero(t, changes)
	assert.Empty(t, d.LockManager().HeldKeys(tx.id))
}

func TestDictionaryCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	d := NewDictionary[string, int]("d")
	seed(t, d, map[string]int{"a": 1, "b": 2})

	var changes []DictionaryChange[string, int]
	unsubscribe := d.AddChangeHandler(func(change DictionaryChange[string, int]) {
		changes = append(changes, change)
	})

	tx := newTransaction()
	require.NoError(t, d.AddAsync(ctx, tx, "c", 3, timeout))
	require.NoError(t, d.SetAsync(ctx, tx, "a", 10, timeout))
	_, err := d.TryRemoveAsync(ctx, tx, "b", timeout)
	require.NoError(t, err)
	tx.commit()

	require.Len(t, changes, 3)
	assert.Equal(t, &ItemAdded[string, int]{Tx: tx, Key: "c", Value: 3}, changes[0])
	assert.Equal(t, &ItemUpdated[string, int]{Tx: tx, Key: "a", OldValue: 1, NewValue: 10}, changes[1])
	assert.Equal(t, &ItemRemoved[string, int]{Tx: tx, Key: "b", Value: 2}, changes[2])

	unsubscribe()
	unsubscribe()
	seed(t, d, map[string]int{"e": 5})
	assert.Len(t, changes, 3)
}

func TestDictionaryGetOrAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("existing key is not written and the lock is downgraded", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1})

		var changes int
		d.AddChangeHandler(func(DictionaryChange[string, int]) { changes++ })

		tx1 := newTransaction()
		value, err := d.GetOrAddAsync(ctx, tx1, "a", func(string) int { return 100 }, timeout)
		require.NoError(t, err)
		assert.Equal(t, 1, value)

		lk, ok := d.LockManager().Lock("a")
		require.True(t, ok)
		assert.Equal(t, lock.Default, lk.Mode())

		// a concurrent reader is not blocked
		tx2 := newTransaction()
		got, err := d.TryGetValueAsync(ctx, tx2, "a", lock.Default, short)
		require.NoError(t, err)
		assert.Equal(t, Some(1), got)

		tx1.commit()
		tx2.commit()
		assert.Zero(t, changes)
	})

	t.Run("missing key is added", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		var changes []DictionaryChange[string, int]
		d.AddChangeHandler(func(change DictionaryChange[string, int]) { changes = append(changes, change) })

		tx := newTransaction()
		value, err := d.GetOrAddAsync(ctx, tx, "a", func(key string) int { return len(key) }, timeout)
		require.NoError(t, err)
		assert.Equal(t, 1, value)

		lk, _ := d.LockManager().Lock("a")
		assert.Equal(t, lock.Update, lk.Mode())
		tx.commit()
		require.Len(t, changes, 1)
		assert.IsType(t, &ItemAdded[string, int]{}, changes[0])
	})
}

func TestDictionaryConditionalOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("TryAdd on existing key releases the lock", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1})

		tx := newTransaction()
		added, err := d.TryAddAsync(ctx, tx, "a", 2, timeout)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, d.LockManager().HeldKeys(tx.id))

		added, err = d.TryAddAsync(ctx, tx, "b", 2, timeout)
		require.NoError(t, err)
		assert.True(t, added)
		tx.commit()
		assert.Equal(t, map[string]int{"a": 1, "b": 2}, d.Snapshot())
	})

	t.Run("TryRemove of a missing key is not found", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		tx := newTransaction()
		removed, err := d.TryRemoveAsync(ctx, tx, "missing", timeout)
		require.NoError(t, err)
		assert.False(t, removed.HasValue)
		assert.Empty(t, d.LockManager().HeldKeys(tx.id))
		tx.commit()
	})

	t.Run("TryUpdate compares the current value", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1})

		tx := newTransaction()
		updated, err := d.TryUpdateAsync(ctx, tx, "a", 5, 2, timeout)
		require.NoError(t, err)
		assert.False(t, updated)
		assert.Empty(t, d.LockManager().HeldKeys(tx.id))

		updated, err = d.TryUpdateAsync(ctx, tx, "missing", 5, 2, timeout)
		require.NoError(t, err)
		assert.False(t, updated)

		updated, err = d.TryUpdateAsync(ctx, tx, "a", 5, 1, timeout)
		require.NoError(t, err)
		assert.True(t, updated)
		tx.commit()
		assert.Equal(t, map[string]int{"a": 5}, d.Snapshot())
	})

	t.Run("TryUpdate uses the configured equality", func(t *testing.T) {
		d := NewDictionary[string, []int]("d", WithValueEqual(func(a, b []int) bool { return len(a) == len(b) }))
		tx := newTransaction()
		require.NoError(t, d.AddAsync(ctx, tx, "a", []int{1, 2}, timeout))
		updated, err := d.TryUpdateAsync(ctx, tx, "a", []int{3}, []int{7, 8}, timeout)
		require.NoError(t, err)
		assert.True(t, updated)
		tx.commit()
	})

	t.Run("failed update reverts an upgrade", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1})

		tx := newTransaction()
		_, err := d.TryGetValueAsync(ctx, tx, "a", lock.Default, timeout)
		require.NoError(t, err)
		updated, err := d.TryUpdateAsync(ctx, tx, "a", 5, 2, timeout)
		require.NoError(t, err)
		assert.False(t, updated)

		lk, _ := d.LockManager().Lock("a")
		assert.Equal(t, lock.Default, lk.Mode())
		assert.True(t, lk.IsOwner(tx.id))
		tx.commit()
	})

	t.Run("ContainsKey and count", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1, "b": 2})

		tx := newTransaction()
		ok, err := d.ContainsKeyAsync(ctx, tx, "a", lock.Default, timeout)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = d.ContainsKeyAsync(ctx, tx, "z", lock.Default, timeout)
		require.NoError(t, err)
		assert.False(t, ok)

		count, err := d.GetCountAsync(ctx, tx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
		tx.commit()
	})

	t.Run("Clear is immediate and not undone by abort", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, map[string]int{"a": 1, "b": 2})
		require.NoError(t, d.ClearAsync(ctx))
		assert.Zero(t, d.Count())

		d.Restore(map[string]int{"x": 9})
		assert.Equal(t, map[string]int{"x": 9}, d.Snapshot())
	})
}

func TestDictionaryEnumeration(t *testing.T) {
	ctx := context.Background()
	entries := map[string]int{"c": 3, "a": 1, "b": 2, "d": 4}

	t.Run("ordered enumeration follows the key comparer", func(t *testing.T) {
		d := NewDictionary[string, int]("d", WithKeyComparer(cmp.Compare[string]))
		seed(t, d, entries)

		tx := newTransaction()
		seq, err := d.CreateEnumerableAsync(ctx, tx, func(key string) bool { return key != "b" }, Ordered, timeout)
		require.NoError(t, err)

		var keys []string
		var values []int
		for k, v := range seq {
			keys = append(keys, k)
			values = append(values, v)
		}
		assert.Equal(t, []string{"a", "c", "d"}, keys)
		assert.Equal(t, []int{1, 3, 4}, values)
		assert.ElementsMatch(t, []string{"a", "c", "d"}, d.LockManager().HeldKeys(tx.id))

		keySeq, err := d.CreateKeyEnumerableAsync(ctx, tx, Ordered, timeout)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, slices.Collect(keySeq))
		tx.commit()
	})

	t.Run("unordered enumeration returns every key", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		seed(t, d, entries)

		tx := newTransaction()
		seq, err := d.CreateEnumerableAsync(ctx, tx, nil, Unordered, timeout)
		require.NoError(t, err)
		assert.Equal(t, entries, maps.Collect(seq))
		tx.commit()
	})

	t.Run("ordered enumeration needs a comparer", func(t *testing.T) {
		d := NewDictionary[string, int]("d")
		_, err := d.CreateEnumerableAsync(ctx, newTransaction(), nil, Ordered, timeout)
		assert.ErrorIs(t, err, gerrors.ErrUnorderedKeys)
	})

	t.Run("a failed enumeration releases the locks it took", func(t *testing.T) {
		d := NewDictionary[string, int]("d", WithKeyComparer(cmp.Compare[string]))
		seed(t, d, entries)

		writer := newTransaction()
		require.NoError(t, d.SetAsync(ctx, writer, "c", 30, timeout))

		reader := newTransaction()
		_, err := d.TryGetValueAsync(ctx, reader, "a", lock.Default, timeout)
		require.NoError(t, err)

		_, err = d.CreateEnumerableAsync(ctx, reader, nil, Ordered, short)
		require.ErrorIs(t, err, gerrors.ErrLockTimeout)
		// the lock taken before the enumeration is kept
		assert.Equal(t, []string{"a"}, d.LockManager().HeldKeys(reader.id))

		writer.commit()
		reader.commit()
	})

	t.Run("enumeration mode names", func(t *testing.T) {
		assert.Equal(t, "Ordered", Ordered.String())
		assert.Equal(t, "Unordered", Unordered.String())
		assert.Equal(t, "Unknown", EnumerationMode(7).String())
	})
}
