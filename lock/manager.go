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

package lock

import (
	"context"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"

	"github.com/fabricmock/fabricmock/internal/xsync"
)

// Manager maps keys to their Lock and remembers which keys every transaction
// holds, so that all of them can be released when the transaction ends.
//
// Locks are created on first use and are never removed, which keeps the wait
// channel of a key stable for the lifetime of the process.
type Manager[K comparable] struct {
	locks *xsync.Map[K, *Lock]

	mu   sync.Mutex
	held map[int64]goset.Set[K]
}

// NewManager creates an empty Manager.
func NewManager[K comparable]() *Manager[K] {
	return &Manager[K]{
		locks: xsync.NewMap[K, *Lock](),
		held:  make(map[int64]goset.Set[K]),
	}
}

// AcquireLock requests the lock of key for the transaction and records the
// key as held on success.
func (m *Manager[K]) AcquireLock(ctx context.Context, transactionID int64, key K, mode Mode, timeout time.Duration) (AcquireResult, error) {
	lk, _ := m.locks.GetOrSet(key, func() *Lock { return New(key) })
	result, err := lk.Acquire(ctx, transactionID, mode, timeout)
	if err != nil {
		return result, err
	}

	m.mu.Lock()
	keys, ok := m.held[transactionID]
	if !ok {
		keys = goset.NewThreadUnsafeSet[K]()
		m.held[transactionID] = keys
	}
	keys.Add(key)
	m.mu.Unlock()
	return result, nil
}

// ReleaseLock releases a single key held by the transaction.
func (m *Manager[K]) ReleaseLock(transactionID int64, key K) bool {
	m.mu.Lock()
	if keys, ok := m.held[transactionID]; ok {
		keys.Remove(key)
		if keys.Cardinality() == 0 {
			delete(m.held, transactionID)
		}
	}
	m.mu.Unlock()

	lk, ok := m.locks.Get(key)
	if !ok {
		return false
	}
	return lk.Release(transactionID)
}

// ReleaseLocks releases every key held by the transaction and forgets them.
// It is a no-op when the transaction holds nothing.
func (m *Manager[K]) ReleaseLocks(transactionID int64) {
	m.mu.Lock()
	keys, ok := m.held[transactionID]
	delete(m.held, transactionID)
	m.mu.Unlock()
	if !ok {
		return
	}

	for _, key := range keys.ToSlice() {
		if lk, ok := m.locks.Get(key); ok {
			lk.Release(transactionID)
		}
	}
}

// DowngradeLock turns the transaction's Update lock on key into a Default lock.
func (m *Manager[K]) DowngradeLock(transactionID int64, key K) bool {
	lk, ok := m.locks.Get(key)
	if !ok {
		return false
	}
	return lk.Downgrade(transactionID)
}

// Lock returns the lock of key, if it was ever requested.
func (m *Manager[K]) Lock(key K) (*Lock, bool) {
	return m.locks.Get(key)
}

// HeldKeys returns the keys currently held by the transaction.
func (m *Manager[K]) HeldKeys(transactionID int64) []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys, ok := m.held[transactionID]
	if !ok {
		return nil
	}
	return keys.ToSlice()
}

// Len returns the number of locks ever created.
func (m *Manager[K]) Len() int {
	return m.locks.Len()
}
