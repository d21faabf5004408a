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

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/locker"
)

// DefaultTimeout is used whenever a lock request is made with a zero or
// negative timeout.
const DefaultTimeout = 4 * time.Second

// Mode is the strength of a lock request.
type Mode int

const (
	// Default is a shared lock. Any number of transactions may hold it at
	// the same time as long as nobody holds Update.
	Default Mode = iota
	// Update is an exclusive lock held by at most one transaction.
	Update
)

// String returns the name of the mode
func (m Mode) String() string {
	switch m {
	case Default:
		return "Default"
	case Update:
		return "Update"
	default:
		return "Unknown"
	}
}

// AcquireResult is the outcome of a lock request.
type AcquireResult int

const (
	// Acquired means the transaction became a new owner of the lock.
	Acquired AcquireResult = iota
	// Denied means the request is incompatible with the current owners.
	Denied
	// Owned means the transaction already owned the lock in a compatible mode.
	Owned
)

// String returns the name of the result
func (r AcquireResult) String() string {
	switch r {
	case Acquired:
		return "Acquired"
	case Denied:
		return "Denied"
	case Owned:
		return "Owned"
	default:
		return "Unknown"
	}
}

// Lock is the mutual-exclusion primitive guarding a single key.
//
// Ownership is tracked per transaction id. Waiters block on a signal channel
// that is created lazily under the same mutex used for every state change and
// closed whenever an owner leaves or the lock is downgraded, so a waiter can
// never miss a wake-up. A woken waiter re-evaluates its request instead of
// assuming success.
type Lock struct {
	_      locker.NoCopy
	mu     sync.Mutex
	key    any
	mode   Mode
	owners goset.Set[int64]
	signal chan struct{}
}

// New creates a free Lock. key is only used to describe failures.
func New(key any) *Lock {
	return &Lock{
		key:    key,
		mode:   Default,
		owners: goset.NewThreadUnsafeSet[int64](),
	}
}

// TryAcquire evaluates the request without waiting.
func (l *Lock) TryAcquire(transactionID int64, mode Mode) AcquireResult {
	result, _ := l.tryAcquire(transactionID, mode)
	return result
}

// Acquire requests the lock for the given transaction, waiting until the
// request becomes compatible, the timeout elapses or ctx is done.
//
// On timeout the returned error wraps errors.ErrLockTimeout; on cancellation
// it wraps errors.ErrLockCanceled joined with ctx.Err(). A failed request
// never changes the owners or the mode of the lock.
func (l *Lock) Acquire(ctx context.Context, transactionID int64, mode Mode, timeout time.Duration) (AcquireResult, error) {
	if err := ctx.Err(); err != nil {
		return Denied, gerrors.NewErrLockCanceled(l.key, err)
	}

	timeout = effectiveTimeout(timeout)
	var timer *time.Timer
	for {
		result, wait := l.tryAcquire(transactionID, mode)
		if result != Denied {
			if timer != nil {
				timer.Stop()
			}
			return result, nil
		}

		if timer == nil {
			timer = time.NewTimer(timeout)
		}

		select {
		case <-wait:
		case <-timer.C:
			return Denied, gerrors.NewErrLockTimeout(l.key, timeout)
		case <-ctx.Done():
			timer.Stop()
			return Denied, gerrors.NewErrLockCanceled(l.key, ctx.Err())
		}
	}
}

// Release removes the transaction from the owners. When the last owner
// leaves, the mode goes back to Default. Waiters are signaled on every
// release so that a pending upgrade can observe it became the sole owner.
func (l *Lock) Release(transactionID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.owners.Contains(transactionID) {
		return false
	}

	l.owners.Remove(transactionID)
	if l.owners.Cardinality() == 0 {
		l.mode = Default
	}
	l.notify()
	return true
}

// Downgrade turns an Update lock held by the transaction into a Default lock.
func (l *Lock) Downgrade(transactionID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode != Update || !l.owners.Contains(transactionID) {
		return false
	}

	l.mode = Default
	l.notify()
	return true
}

// Mode returns the current mode of the lock.
func (l *Lock) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Owners returns the transactions currently owning the lock.
func (l *Lock) Owners() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owners.ToSlice()
}

// IsOwner reports whether the transaction owns the lock.
func (l *Lock) IsOwner(transactionID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owners.Contains(transactionID)
}

// tryAcquire applies the compatibility rules. When the request is denied it
// returns the channel to wait on, created under the same critical section.
func (l *Lock) tryAcquire(transactionID int64, mode Mode) (AcquireResult, <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owners.Contains(transactionID) {
		switch {
		case mode == Default || mode == l.mode:
			return Owned, nil
		case l.owners.Cardinality() == 1:
			l.mode = Update
			return Owned, nil
		default:
			return Denied, l.waitSignal()
		}
	}

	if l.owners.Cardinality() == 0 {
		l.owners.Add(transactionID)
		l.mode = mode
		return Acquired, nil
	}

	if l.mode == Default && mode == Default {
		l.owners.Add(transactionID)
		return Acquired, nil
	}

	return Denied, l.waitSignal()
}

// waitSignal returns the current signal, creating it when needed.
// Callers must hold mu.
func (l *Lock) waitSignal() <-chan struct{} {
	if l.signal == nil {
		l.signal = make(chan struct{})
	}
	return l.signal
}

// notify wakes every waiter. Callers must hold mu.
func (l *Lock) notify() {
	if l.signal != nil {
		close(l.signal)
		l.signal = nil
	}
}

func effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}
