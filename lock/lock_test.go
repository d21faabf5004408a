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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	gerrors "github.com/fabricmock/fabricmock/errors"
)

func TestLockTryAcquire(t *testing.T) {
	t.Run("free lock is acquired in the requested mode", func(t *testing.T) {
		lk := New("k")
		assert.Equal(t, Acquired, lk.TryAcquire(1, Update))
		assert.Equal(t, Update, lk.Mode())
		assert.Equal(t, []int64{1}, lk.Owners())
	})

	t.Run("default locks are shared", func(t *testing.T) {
		lk := New("k")
		assert.Equal(t, Acquired, lk.TryAcquire(1, Default))
		assert.Equal(t, Acquired, lk.TryAcquire(2, Default))
		assert.ElementsMatch(t, []int64{1, 2}, lk.Owners())
		assert.Equal(t, Default, lk.Mode())
	})

	t.Run("update excludes everybody else", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))
		assert.Equal(t, Denied, lk.TryAcquire(2, Default))
		assert.Equal(t, Denied, lk.TryAcquire(2, Update))
	})

	t.Run("update is denied while others read", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Default))
		assert.Equal(t, Denied, lk.TryAcquire(2, Update))
	})

	t.Run("owner asking again gets Owned", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))
		assert.Equal(t, Owned, lk.TryAcquire(1, Update))
		assert.Equal(t, Owned, lk.TryAcquire(1, Default))
		assert.Equal(t, Update, lk.Mode())
		assert.Len(t, lk.Owners(), 1)
	})

	t.Run("sole owner upgrades to update", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Default))
		assert.Equal(t, Owned, lk.TryAcquire(1, Update))
		assert.Equal(t, Update, lk.Mode())
		assert.Equal(t, Denied, lk.TryAcquire(2, Default))
	})

	t.Run("shared owner cannot upgrade", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Default))
		require.Equal(t, Acquired, lk.TryAcquire(2, Default))
		assert.Equal(t, Denied, lk.TryAcquire(1, Update))
		assert.Equal(t, Default, lk.Mode())
	})
}

func TestLockReleaseAndDowngrade(t *testing.T) {
	t.Run("release of last owner resets the mode", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))
		assert.True(t, lk.Release(1))
		assert.False(t, lk.Release(1))
		assert.Equal(t, Default, lk.Mode())
		assert.Empty(t, lk.Owners())
		assert.False(t, lk.IsOwner(1))
	})

	t.Run("downgrade requires an update owner", func(t *testing.T) {
		lk := New("k")
		assert.False(t, lk.Downgrade(1))
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))
		assert.False(t, lk.Downgrade(2))
		assert.True(t, lk.Downgrade(1))
		assert.False(t, lk.Downgrade(1))
		assert.Equal(t, Default, lk.Mode())
		assert.Equal(t, Acquired, lk.TryAcquire(2, Default))
	})
}

func TestLockAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("times out while another transaction holds update", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))

		start := time.Now()
		result, err := lk.Acquire(ctx, 2, Default, 50*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrLockTimeout)
		assert.NotErrorIs(t, err, gerrors.ErrLockCanceled)
		assert.Equal(t, Denied, result)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
		assert.Equal(t, []int64{1}, lk.Owners())
	})

	t.Run("wakes up when the owner releases", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))

		go func() {
			time.Sleep(20 * time.Millisecond)
			lk.Release(1)
		}()

		result, err := lk.Acquire(ctx, 2, Update, time.Second)
		require.NoError(t, err)
		assert.Equal(t, Acquired, result)
		assert.Equal(t, []int64{2}, lk.Owners())
	})

	t.Run("wakes up readers when the owner downgrades", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))

		go func() {
			time.Sleep(20 * time.Millisecond)
			lk.Downgrade(1)
		}()

		result, err := lk.Acquire(ctx, 2, Default, time.Second)
		require.NoError(t, err)
		assert.Equal(t, Acquired, result)
		assert.ElementsMatch(t, []int64{1, 2}, lk.Owners())
	})

	t.Run("upgrade proceeds once the other reader leaves", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Default))
		require.Equal(t, Acquired, lk.TryAcquire(2, Default))

		go func() {
			time.Sleep(20 * time.Millisecond)
			lk.Release(2)
		}()

		result, err := lk.Acquire(ctx, 1, Update, time.Second)
		require.NoError(t, err)
		assert.Equal(t, Owned, result)
		assert.Equal(t, Update, lk.Mode())
	})

	t.Run("cancellation is distinct from timeout and leaves no trace", func(t *testing.T) {
		lk := New("k")
		require.Equal(t, Acquired, lk.TryAcquire(1, Update))

		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		result, err := lk.Acquire(cancelCtx, 2, Update, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrLockCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, gerrors.ErrLockTimeout)
		assert.Equal(t, Denied, result)
		assert.Equal(t, []int64{1}, lk.Owners())
		assert.Equal(t, Update, lk.Mode())
	})

	t.Run("already canceled context is rejected even on a free lock", func(t *testing.T) {
		lk := New("k")
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := lk.Acquire(cancelCtx, 1, Default, time.Second)
		assert.ErrorIs(t, err, gerrors.ErrLockCanceled)
		assert.Empty(t, lk.Owners())
	})

	t.Run("zero timeout falls back to the default", func(t *testing.T) {
		assert.Equal(t, DefaultTimeout, effectiveTimeout(0))
		assert.Equal(t, DefaultTimeout, effectiveTimeout(-time.Second))
		assert.Equal(t, time.Second, effectiveTimeout(time.Second))
	})
}

func TestLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	lk := New("k")

	var (
		writers  atomic.Int32
		readers  atomic.Int32
		violated atomic.Bool
		wg       sync.WaitGroup
	)

	for i := range 40 {
		wg.Add(1)
		go func(transactionID int64) {
			defer wg.Done()
			mode := Default
			if transactionID%3 == 0 {
				mode = Update
			}

			_, err := lk.Acquire(ctx, transactionID, mode, 5*time.Second)
			if err != nil {
				violated.Store(true)
				return
			}

			if mode == Update {
				if writers.Inc() > 1 || readers.Load() > 0 {
					violated.Store(true)
				}
				time.Sleep(time.Millisecond)
				writers.Dec()
			} else {
				readers.Inc()
				if writers.Load() > 0 {
					violated.Store(true)
				}
				time.Sleep(time.Millisecond)
				readers.Dec()
			}
			lk.Release(transactionID)
		}(int64(i + 1))
	}

	wg.Wait()
	assert.False(t, violated.Load())
	assert.Empty(t, lk.Owners())
}

func TestModeAndResultString(t *testing.T) {
	assert.Equal(t, "Default", Default.String())
	assert.Equal(t, "Update", Update.String())
	assert.Equal(t, "Unknown", Mode(9).String())
	assert.Equal(t, "Acquired", Acquired.String())
	assert.Equal(t, "Denied", Denied.String())
	assert.Equal(t, "Owned", Owned.String())
	assert.Equal(t, "Unknown", AcquireResult(9).String())
}
