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

package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type role string

func (r role) String() string { return string(r) }

func TestErrors(t *testing.T) {
	err := NewErrLockTimeout("k1", 4*time.Second)
	require.EqualError(t, err, "(key=k1, timeout=4s) lock acquisition timed out")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.NotErrorIs(t, err, ErrLockCanceled)

	err = NewErrLockCanceled("k1", context.Canceled)
	assert.ErrorIs(t, err, ErrLockCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrLockTimeout)

	err = NewErrKeyAlreadyExists(42)
	require.EqualError(t, err, "(key=42) key already exists")
	assert.ErrorIs(t, err, ErrKeyAlreadyExists)

	err = NewErrNotPrimary(role("ActiveSecondary"))
	require.EqualError(t, err, "role=(ActiveSecondary) replica is not primary")

	err = NewErrInvalidRoleTransition(role("Primary"), role("IdleSecondary"))
	assert.ErrorIs(t, err, ErrInvalidRoleTransition)

	err = NewErrCollectionTypeMismatch("orders", "dictionary", "queue")
	assert.ErrorIs(t, err, ErrCollectionTypeMismatch)

	cause := errors.New("bucket missing")
	err = NewErrInvalidBackup(cause)
	assert.ErrorIs(t, err, ErrInvalidBackup)
	assert.ErrorIs(t, err, cause)

	listenerErr := NewListenerError("http", cause)
	require.EqualError(t, listenerErr, "listener (http): bucket missing")
	assert.Equal(t, "http", listenerErr.Name())
	assert.ErrorIs(t, listenerErr, cause)
}
