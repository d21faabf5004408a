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
	"slices"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/fabricmock/fabricmock/collection"
	gerrors "github.com/fabricmock/fabricmock/errors"
)

// TransactionState is the lifecycle state of a Transaction.
type TransactionState int32

const (
	// TransactionActive means the transaction accepts operations.
	TransactionActive TransactionState = iota
	// TransactionCommitted means the transaction committed.
	TransactionCommitted
	// TransactionAborted means the transaction aborted.
	TransactionAborted
)

// String returns the name of the state
func (s TransactionState) String() string {
	switch s {
	case TransactionActive:
		return "Active"
	case TransactionCommitted:
		return "Committed"
	case TransactionAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Transaction groups operations on the collections of a StateManager.
//
// A transaction ends exactly once, either by CommitAsync or by Abort. Commit
// visits the collections in the order they joined the transaction; abort
// visits them in reverse order. Once ended, the transaction cannot be used
// for further operations.
type Transaction struct {
	id      int64
	manager *StateManager
	started time.Time
	state   atomic.Int32

	mu           sync.Mutex
	participants []collection.Participant
}

var _ collection.Transaction = (*Transaction)(nil)

// TransactionID returns the unique id of the transaction.
func (t *Transaction) TransactionID() int64 {
	return t.id
}

// State returns the lifecycle state of the transaction.
func (t *Transaction) State() TransactionState {
	return TransactionState(t.state.Load())
}

// IsCommitted reports whether the transaction committed.
func (t *Transaction) IsCommitted() bool {
	return t.State() == TransactionCommitted
}

// IsAborted reports whether the transaction aborted.
func (t *Transaction) IsAborted() bool {
	return t.State() == TransactionAborted
}

// Enlist registers a collection touched by the transaction.
func (t *Transaction) Enlist(participant collection.Participant) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.State() != TransactionActive {
		return gerrors.NewErrTransactionEnded(t.id)
	}

	if !slices.Contains(t.participants, participant) {
		t.participants = append(t.participants, participant)
	}
	return nil
}

// CommitAsync commits the transaction. Committing twice is a no-op;
// committing an aborted transaction fails with errors.ErrTransactionAborted.
func (t *Transaction) CommitAsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	participants, err := t.end(TransactionCommitted)
	if err != nil || participants == nil {
		return err
	}

	for _, participant := range participants {
		participant.CommitTransaction(t)
	}

	t.manager.transactionEnded(ctx, t, TransactionCommitted)
	return nil
}

// Abort aborts the transaction. Aborting twice is a no-op; aborting a
// committed transaction fails with errors.ErrTransactionCommitted.
func (t *Transaction) Abort() error {
	participants, err := t.end(TransactionAborted)
	if err != nil || participants == nil {
		return err
	}

	slices.Reverse(participants)
	for _, participant := range participants {
		participant.AbortTransaction(t)
	}

	t.manager.transactionEnded(context.Background(), t, TransactionAborted)
	return nil
}

// Dispose aborts the transaction when it is still active.
func (t *Transaction) Dispose() {
	if t.State() == TransactionActive {
		_ = t.Abort()
	}
}

// end moves the transaction to state and returns the participants to notify.
// It returns nil participants when the transaction already reached state.
func (t *Transaction) end(state TransactionState) ([]collection.Participant, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch current := t.State(); current {
	case state:
		return nil, nil
	case TransactionCommitted:
		return nil, gerrors.ErrTransactionCommitted
	case TransactionAborted:
		return nil, gerrors.ErrTransactionAborted
	}

	t.state.Store(int32(state))
	participants := t.participants
	t.participants = nil
	if participants == nil {
		participants = []collection.Participant{}
	}
	return participants, nil
}
