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
	"sync"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/stack"
)

// Journal keeps, per transaction, the actions a collection must run when the
// transaction ends: abort actions undo mutations in reverse order and commit
// actions publish them in order. Each transaction's actions are drained exactly
// once, after which the locks it holds on the collection are released.
type Journal struct {
	owner   Participant
	release func(transactionID int64)

	mu      sync.Mutex
	entries map[int64]*journalEntry
}

type journalEntry struct {
	aborts  *stack.Stack[func()]
	commits []func()
}

// NewJournal creates a Journal for owner. release is called with the
// transaction id once its actions have been drained.
func NewJournal(owner Participant, release func(transactionID int64)) *Journal {
	return &Journal{
		owner:   owner,
		release: release,
		entries: make(map[int64]*journalEntry),
	}
}

// Begin enlists the owner in the transaction the first time the transaction
// touches the collection.
func (j *Journal) Begin(tx Transaction) error {
	if tx == nil {
		return gerrors.ErrNilTransaction
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	id := tx.TransactionID()
	if _, ok := j.entries[id]; ok {
		return nil
	}

	if err := tx.Enlist(j.owner); err != nil {
		return err
	}

	j.entries[id] = &journalEntry{aborts: stack.New[func()]()}
	return nil
}

// Record adds an abort and a commit action for the transaction. Either may be nil.
// Actions of a transaction that never began are dropped.
func (j *Journal) Record(tx Transaction, abort, commit func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry, ok := j.entries[tx.TransactionID()]
	if !ok {
		return
	}

	if abort != nil {
		entry.aborts.Push(abort)
	}
	if commit != nil {
		entry.commits = append(entry.commits, commit)
	}
}

// Commit runs the commit actions of the transaction in registration order
// and releases its locks.
func (j *Journal) Commit(tx Transaction) {
	entry, ok := j.take(tx.TransactionID())
	if ok {
		for _, action := range entry.commits {
			action()
		}
	}
	j.release(tx.TransactionID())
}

// Abort runs the abort actions of the transaction in reverse registration
// order and releases its locks.
func (j *Journal) Abort(tx Transaction) {
	entry, ok := j.take(tx.TransactionID())
	if ok {
		for _, action := range entry.aborts.Drain() {
			action()
		}
	}
	j.release(tx.TransactionID())
}

// Active reports whether the transaction has pending actions on the collection.
func (j *Journal) Active(transactionID int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.entries[transactionID]
	return ok
}

// Len returns the number of transactions with pending actions.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) take(transactionID int64) (*journalEntry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry, ok := j.entries[transactionID]
	delete(j.entries, transactionID)
	return entry, ok
}
