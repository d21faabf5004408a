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
	"slices"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/fabricmock/fabricmock/errors"
)

var transactionIDs atomic.Int64

// fakeTransaction is a minimal transaction owner used by the tests.
type fakeTransaction struct {
	id           int64
	mu           sync.Mutex
	ended        bool
	participants []Participant
}

func newTransaction() *fakeTransaction {
	return &fakeTransaction{id: transactionIDs.Inc()}
}

func (tx *fakeTransaction) TransactionID() int64 {
	return tx.id
}

func (tx *fakeTransaction) Enlist(participant Participant) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.ended {
		return gerrors.NewErrTransactionEnded(tx.id)
	}
	if !slices.Contains(tx.participants, participant) {
		tx.participants = append(tx.participants, participant)
	}
	return nil
}

func (tx *fakeTransaction) commit() {
	for _, p := range tx.end() {
		p.CommitTransaction(tx)
	}
}

func (tx *fakeTransaction) abort() {
	participants := tx.end()
	slices.Reverse(participants)
	for _, p := range participants {
		p.AbortTransaction(tx)
	}
}

func (tx *fakeTransaction) end() []Participant {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.ended {
		return nil
	}
	tx.ended = true
	return slices.Clone(tx.participants)
}
