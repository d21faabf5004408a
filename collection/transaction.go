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

// Transaction is the view a collection has of the transaction driving an
// operation. The owner of the transaction calls back every enlisted
// Participant exactly once when the transaction ends.
type Transaction interface {
	// TransactionID returns the unique id of the transaction.
	TransactionID() int64
	// Enlist registers a participant that must be told about the outcome.
	// It fails with errors.ErrTransactionEnded once the transaction ended.
	Enlist(participant Participant) error
}

// Participant is implemented by every collection that records pending work
// on behalf of a transaction.
type Participant interface {
	// CommitTransaction runs the commit actions recorded for the transaction.
	CommitTransaction(tx Transaction)
	// AbortTransaction runs the abort actions recorded for the transaction.
	AbortTransaction(tx Transaction)
}

// ConditionalValue is the result of a lookup that may find nothing.
type ConditionalValue[T any] struct {
	Value    T
	HasValue bool
}

// Some returns a ConditionalValue holding value.
func Some[T any](value T) ConditionalValue[T] {
	return ConditionalValue[T]{Value: value, HasValue: true}
}

// None returns an empty ConditionalValue.
func None[T any]() ConditionalValue[T] {
	return ConditionalValue[T]{}
}
