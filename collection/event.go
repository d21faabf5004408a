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

// DictionaryChange is a committed change of a Dictionary.
// It is one of ItemAdded, ItemRemoved or ItemUpdated.
type DictionaryChange[K comparable, V any] interface {
	// Transaction returns the transaction that made the change.
	Transaction() Transaction
	isDictionaryChange()
}

// ItemAdded is published when a transaction that added a key commits.
type ItemAdded[K comparable, V any] struct {
	Tx    Transaction
	Key   K
	Value V
}

// ItemRemoved is published when a transaction that removed a key commits.
type ItemRemoved[K comparable, V any] struct {
	Tx    Transaction
	Key   K
	Value V
}

// ItemUpdated is published when a transaction that overwrote a key commits.
type ItemUpdated[K comparable, V any] struct {
	Tx       Transaction
	Key      K
	OldValue V
	NewValue V
}

func (e *ItemAdded[K, V]) Transaction() Transaction   { return e.Tx }
func (e *ItemRemoved[K, V]) Transaction() Transaction { return e.Tx }
func (e *ItemUpdated[K, V]) Transaction() Transaction { return e.Tx }

func (*ItemAdded[K, V]) isDictionaryChange()   {}
func (*ItemRemoved[K, V]) isDictionaryChange() {}
func (*ItemUpdated[K, V]) isDictionaryChange() {}

// ChangeHandler receives dictionary changes.
type ChangeHandler[K comparable, V any] func(change DictionaryChange[K, V])
