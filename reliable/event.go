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
	"github.com/fabricmock/fabricmock/collection"
)

// ConditionalValue is the result of a lookup that may find nothing.
type ConditionalValue[T any] = collection.ConditionalValue[T]

// Kind is the closed set of collections a StateManager can create.
type Kind int

const (
	// DictionaryKind identifies a Dictionary.
	DictionaryKind Kind = iota
	// QueueKind identifies a Queue.
	QueueKind
	// ConcurrentQueueKind identifies a ConcurrentQueue.
	ConcurrentQueueKind
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case DictionaryKind:
		return "Dictionary"
	case QueueKind:
		return "Queue"
	case ConcurrentQueueKind:
		return "ConcurrentQueue"
	default:
		return "Unknown"
	}
}

func parseKind(name string) (Kind, bool) {
	switch name {
	case DictionaryKind.String():
		return DictionaryKind, true
	case QueueKind.String():
		return QueueKind, true
	case ConcurrentQueueKind.String():
		return ConcurrentQueueKind, true
	default:
		return 0, false
	}
}

// TransactionChanged is published once a transaction committed or aborted
// and every collection it touched has run its actions.
type TransactionChanged struct {
	Transaction *Transaction
	State       TransactionState
}

// StateManagerAction describes a change of the collection registry.
type StateManagerAction int

const (
	// CollectionAdded is published when a collection is created.
	CollectionAdded StateManagerAction = iota
	// CollectionRemoved is published when a collection is removed.
	CollectionRemoved
	// Rebuilt is published when the collections were restored from a backup.
	Rebuilt
)

// String returns the name of the action
func (a StateManagerAction) String() string {
	switch a {
	case CollectionAdded:
		return "CollectionAdded"
	case CollectionRemoved:
		return "CollectionRemoved"
	case Rebuilt:
		return "Rebuilt"
	default:
		return "Unknown"
	}
}

// StateManagerChanged is published when the collection registry changes.
// Name and Kind are empty for Rebuilt.
type StateManagerChanged struct {
	Action StateManagerAction
	Name   string
	Kind   Kind
}
