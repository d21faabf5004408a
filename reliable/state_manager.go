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
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	"github.com/fabricmock/fabricmock/collection"
	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/eventstream"
	imetric "github.com/fabricmock/fabricmock/internal/metric"
	"github.com/fabricmock/fabricmock/internal/validation"
	"github.com/fabricmock/fabricmock/internal/xsync"
	"github.com/fabricmock/fabricmock/log"
)

// store is implemented by every collection the state manager registers.
type store interface {
	Name() string
	Kind() Kind
	export() ([]record, error)
	// decode parses records without touching the store. The returned func
	// replaces the store content.
	decode(records []record) (func(), error)
}

// StateManager is an in-memory registry of named reliable collections.
//
// A name is bound to a single collection for the lifetime of the state
// manager: asking again for the same name returns the same instance, and
// asking for it with another kind or other element types fails with
// errors.ErrCollectionTypeMismatch.
type StateManager struct {
	logger        log.Logger
	lockTimeout   time.Duration
	meterProvider metric.MeterProvider
	instruments   *imetric.StateManagerMetric

	transactionIDs atomic.Int64
	serializers    *xsync.Map[reflect.Type, any]

	mu          sync.RWMutex
	collections map[string]store

	// active holds the running transactions. idle is closed while it is empty.
	txMu   sync.Mutex
	active map[int64]*Transaction
	idle   chan struct{}

	transactionChanges *eventstream.Stream[*TransactionChanged]
	stateChanges       *eventstream.Stream[*StateManagerChanged]
}

// NewStateManager creates an empty StateManager.
func NewStateManager(opts ...Option) (*StateManager, error) {
	manager := &StateManager{
		logger:             log.DiscardLogger,
		serializers:        xsync.NewMap[reflect.Type, any](),
		collections:        make(map[string]store),
		active:             make(map[int64]*Transaction),
		idle:               make(chan struct{}),
		transactionChanges: eventstream.New[*TransactionChanged](),
		stateChanges:       eventstream.New[*StateManagerChanged](),
	}

	close(manager.idle)

	for _, opt := range opts {
		opt.Apply(manager)
	}

	provider := imetric.New(imetric.WithMeterProvider(manager.meterProvider))
	instruments, err := imetric.NewStateManagerMetric(provider.Meter())
	if err != nil {
		return nil, err
	}
	manager.instruments = instruments
	return manager, nil
}

// CreateTransaction starts a new transaction.
func (m *StateManager) CreateTransaction() *Transaction {
	tx := &Transaction{
		id:      m.transactionIDs.Inc(),
		manager: m,
		started: time.Now(),
	}

	m.txMu.Lock()
	if len(m.active) == 0 {
		m.idle = make(chan struct{})
	}
	m.active[tx.id] = tx
	m.txMu.Unlock()

	m.logger.Debugf("transaction=(%d) created", tx.id)
	return tx
}

// ActiveTransactions returns the number of transactions not yet committed
// or aborted.
func (m *StateManager) ActiveTransactions() int {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return len(m.active)
}

// WaitForTransactionsAsync blocks until no transaction is active or ctx is
// done. Transactions created after it returns are not waited for.
func (m *StateManager) WaitForTransactionsAsync(ctx context.Context) error {
	m.txMu.Lock()
	idle := m.idle
	m.txMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AbortTransactions aborts every active transaction.
func (m *StateManager) AbortTransactions() {
	m.txMu.Lock()
	active := make([]*Transaction, 0, len(m.active))
	for _, tx := range m.active {
		active = append(active, tx)
	}
	m.txMu.Unlock()

	for _, tx := range active {
		tx.Dispose()
	}
}

// AddTransactionChangedHandler registers handler for ended transactions and
// returns a function that unregisters it.
func (m *StateManager) AddTransactionChangedHandler(handler func(*TransactionChanged)) (unsubscribe func()) {
	return m.transactionChanges.Subscribe(handler)
}

// AddStateManagerChangedHandler registers handler for registry changes and
// returns a function that unregisters it.
func (m *StateManager) AddStateManagerChangedHandler(handler func(*StateManagerChanged)) (unsubscribe func()) {
	return m.stateChanges.Subscribe(handler)
}

// GetOrAddDictionary returns the Dictionary registered under name, creating it
// on first use.
func GetOrAddDictionary[K comparable, V any](ctx context.Context, m *StateManager, name string, opts ...CollectionOption) (*Dictionary[K, V], error) {
	return getOrAdd(ctx, m, name, func() (*Dictionary[K, V], error) {
		return newDictionary[K, V](m, name, newCollectionConfig(opts...))
	})
}

// GetOrAddQueue returns the Queue registered under name, creating it on first use.
func GetOrAddQueue[T any](ctx context.Context, m *StateManager, name string, opts ...CollectionOption) (*Queue[T], error) {
	return getOrAdd(ctx, m, name, func() (*Queue[T], error) {
		return newQueue[T](m, name, newCollectionConfig(opts...))
	})
}

// GetOrAddConcurrentQueue returns the ConcurrentQueue registered under name,
// creating it on first use.
func GetOrAddConcurrentQueue[T any](ctx context.Context, m *StateManager, name string, opts ...CollectionOption) (*ConcurrentQueue[T], error) {
	return getOrAdd(ctx, m, name, func() (*ConcurrentQueue[T], error) {
		return newConcurrentQueue[T](m, name, newCollectionConfig(opts...))
	})
}

// TryGetDictionary returns the Dictionary registered under name, if any.
func TryGetDictionary[K comparable, V any](m *StateManager, name string) (ConditionalValue[*Dictionary[K, V]], error) {
	return tryGet[*Dictionary[K, V]](m, name)
}

// TryGetQueue returns the Queue registered under name, if any.
func TryGetQueue[T any](m *StateManager, name string) (ConditionalValue[*Queue[T]], error) {
	return tryGet[*Queue[T]](m, name)
}

// TryGetConcurrentQueue returns the ConcurrentQueue registered under name, if any.
func TryGetConcurrentQueue[T any](m *StateManager, name string) (ConditionalValue[*ConcurrentQueue[T]], error) {
	return tryGet[*ConcurrentQueue[T]](m, name)
}

// RemoveAsync unregisters the collection named name. Transactions still using
// it keep working on the detached instance.
func (m *StateManager) RemoveAsync(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	existing, ok := m.collections[name]
	delete(m.collections, name)
	m.mu.Unlock()
	if !ok {
		return gerrors.NewErrCollectionNotFound(name)
	}

	m.instruments.CollectionsCount().Add(ctx, -1)
	m.logger.Debugf("collection=(%s) kind=(%s) removed", name, existing.Kind())
	m.stateChanges.Publish(&StateManagerChanged{Action: CollectionRemoved, Name: name, Kind: existing.Kind()})
	return nil
}

// Names returns the sorted names of the registered collections.
func (m *StateManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered collections.
func (m *StateManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections)
}

// Logger returns the logger of the state manager.
func (m *StateManager) Logger() log.Logger {
	return m.logger
}

func (m *StateManager) transactionEnded(ctx context.Context, tx *Transaction, state TransactionState) {
	m.txMu.Lock()
	delete(m.active, tx.id)
	if len(m.active) == 0 {
		close(m.idle)
	}
	m.txMu.Unlock()

	switch state {
	case TransactionCommitted:
		m.instruments.CommittedCount().Add(ctx, 1)
	case TransactionAborted:
		m.instruments.AbortedCount().Add(ctx, 1)
	}
	m.instruments.Duration().Record(ctx, time.Since(tx.started).Milliseconds())

	m.logger.Debugf("transaction=(%d) %s", tx.id, state)
	m.transactionChanges.Publish(&TransactionChanged{Transaction: tx, State: state})
}

func (m *StateManager) stores() []store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stores := make([]store, 0, len(m.collections))
	for _, s := range m.collections {
		stores = append(stores, s)
	}
	slices.SortFunc(stores, func(a, b store) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return stores
}

func getOrAdd[C store](ctx context.Context, m *StateManager, name string, build func() (C, error)) (C, error) {
	var zero C
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := validation.NewEmptyStringValidator(name, gerrors.ErrInvalidCollectionName).Validate(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	if existing, ok := m.collections[name]; ok {
		m.mu.Unlock()
		return cast[C](name, existing)
	}

	created, err := build()
	if err != nil {
		m.mu.Unlock()
		return zero, err
	}
	m.collections[name] = created
	m.mu.Unlock()

	m.instruments.CollectionsCount().Add(ctx, 1)
	m.logger.Debugf("collection=(%s) kind=(%s) added", name, created.Kind())
	m.stateChanges.Publish(&StateManagerChanged{Action: CollectionAdded, Name: name, Kind: created.Kind()})
	return created, nil
}

func tryGet[C store](m *StateManager, name string) (ConditionalValue[C], error) {
	m.mu.RLock()
	existing, ok := m.collections[name]
	m.mu.RUnlock()
	if !ok {
		return collection.None[C](), nil
	}

	c, err := cast[C](name, existing)
	if err != nil {
		return collection.None[C](), err
	}
	return collection.Some(c), nil
}

func cast[C store](name string, existing store) (C, error) {
	c, ok := existing.(C)
	if !ok {
		var zero C
		return zero, gerrors.NewErrCollectionTypeMismatch(name, typeName[C](), fmt.Sprintf("%T", existing))
	}
	return c, nil
}
