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

package testkit

import (
	"context"
	"testing"

	"github.com/fabricmock/fabricmock/actorstate"
	"github.com/fabricmock/fabricmock/log"
	"github.com/fabricmock/fabricmock/proxy"
	"github.com/fabricmock/fabricmock/reliable"
	"github.com/fabricmock/fabricmock/replica"
)

// TestKit defines the reliable state test kit
type TestKit struct {
	kt           *testing.T
	logger       log.Logger
	managerOpts  []reliable.Option
	stateManager *reliable.StateManager
	services     *proxy.ServiceProxyFactory
	actors       *proxy.ActorProxyFactory
}

// New creates an instance of TestKit
func New(t *testing.T, opts ...Option) *TestKit {
	// create the testkit instance
	testkit := &TestKit{
		kt:       t,
		logger:   log.DiscardLogger,
		services: proxy.NewServiceProxyFactory(),
		actors:   proxy.NewActorProxyFactory(),
	}
	// apply the various options
	for _, opt := range opts {
		opt.Apply(testkit)
	}

	managerOpts := append([]reliable.Option{reliable.WithLogger(testkit.logger)}, testkit.managerOpts...)
	stateManager, err := reliable.NewStateManager(managerOpts...)
	if err != nil {
		t.Fatal(err.Error())
	}

	testkit.stateManager = stateManager
	t.Cleanup(func() {
		_ = testkit.logger.Flush()
	})
	return testkit
}

// Logger returns the testkit logger
func (k *TestKit) Logger() log.Logger {
	return k.logger
}

// StateManager returns the testkit state manager
func (k *TestKit) StateManager() *reliable.StateManager {
	return k.stateManager
}

// ServiceProxyFactory returns the testkit service proxy factory
func (k *TestKit) ServiceProxyFactory() *proxy.ServiceProxyFactory {
	return k.services
}

// ActorProxyFactory returns the testkit actor proxy factory
func (k *TestKit) ActorProxyFactory() *proxy.ActorProxyFactory {
	return k.actors
}

// NewActorStateManager creates an empty actor state manager
func (k *TestKit) NewActorStateManager() *actorstate.StateManager {
	return actorstate.NewStateManager()
}

// NewTransaction creates a transaction disposed when the test ends
func (k *TestKit) NewTransaction() *reliable.Transaction {
	tx := k.stateManager.CreateTransaction()
	k.kt.Cleanup(tx.Dispose)
	return tx
}

// InTransaction runs fn in a new transaction that is committed when fn
// succeeds and aborted otherwise.
func (k *TestKit) InTransaction(ctx context.Context, fn func(ctx context.Context, tx *reliable.Transaction) error) error {
	tx := k.stateManager.CreateTransaction()
	defer tx.Dispose()

	if err := fn(ctx, tx); err != nil {
		k.logger.Debugf("transaction=(%d) aborted: %v", tx.TransactionID(), err)
		return err
	}
	return tx.CommitAsync(ctx)
}

// NewReplicaSet creates a replica set whose replicas are deleted when the
// test ends
func (k *TestKit) NewReplicaSet(factory replica.ServiceFactory, opts ...replica.Option) *replica.ReplicaSet {
	opts = append([]replica.Option{replica.WithLogger(k.logger)}, opts...)
	set := replica.NewReplicaSet(factory, opts...)
	k.kt.Cleanup(func() {
		if err := set.CloseAsync(context.Background()); err != nil {
			k.kt.Error(err.Error())
		}
	})
	return set
}

// AddReplica adds a replica in role to set
func (k *TestKit) AddReplica(ctx context.Context, set *replica.ReplicaSet, role replica.Role) *replica.Replica {
	added, err := set.AddReplicaAsync(ctx, role)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return added
}

// Dictionary returns the dictionary name of the testkit state manager
func Dictionary[K comparable, V any](ctx context.Context, k *TestKit, name string, opts ...reliable.CollectionOption) *reliable.Dictionary[K, V] {
	dictionary, err := reliable.GetOrAddDictionary[K, V](ctx, k.stateManager, name, opts...)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return dictionary
}

// Queue returns the queue name of the testkit state manager
func Queue[T any](ctx context.Context, k *TestKit, name string, opts ...reliable.CollectionOption) *reliable.Queue[T] {
	queue, err := reliable.GetOrAddQueue[T](ctx, k.stateManager, name, opts...)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return queue
}

// ConcurrentQueue returns the concurrent queue name of the testkit state manager
func ConcurrentQueue[T any](ctx context.Context, k *TestKit, name string, opts ...reliable.CollectionOption) *reliable.ConcurrentQueue[T] {
	queue, err := reliable.GetOrAddConcurrentQueue[T](ctx, k.stateManager, name, opts...)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return queue
}

// Snapshot returns the committed content of dictionary
func Snapshot[K comparable, V any](dictionary *reliable.Dictionary[K, V]) map[K]V {
	return dictionary.Transacted().Snapshot()
}
