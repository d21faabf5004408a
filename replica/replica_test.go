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

package replica

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/reliable"
)

func newTestReplica(t *testing.T, configure func(*recordingService)) *Replica {
	t.Helper()
	replica, err := NewReplica(1, recordingFactory(configure))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = replica.DeleteAsync(context.Background())
	})
	return replica
}

func TestReplica(t *testing.T) {
	ctx := context.Background()

	t.Run("With service context", func(t *testing.T) {
		partitionID := uuid.New()
		var received ServiceContext
		replica, err := NewReplica(7, func(serviceContext ServiceContext, stateManager *reliable.StateManager) (StatefulService, error) {
			received = serviceContext
			require.NotNil(t, stateManager)
			return BaseService{}, nil
		}, WithPartitionID(partitionID), WithServiceName("fabric:/app/cart"))
		require.NoError(t, err)

		assert.EqualValues(t, 7, replica.ID())
		assert.Equal(t, Unknown, replica.Role())
		assert.Equal(t, received, replica.ServiceContext())
		assert.Equal(t, partitionID, received.PartitionID)
		assert.Equal(t, "fabric:/app/cart", received.ServiceName)
		assert.EqualValues(t, 7, received.ReplicaID)
	})
	t.Run("With invalid service name", func(t *testing.T) {
		_, err := NewReplica(1, recordingFactory(nil), WithServiceName("http://cart"))
		require.ErrorIs(t, err, gerrors.ErrInvalidServiceName)

		set := NewReplicaSet(recordingFactory(nil), WithServiceName(""))
		_, err = set.AddReplicaAsync(ctx, Primary)
		require.ErrorIs(t, err, gerrors.ErrInvalidServiceName)
		assert.Empty(t, set.Replicas())
	})
	t.Run("With factory error", func(t *testing.T) {
		_, err := NewReplica(1, func(ServiceContext, *reliable.StateManager) (StatefulService, error) {
			return nil, errors.New("boom")
		})
		require.EqualError(t, err, "boom")
	})
	t.Run("With primary opening listeners and running", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))

		service := serviceOf(replica)
		assert.True(t, service.opened.Load())
		assert.Equal(t, Primary, replica.Role())
		assert.Equal(t, map[string]string{"http": "mock://http"}, replica.Addresses())

		listeners := service.lastListeners()
		require.Len(t, listeners, 1)
		assert.True(t, listeners[0].opened.Load())
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)
	})
	t.Run("With active secondary having no listener", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, ActiveSecondary))

		service := serviceOf(replica)
		assert.Equal(t, ActiveSecondary, replica.Role())
		assert.Empty(t, replica.Addresses())
		assert.Nil(t, service.lastListeners())
		assert.Zero(t, service.runs.Load())
	})
	t.Run("With create called twice", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, IdleSecondary))
		require.ErrorIs(t, replica.CreateAsync(ctx, IdleSecondary), gerrors.ErrReplicaAlreadyCreated)
	})
	t.Run("With invalid initial role", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.ErrorIs(t, replica.CreateAsync(ctx, None), gerrors.ErrInvalidRoleTransition)
		assert.False(t, serviceOf(replica).opened.Load())
	})
	t.Run("With transition before create", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.ErrorIs(t, replica.PromoteToPrimaryAsync(ctx), gerrors.ErrInvalidRoleTransition)
	})
	t.Run("With promotion to primary", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, ActiveSecondary))
		require.NoError(t, replica.PromoteToPrimaryAsync(ctx))

		service := serviceOf(replica)
		assert.Equal(t, Primary, replica.Role())
		assert.NotEmpty(t, replica.Addresses())
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)

		// promoting a primary is a no-op
		require.NoError(t, replica.PromoteToPrimaryAsync(ctx))
		assert.EqualValues(t, 1, service.runs.Load())
	})
	t.Run("With demotion flipping the role before closing listeners", func(t *testing.T) {
		var replica *Replica
		roleAtClose := atomic.NewInt32(-1)
		replica = newTestReplica(t, func(service *recordingService) {
			service.listenerFactory = func() []*fakeListener {
				return []*fakeListener{{
					name: "http",
					onClose: func() {
						roleAtClose.Store(int32(replica.Role()))
					},
				}}
			}
		})

		require.NoError(t, replica.CreateAsync(ctx, Primary))
		service := serviceOf(replica)
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)

		require.NoError(t, replica.DemoteToActiveSecondaryAsync(ctx))
		assert.Equal(t, ActiveSecondary, replica.Role())
		assert.EqualValues(t, ActiveSecondary, roleAtClose.Load())
		assert.True(t, service.lastListeners()[0].closed.Load())
		assert.False(t, service.running.Load())
		assert.Empty(t, replica.Addresses())
		assert.Equal(t, []Role{Primary, ActiveSecondary}, service.changedRoles())
	})
	t.Run("With new run loop after promotion again", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))
		require.NoError(t, replica.DemoteToActiveSecondaryAsync(ctx))
		require.NoError(t, replica.PromoteToPrimaryAsync(ctx))

		service := serviceOf(replica)
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)
		assert.EqualValues(t, 2, service.runs.Load())

		service.mu.Lock()
		assert.Len(t, service.listeners, 2)
		service.mu.Unlock()
	})
	t.Run("With demotion of an idle secondary", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, IdleSecondary))
		require.ErrorIs(t, replica.DemoteToActiveSecondaryAsync(ctx), gerrors.ErrInvalidRoleTransition)
		assert.Equal(t, IdleSecondary, replica.Role())
	})
	t.Run("With demotion to idle secondary", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))
		require.NoError(t, replica.DemoteToIdleSecondaryAsync(ctx))
		assert.Equal(t, IdleSecondary, replica.Role())
		assert.True(t, serviceOf(replica).lastListeners()[0].closed.Load())

		require.NoError(t, replica.PromoteToActiveSecondaryAsync(ctx))
		assert.Equal(t, ActiveSecondary, replica.Role())
		require.NoError(t, replica.DemoteToIdleSecondaryAsync(ctx))
		assert.Equal(t, IdleSecondary, replica.Role())
	})
	t.Run("With unassigned replica", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Unknown))

		service := serviceOf(replica)
		assert.True(t, service.opened.Load())
		assert.Equal(t, Unknown, replica.Role())
		assert.Empty(t, replica.Addresses())
		assert.Zero(t, service.runs.Load())
		require.ErrorIs(t, replica.PromoteToPrimaryAsync(ctx), gerrors.ErrInvalidRoleTransition)

		require.NoError(t, replica.PromoteToActiveSecondaryAsync(ctx))
		assert.Equal(t, ActiveSecondary, replica.Role())
	})
	t.Run("With demotion waiting for open transactions", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))

		manager := replica.StateManager()
		orders, err := reliable.GetOrAddDictionary[string, int](ctx, manager, "orders")
		require.NoError(t, err)
		tx := manager.CreateTransaction()
		require.NoError(t, orders.AddAsync(ctx, tx, "o-1", 1))

		demoted := make(chan error, 1)
		go func() {
			demoted <- replica.DemoteToActiveSecondaryAsync(ctx)
		}()

		assert.Never(t, func() bool { return replica.Role() != Primary }, 50*time.Millisecond, 5*time.Millisecond)
		assert.False(t, serviceOf(replica).lastListeners()[0].closed.Load())

		require.NoError(t, tx.CommitAsync(ctx))
		select {
		case err := <-demoted:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("demotion did not complete")
		}
		assert.Equal(t, ActiveSecondary, replica.Role())
		assert.EqualValues(t, 1, orders.Count())
	})
	t.Run("With demotion canceled while transactions are open", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))

		tx := replica.StateManager().CreateTransaction()
		defer tx.Dispose()

		demoteCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := replica.DemoteToIdleSecondaryAsync(demoteCtx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, Primary, replica.Role())
		assert.NotEmpty(t, replica.Addresses())
		assert.Equal(t, reliable.TransactionActive, tx.State())
	})
	t.Run("With delete aborting open transactions", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))

		tx := replica.StateManager().CreateTransaction()
		require.NoError(t, replica.DeleteAsync(ctx))
		assert.True(t, tx.IsAborted())
		assert.Zero(t, replica.StateManager().ActiveTransactions())
		assert.Equal(t, None, replica.Role())
	})
	t.Run("With primary promoted to active secondary", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))
		require.ErrorIs(t, replica.PromoteToActiveSecondaryAsync(ctx), gerrors.ErrInvalidRoleTransition)
		assert.Equal(t, Primary, replica.Role())
	})
	t.Run("With failing listener", func(t *testing.T) {
		var healthy *fakeListener
		replica := newTestReplica(t, func(service *recordingService) {
			service.listenerFactory = func() []*fakeListener {
				healthy = &fakeListener{name: "http"}
				return []*fakeListener{healthy, {name: "grpc", openErr: errors.New("port in use")}}
			}
		})

		require.NoError(t, replica.CreateAsync(ctx, ActiveSecondary))
		err := replica.PromoteToPrimaryAsync(ctx)
		require.Error(t, err)

		var listenerErr *gerrors.ListenerError
		require.ErrorAs(t, err, &listenerErr)
		assert.Equal(t, "grpc", listenerErr.Name())
		assert.True(t, healthy.aborted.Load())
		assert.Equal(t, ActiveSecondary, replica.Role())
		assert.Zero(t, serviceOf(replica).runs.Load())
	})
	t.Run("With listener close error", func(t *testing.T) {
		replica := newTestReplica(t, func(service *recordingService) {
			service.listenerFactory = func() []*fakeListener {
				return []*fakeListener{{name: "http", closeErr: errors.New("stuck")}}
			}
		})

		require.NoError(t, replica.CreateAsync(ctx, Primary))
		err := replica.DemoteToActiveSecondaryAsync(ctx)

		var listenerErr *gerrors.ListenerError
		require.ErrorAs(t, err, &listenerErr)
		assert.Equal(t, "http", listenerErr.Name())
		assert.Equal(t, ActiveSecondary, replica.Role())
	})
	t.Run("With run loop error", func(t *testing.T) {
		replica := newTestReplica(t, func(service *recordingService) {
			service.runErr = errors.New("crashed")
		})

		require.NoError(t, replica.CreateAsync(ctx, Primary))
		require.EqualError(t, replica.DemoteToActiveSecondaryAsync(ctx), "crashed")
	})
	t.Run("With delete", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))
		service := serviceOf(replica)
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)

		require.NoError(t, replica.DeleteAsync(ctx))
		assert.Equal(t, None, replica.Role())
		assert.True(t, replica.IsDeleted())
		assert.True(t, service.closed.Load())
		assert.True(t, service.lastListeners()[0].closed.Load())
		assert.False(t, service.running.Load())

		require.NoError(t, replica.DeleteAsync(ctx))
		require.ErrorIs(t, replica.PromoteToPrimaryAsync(ctx), gerrors.ErrReplicaDeleted)
		require.ErrorIs(t, replica.CreateAsync(ctx, Primary), gerrors.ErrReplicaDeleted)
	})
	t.Run("With delete before create", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.DeleteAsync(ctx))
		assert.Equal(t, None, replica.Role())
		assert.False(t, serviceOf(replica).closed.Load())
	})
	t.Run("With abort", func(t *testing.T) {
		replica := newTestReplica(t, nil)
		require.NoError(t, replica.CreateAsync(ctx, Primary))
		service := serviceOf(replica)
		require.Eventually(t, service.running.Load, time.Second, 5*time.Millisecond)

		replica.Abort()
		assert.Equal(t, None, replica.Role())
		assert.True(t, replica.IsDeleted())
		assert.True(t, service.aborted.Load())
		assert.True(t, service.lastListeners()[0].aborted.Load())
		assert.False(t, service.running.Load())
	})
	t.Run("With context driven service", func(t *testing.T) {
		provider := newTestProvider()
		replica, err := NewReplica(1, func(ServiceContext, *reliable.StateManager) (StatefulService, error) {
			return NewContextService(provider), nil
		})
		require.NoError(t, err)

		require.NoError(t, replica.CreateAsync(ctx, ActiveSecondary))
		require.NoError(t, replica.PromoteToPrimaryAsync(ctx))

		service := replica.Service().(*ContextService)
		assert.Equal(t, Primary, service.Context.Role())
		response, err := service.Context.RequestAsync(ctx, "ping")
		require.NoError(t, err)
		assert.Equal(t, "ping", response)

		require.NoError(t, replica.DeleteAsync(ctx))
		assert.Equal(t, None, service.Context.Role())
		assert.Equal(t, []Role{None}, provider.primary.left)
	})
}
