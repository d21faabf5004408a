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
	"maps"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/errorschain"
	"github.com/fabricmock/fabricmock/log"
	"github.com/fabricmock/fabricmock/reliable"
)

// Replica hosts one StatefulService and drives it through its role changes.
//
// Only a primary has open listeners and a running service loop. Lifecycle
// methods are serialized; Role and the lookups may be called at any time.
type Replica struct {
	id             int64
	serviceContext ServiceContext
	service        StatefulService
	stateManager   *reliable.StateManager
	logger         log.Logger

	role    atomic.Int32
	created atomic.Bool
	deleted atomic.Bool

	mu        sync.Mutex
	listeners []ReplicaListener
	addresses map[string]string
	run       *runLoop
}

// NewReplica creates a replica with its own state manager and the service
// built by factory. The replica is in the Unknown role until CreateAsync.
func NewReplica(id int64, factory ServiceFactory, opts ...Option) (*Replica, error) {
	return newReplica(id, factory, newOptions(opts...))
}

func newReplica(id int64, factory ServiceFactory, config *options) (*Replica, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.logger.With("replica", id)
	managerOpts := append([]reliable.Option{reliable.WithLogger(logger)}, config.managerOpts...)
	stateManager, err := reliable.NewStateManager(managerOpts...)
	if err != nil {
		return nil, err
	}

	serviceContext := ServiceContext{
		ServiceName: config.serviceName,
		PartitionID: config.partitionID,
		ReplicaID:   id,
	}

	service, err := factory(serviceContext, stateManager)
	if err != nil {
		return nil, err
	}

	return &Replica{
		id:             id,
		serviceContext: serviceContext,
		service:        service,
		stateManager:   stateManager,
		logger:         logger,
	}, nil
}

// ID returns the replica id
func (r *Replica) ID() int64 {
	return r.id
}

// Role returns the current role
func (r *Replica) Role() Role {
	return Role(r.role.Load())
}

// Service returns the hosted service
func (r *Replica) Service() StatefulService {
	return r.service
}

// StateManager returns the state manager owned by the replica
func (r *Replica) StateManager() *reliable.StateManager {
	return r.stateManager
}

// ServiceContext returns the description of the replica handed to the service
func (r *Replica) ServiceContext() ServiceContext {
	return r.serviceContext
}

// Addresses returns the addresses of the open listeners by listener name.
func (r *Replica) Addresses() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.addresses)
}

// IsDeleted reports whether the replica was deleted or aborted.
func (r *Replica) IsDeleted() bool {
	return r.deleted.Load()
}

// CreateAsync opens the service in role. A primary also opens its listeners
// and starts the service loop. A replica created as Unknown stays unassigned
// until it is promoted or demoted.
func (r *Replica) CreateAsync(ctx context.Context, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted.Load() {
		return gerrors.ErrReplicaDeleted
	}

	if r.created.Load() {
		return gerrors.ErrReplicaAlreadyCreated
	}

	switch role {
	case Unknown, Primary, ActiveSecondary, IdleSecondary:
	default:
		return gerrors.NewErrInvalidRoleTransition(Unknown, role)
	}

	if err := r.service.OpenAsync(ctx); err != nil {
		return err
	}

	r.created.Store(true)
	r.logger.Debugf("replica=(%d) opened", r.id)

	switch role {
	case Unknown:
		return nil
	case Primary:
		return r.promoteToPrimary(ctx)
	default:
		return r.changeRole(ctx, role)
	}
}

// PromoteToPrimaryAsync makes an active secondary the primary: listeners are
// opened, the role changes and a fresh service loop starts.
func (r *Replica) PromoteToPrimaryAsync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(Primary, ActiveSecondary); err != nil {
		return err
	}

	if r.Role() == Primary {
		return nil
	}
	return r.promoteToPrimary(ctx)
}

// PromoteToActiveSecondaryAsync makes an idle secondary or an unassigned
// replica an active secondary.
func (r *Replica) PromoteToActiveSecondaryAsync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(ActiveSecondary, IdleSecondary, Unknown); err != nil {
		return err
	}
	return r.changeRole(ctx, ActiveSecondary)
}

// DemoteToActiveSecondaryAsync makes the primary an active secondary. It
// waits for the active transactions of the state manager to end, then the
// role changes and listeners are closed while the service loop is canceled.
// When ctx is done first the role is kept.
func (r *Replica) DemoteToActiveSecondaryAsync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(ActiveSecondary, Primary); err != nil {
		return err
	}
	return r.demote(ctx, ActiveSecondary)
}

// DemoteToIdleSecondaryAsync makes the primary, an active secondary or an
// unassigned replica an idle secondary. Active transactions are waited for
// as in DemoteToActiveSecondaryAsync.
func (r *Replica) DemoteToIdleSecondaryAsync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(IdleSecondary, Primary, ActiveSecondary, Unknown); err != nil {
		return err
	}
	return r.demote(ctx, IdleSecondary)
}

// DeleteAsync aborts the active transactions, changes the role to None, tears
// down listeners and the service loop, then closes the service. Deleting
// twice is a no-op.
func (r *Replica) DeleteAsync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted.Load() {
		return nil
	}

	r.stateManager.AbortTransactions()

	var err error
	if r.created.Load() {
		err = errorschain.New(errorschain.ReturnAll()).
			AddErrorFn(func() error { return r.changeRole(ctx, None) }).
			AddErrorFn(func() error { return r.teardown(ctx) }).
			AddErrorFn(func() error { return r.service.CloseAsync(ctx) }).
			Error()
	} else {
		r.role.Store(int32(None))
	}

	r.deleted.Store(true)
	r.logger.Debugf("replica=(%d) deleted", r.id)
	return err
}

// Abort stops the replica immediately. Listeners and the service are aborted
// and the service loop is canceled.
func (r *Replica) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted.Load() {
		return
	}

	for _, listener := range r.listeners {
		listener.Listener.Abort()
	}
	r.listeners = nil
	r.addresses = nil

	if r.run != nil {
		r.run.cancel()
		<-r.run.done
		r.run = nil
	}

	r.stateManager.AbortTransactions()
	r.service.Abort()
	r.role.Store(int32(None))
	r.deleted.Store(true)
	r.logger.Warnf("replica=(%d) aborted", r.id)
}

// transition checks the replica is alive and its role is one of from, or
// already target.
func (r *Replica) transition(target Role, from ...Role) error {
	if r.deleted.Load() {
		return gerrors.ErrReplicaDeleted
	}

	current := r.Role()
	if !r.created.Load() {
		return gerrors.NewErrInvalidRoleTransition(current, target)
	}

	if current == target {
		return nil
	}

	for _, role := range from {
		if role == current {
			return nil
		}
	}
	return gerrors.NewErrInvalidRoleTransition(current, target)
}

func (r *Replica) promoteToPrimary(ctx context.Context) error {
	if err := r.openListeners(ctx); err != nil {
		return err
	}

	if err := r.changeRole(ctx, Primary); err != nil {
		return multierr.Append(err, r.teardown(ctx))
	}

	r.run = startRunLoop(r.service)
	return nil
}

func (r *Replica) demote(ctx context.Context, role Role) error {
	if r.Role() == role {
		return nil
	}

	return errorschain.New(errorschain.ReturnFirst()).
		AddErrorFn(func() error { return r.stateManager.WaitForTransactionsAsync(ctx) }).
		AddErrorFn(func() error { return r.changeRole(ctx, role) }).
		AddErrorFn(func() error { return r.teardown(ctx) }).
		Error()
}

func (r *Replica) changeRole(ctx context.Context, role Role) error {
	previous := r.Role()
	if err := r.service.ChangeRoleAsync(ctx, role); err != nil {
		return err
	}

	r.role.Store(int32(role))
	r.logger.Infof("replica=(%d) role changed from (%s) to (%s)", r.id, previous, role)
	return nil
}

// openListeners opens the service listeners in parallel. When one fails the
// others are aborted.
func (r *Replica) openListeners(ctx context.Context) error {
	listeners := r.service.CreateListeners()
	addresses := make([]string, len(listeners))
	opened := make([]bool, len(listeners))

	group, gctx := errgroup.WithContext(ctx)
	for index, listener := range listeners {
		group.Go(func() error {
			address, err := listener.Listener.OpenAsync(gctx)
			if err != nil {
				return gerrors.NewListenerError(listener.Name, err)
			}
			addresses[index] = address
			opened[index] = true
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		for index, listener := range listeners {
			if opened[index] {
				listener.Listener.Abort()
			}
		}
		return err
	}

	r.listeners = listeners
	r.addresses = make(map[string]string, len(listeners))
	for index, listener := range listeners {
		r.addresses[listener.Name] = addresses[index]
	}
	return nil
}

// teardown closes the open listeners while canceling the service loop.
func (r *Replica) teardown(ctx context.Context) error {
	listeners, run := r.listeners, r.run
	r.listeners, r.addresses, r.run = nil, nil, nil

	var errs [2]error
	var group errgroup.Group
	group.Go(func() error {
		errs[0] = closeListeners(ctx, listeners)
		return nil
	})
	group.Go(func() error {
		errs[1] = run.stop(ctx)
		return nil
	})
	_ = group.Wait()
	return multierr.Combine(errs[:]...)
}

func closeListeners(ctx context.Context, listeners []ReplicaListener) error {
	var (
		mu    sync.Mutex
		err   error
		group errgroup.Group
	)

	for _, listener := range listeners {
		group.Go(func() error {
			if cerr := listener.Listener.CloseAsync(ctx); cerr != nil {
				mu.Lock()
				err = multierr.Append(err, gerrors.NewListenerError(listener.Name, cerr))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = group.Wait()
	return err
}

// runLoop is one execution of the service loop with its own cancellation.
type runLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func startRunLoop(service StatefulService) *runLoop {
	ctx, cancel := context.WithCancel(context.Background())
	loop := &runLoop{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(loop.done)
		loop.err = service.RunAsync(ctx)
	}()
	return loop
}

// stop cancels the loop and waits for it to return. Cancellation is not
// reported as an error.
func (l *runLoop) stop(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.cancel()
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if l.err != nil && !errors.Is(l.err, context.Canceled) {
		return l.err
	}
	return nil
}
