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

	"github.com/google/uuid"

	"github.com/fabricmock/fabricmock/reliable"
)

// Listener is a communication endpoint opened while a replica is primary.
type Listener interface {
	// OpenAsync starts listening and returns the address clients use.
	OpenAsync(ctx context.Context) (string, error)
	// CloseAsync stops listening gracefully.
	CloseAsync(ctx context.Context) error
	// Abort stops listening immediately.
	Abort()
}

// ReplicaListener names a Listener created by a service.
type ReplicaListener struct {
	Name     string
	Listener Listener
}

// StatefulService is the service hosted by a replica.
type StatefulService interface {
	// CreateListeners returns the listeners to open when the replica becomes primary.
	CreateListeners() []ReplicaListener
	// OpenAsync is called once when the replica is created.
	OpenAsync(ctx context.Context) error
	// ChangeRoleAsync is called on every role change.
	ChangeRoleAsync(ctx context.Context, newRole Role) error
	// RunAsync runs while the replica is primary, until ctx is canceled.
	RunAsync(ctx context.Context) error
	// CloseAsync is called once when the replica is deleted.
	CloseAsync(ctx context.Context) error
	// Abort is called when the replica is aborted.
	Abort()
}

// ServiceContext describes the replica hosting a service.
type ServiceContext struct {
	ServiceName string
	PartitionID uuid.UUID
	ReplicaID   int64
}

// ServiceFactory creates the service of a replica. stateManager is owned by
// the replica.
type ServiceFactory func(serviceContext ServiceContext, stateManager *reliable.StateManager) (StatefulService, error)

// BaseService is a StatefulService doing nothing. Embed it to implement only
// the hooks a test cares about.
type BaseService struct{}

var _ StatefulService = BaseService{}

// CreateListeners returns no listener
func (BaseService) CreateListeners() []ReplicaListener { return nil }

// OpenAsync does nothing
func (BaseService) OpenAsync(context.Context) error { return nil }

// ChangeRoleAsync does nothing
func (BaseService) ChangeRoleAsync(context.Context, Role) error { return nil }

// RunAsync returns immediately
func (BaseService) RunAsync(context.Context) error { return nil }

// CloseAsync does nothing
func (BaseService) CloseAsync(context.Context) error { return nil }

// Abort does nothing
func (BaseService) Abort() {}

// ContextService is a StatefulService whose role changes and run loop are
// driven by a Context.
type ContextService struct {
	BaseService
	Context *Context
}

var _ StatefulService = (*ContextService)(nil)

// NewContextService creates a ContextService over the states of provider.
func NewContextService(provider StateProvider) *ContextService {
	return &ContextService{Context: NewContext(provider)}
}

// ChangeRoleAsync moves the Context to newRole.
func (s *ContextService) ChangeRoleAsync(ctx context.Context, newRole Role) error {
	return s.Context.ChangeRoleAsync(ctx, newRole)
}

// RunAsync runs the state of the current role.
func (s *ContextService) RunAsync(ctx context.Context) error {
	return s.Context.RunAsync(ctx)
}
