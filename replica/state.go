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
	"sync"

	gerrors "github.com/fabricmock/fabricmock/errors"
)

// State is the behavior of a service while it holds a given role.
type State interface {
	// ChangeRoleAsync is called on the state being left, before the switch.
	ChangeRoleAsync(ctx context.Context, newRole Role) error
	// RunAsync runs the work of the role until ctx is done.
	RunAsync(ctx context.Context) error
	// RequestAsync serves a request.
	RequestAsync(ctx context.Context, request any) (any, error)
}

// StateProvider maps a role to the State implementing it.
type StateProvider interface {
	State(role Role) State
}

// StateProviderFunc implements StateProvider.
type StateProviderFunc func(role Role) State

// State returns the state of role
func (f StateProviderFunc) State(role Role) State {
	return f(role)
}

// BaseState does nothing and refuses requests. It is the behavior of every
// role that does not serve traffic.
type BaseState struct {
	Role Role
}

var _ State = BaseState{}

// ChangeRoleAsync does nothing
func (BaseState) ChangeRoleAsync(context.Context, Role) error {
	return nil
}

// RunAsync does nothing
func (BaseState) RunAsync(context.Context) error {
	return nil
}

// RequestAsync fails with errors.ErrNotPrimary.
func (s BaseState) RequestAsync(context.Context, any) (any, error) {
	return nil, gerrors.NewErrNotPrimary(s.Role)
}

// Context is a state machine switching between the States of a provider as
// the role changes. It starts in the Unknown role.
type Context struct {
	provider StateProvider

	// transition serializes role changes. mu only guards role and state so
	// that hooks can read them.
	transition sync.Mutex

	mu    sync.RWMutex
	role  Role
	state State
}

// NewContext creates a Context in the Unknown role.
func NewContext(provider StateProvider) *Context {
	return &Context{
		provider: provider,
		role:     Unknown,
		state:    provider.State(Unknown),
	}
}

// Role returns the current role.
func (c *Context) Role() Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// ChangeRoleAsync moves the machine to newRole. Changing to the current role
// is a no-op. Otherwise the state being left is notified first and the
// switch only happens when it succeeds.
func (c *Context) ChangeRoleAsync(ctx context.Context, newRole Role) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.RLock()
	role, state := c.role, c.state
	c.mu.RUnlock()
	if newRole == role {
		return nil
	}

	if err := state.ChangeRoleAsync(ctx, newRole); err != nil {
		return err
	}

	next := c.provider.State(newRole)
	c.mu.Lock()
	c.state = next
	c.role = newRole
	c.mu.Unlock()
	return nil
}

// RunAsync runs the current state.
func (c *Context) RunAsync(ctx context.Context) error {
	return c.current().RunAsync(ctx)
}

// RequestAsync hands request to the current state.
func (c *Context) RequestAsync(ctx context.Context, request any) (any, error) {
	return c.current().RequestAsync(ctx, request)
}

func (c *Context) current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
