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
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/fabricmock/fabricmock/reliable"
)

type fakeListener struct {
	name     string
	openErr  error
	closeErr error
	onClose  func()

	opened  atomic.Bool
	closed  atomic.Bool
	aborted atomic.Bool
}

func (l *fakeListener) OpenAsync(context.Context) (string, error) {
	if l.openErr != nil {
		return "", l.openErr
	}
	l.opened.Store(true)
	return fmt.Sprintf("mock://%s", l.name), nil
}

func (l *fakeListener) CloseAsync(context.Context) error {
	if l.onClose != nil {
		l.onClose()
	}
	l.closed.Store(true)
	return l.closeErr
}

func (l *fakeListener) Abort() {
	l.aborted.Store(true)
}

// recordingService records the calls made by its replica. Every call to
// CreateListeners creates fresh listeners from listenerFactory.
type recordingService struct {
	BaseService
	listenerFactory func() []*fakeListener
	runErr          error

	opened  atomic.Bool
	closed  atomic.Bool
	aborted atomic.Bool
	running atomic.Bool
	runs    atomic.Int32

	mu        sync.Mutex
	roles     []Role
	listeners [][]*fakeListener
}

func (s *recordingService) CreateListeners() []ReplicaListener {
	if s.listenerFactory == nil {
		return nil
	}

	listeners := s.listenerFactory()
	s.mu.Lock()
	s.listeners = append(s.listeners, listeners)
	s.mu.Unlock()

	out := make([]ReplicaListener, 0, len(listeners))
	for _, listener := range listeners {
		out = append(out, ReplicaListener{Name: listener.name, Listener: listener})
	}
	return out
}

func (s *recordingService) OpenAsync(context.Context) error {
	s.opened.Store(true)
	return nil
}

func (s *recordingService) ChangeRoleAsync(_ context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, role)
	return nil
}

func (s *recordingService) RunAsync(ctx context.Context) error {
	s.runs.Inc()
	if s.runErr != nil {
		return s.runErr
	}
	s.running.Store(true)
	defer s.running.Store(false)
	<-ctx.Done()
	return ctx.Err()
}

func (s *recordingService) CloseAsync(context.Context) error {
	s.closed.Store(true)
	return nil
}

func (s *recordingService) Abort() {
	s.aborted.Store(true)
}

func (s *recordingService) changedRoles() []Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Role(nil), s.roles...)
}

// lastListeners returns the listeners created by the last promotion.
func (s *recordingService) lastListeners() []*fakeListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listeners) == 0 {
		return nil
	}
	return s.listeners[len(s.listeners)-1]
}

func singleListener() []*fakeListener {
	return []*fakeListener{{name: "http"}}
}

func recordingFactory(configure func(*recordingService)) ServiceFactory {
	return func(ServiceContext, *reliable.StateManager) (StatefulService, error) {
		service := &recordingService{listenerFactory: singleListener}
		if configure != nil {
			configure(service)
		}
		return service, nil
	}
}

func serviceOf(replica *Replica) *recordingService {
	return replica.Service().(*recordingService)
}
