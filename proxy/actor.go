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

package proxy

import (
	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/xsync"
)

// ActorFactory creates the actor of id on its first proxy request.
type ActorFactory func(id ActorID) (any, error)

// ActorProxyFactory hands out registered actor instances in place of
// remoting proxies. An actor is either registered directly or created on
// demand by the factory set with SetActorFactory.
type ActorProxyFactory struct {
	actors  *xsync.Map[ActorID, any]
	factory ActorFactory
}

// NewActorProxyFactory creates an empty ActorProxyFactory
func NewActorProxyFactory() *ActorProxyFactory {
	return &ActorProxyFactory{actors: xsync.NewMap[ActorID, any]()}
}

// RegisterActor binds actor to id, replacing any previous registration.
func (f *ActorProxyFactory) RegisterActor(id ActorID, actor any) {
	f.actors.Set(id, actor)
}

// UnregisterActor removes the actor bound to id.
func (f *ActorProxyFactory) UnregisterActor(id ActorID) {
	f.actors.Delete(id)
}

// SetActorFactory sets the factory creating unregistered actors. It must be
// called before the factory is shared.
func (f *ActorProxyFactory) SetActorFactory(factory ActorFactory) {
	f.factory = factory
}

// ActorIDs returns the ids of the known actors
func (f *ActorProxyFactory) ActorIDs() []ActorID {
	return f.actors.Keys()
}

// CreateActorProxy returns the actor bound to id as a T. Without a binding the
// actor factory, if any, creates and binds it.
func CreateActorProxy[T any](f *ActorProxyFactory, id ActorID) (T, error) {
	actor, ok := f.actors.Get(id)
	if !ok {
		var err error
		if actor, err = f.create(id); err != nil {
			var zero T
			return zero, err
		}
	}
	return as[T](actor)
}

func (f *ActorProxyFactory) create(id ActorID) (any, error) {
	if f.factory == nil {
		return nil, gerrors.NewErrActorNotRegistered(id.String())
	}

	created, err := f.factory(id)
	if err != nil {
		return nil, err
	}

	// a concurrent request may have bound the actor first
	actor, _ := f.actors.GetOrSet(id, func() any { return created })
	return actor, nil
}
