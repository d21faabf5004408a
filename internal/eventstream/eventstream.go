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

package eventstream

import (
	"slices"
	"sync"
)

// Stream delivers events of type E to its subscribers, synchronously and in
// subscription order, on the publishing goroutine.
type Stream[E any] struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers []subscriber[E]
}

type subscriber[E any] struct {
	id      uint64
	handler func(E)
}

// New creates a Stream without subscribers.
func New[E any]() *Stream[E] {
	return &Stream[E]{}
}

// Subscribe adds handler to the stream and returns a function removing it.
// The returned function is safe to call more than once.
func (s *Stream[E]) Subscribe(handler func(E)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber[E]{id: id, handler: handler})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber[E]) bool {
				return sub.id == id
			})
			s.mu.Unlock()
		})
	}
}

// Publish hands event to every current subscriber. Subscribers may subscribe
// or unsubscribe from within a handler; the change applies to the next event.
func (s *Stream[E]) Publish(event E) {
	s.mu.RLock()
	subscribers := slices.Clone(s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subscribers {
		sub.handler(event)
	}
}

// SubscribersCount returns the number of subscribers.
func (s *Stream[E]) SubscribersCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close removes every subscriber.
func (s *Stream[E]) Close() {
	s.mu.Lock()
	s.subscribers = nil
	s.mu.Unlock()
}
