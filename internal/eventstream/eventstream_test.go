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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	t.Run("subscribers receive events in subscription order", func(t *testing.T) {
		stream := New[int]()
		var received []string
		stream.Subscribe(func(e int) { received = append(received, "first") })
		stream.Subscribe(func(e int) { received = append(received, "second") })

		stream.Publish(1)
		assert.Equal(t, []string{"first", "second"}, received)
		assert.Equal(t, 2, stream.SubscribersCount())
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		stream := New[string]()
		var received []string
		unsubscribe := stream.Subscribe(func(e string) { received = append(received, e) })

		stream.Publish("a")
		unsubscribe()
		unsubscribe()
		stream.Publish("b")

		assert.Equal(t, []string{"a"}, received)
		assert.Zero(t, stream.SubscribersCount())
	})

	t.Run("handlers may unsubscribe while handling", func(t *testing.T) {
		stream := New[int]()
		var count int
		var unsubscribe func()
		unsubscribe = stream.Subscribe(func(int) {
			count++
			unsubscribe()
		})

		stream.Publish(1)
		stream.Publish(2)
		assert.Equal(t, 1, count)
	})

	t.Run("close drops every subscriber", func(t *testing.T) {
		stream := New[int]()
		stream.Subscribe(func(int) { t.Fatal("unexpected event") })
		stream.Close()
		stream.Publish(1)
		assert.Zero(t, stream.SubscribersCount())
	})

	t.Run("concurrent publish and subscribe", func(t *testing.T) {
		stream := New[int]()
		var mu sync.Mutex
		total := 0
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unsubscribe := stream.Subscribe(func(e int) {
					mu.Lock()
					total += e
					mu.Unlock()
				})
				stream.Publish(1)
				unsubscribe()
			}()
		}
		wg.Wait()
		require.Zero(t, stream.SubscribersCount())
		mu.Lock()
		assert.Positive(t, total)
		mu.Unlock()
	})
}
