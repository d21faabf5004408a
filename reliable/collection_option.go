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
	"github.com/fabricmock/fabricmock/collection"
)

// CollectionOption configures a collection created by the state manager.
type CollectionOption interface {
	// Apply sets the CollectionOption value of a collection configuration.
	Apply(config *collectionConfig)
}

var _ CollectionOption = CollectionOptionFunc(nil)

// CollectionOptionFunc implements the CollectionOption interface.
type CollectionOptionFunc func(config *collectionConfig)

// Apply applies the option
func (f CollectionOptionFunc) Apply(config *collectionConfig) {
	f(config)
}

type collectionConfig struct {
	options         []collection.Option
	keySerializer   any
	valueSerializer any
}

func newCollectionConfig(opts ...CollectionOption) *collectionConfig {
	config := new(collectionConfig)
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// WithKeySerializer sets the serializer of dictionary keys.
func WithKeySerializer[K any](serializer Serializer[K]) CollectionOption {
	return CollectionOptionFunc(func(config *collectionConfig) {
		config.keySerializer = serializer
	})
}

// WithValueSerializer sets the serializer of dictionary values and queue items.
func WithValueSerializer[V any](serializer Serializer[V]) CollectionOption {
	return CollectionOptionFunc(func(config *collectionConfig) {
		config.valueSerializer = serializer
	})
}

// WithKeyComparer sets the key order used by ordered dictionary enumerations.
func WithKeyComparer[K any](compare func(a, b K) int) CollectionOption {
	return CollectionOptionFunc(func(config *collectionConfig) {
		config.options = append(config.options, collection.WithKeyComparer(compare))
	})
}

// WithValueEqual sets the value equality used by TryUpdateAsync.
func WithValueEqual[V any](equal func(a, b V) bool) CollectionOption {
	return CollectionOptionFunc(func(config *collectionConfig) {
		config.options = append(config.options, collection.WithValueEqual(equal))
	})
}
