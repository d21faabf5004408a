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

package collection

import (
	"reflect"
)

// Option configures a collection.
type Option interface {
	// Apply sets the Option value of a collection configuration.
	Apply(opts *options)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(opts *options)

// Apply applies the option
func (f OptionFunc) Apply(opts *options) {
	f(opts)
}

type options struct {
	keyComparer any
	valueEqual  any
}

func newOptions(opts ...Option) *options {
	config := new(options)
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// WithKeyComparer sets the total order used by Ordered enumerations.
// compare returns a negative number when a < b, zero when equal and a
// positive number otherwise. An option whose type does not match the key
// type of the collection is ignored.
func WithKeyComparer[K any](compare func(a, b K) int) Option {
	return OptionFunc(func(opts *options) {
		opts.keyComparer = compare
	})
}

// WithValueEqual sets the equality used to compare values in TryUpdateAsync.
// Values are compared with reflect.DeepEqual when it is not set.
func WithValueEqual[V any](equal func(a, b V) bool) Option {
	return OptionFunc(func(opts *options) {
		opts.valueEqual = equal
	})
}

func keyComparer[K any](opts *options) func(a, b K) int {
	if compare, ok := opts.keyComparer.(func(a, b K) int); ok {
		return compare
	}
	return nil
}

func valueEqual[V any](opts *options) func(a, b V) bool {
	if equal, ok := opts.valueEqual.(func(a, b V) bool); ok {
		return equal
	}
	return func(a, b V) bool {
		return reflect.DeepEqual(a, b)
	}
}
