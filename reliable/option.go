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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fabricmock/fabricmock/log"
)

// Option is the interface that applies a StateManager option.
type Option interface {
	// Apply sets the Option value of a StateManager.
	Apply(manager *StateManager)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(manager *StateManager)

// Apply applies the option
func (f OptionFunc) Apply(manager *StateManager) {
	f(manager)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(manager *StateManager) {
		manager.logger = logger
	})
}

// WithLockTimeout sets the lock timeout used by the collections of the state
// manager. A value <= 0 means lock.DefaultTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return OptionFunc(func(manager *StateManager) {
		manager.lockTimeout = timeout
	})
}

// WithMeterProvider sets the OpenTelemetry MeterProvider used to record
// transaction and collection metrics.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(manager *StateManager) {
		manager.meterProvider = provider
	})
}
