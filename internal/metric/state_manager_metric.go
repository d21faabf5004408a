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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// StateManagerMetric groups the instruments describing a reliable state manager.
//
// Instruments:
//   - statemanager.transactions.committed (Int64Counter)
//   - statemanager.transactions.aborted   (Int64Counter)
//   - statemanager.transactions.duration  (Int64Histogram, unit: ms)
//   - statemanager.collections.count      (Int64UpDownCounter)
type StateManagerMetric struct {
	committedCount   metric.Int64Counter
	abortedCount     metric.Int64Counter
	duration         metric.Int64Histogram
	collectionsCount metric.Int64UpDownCounter
}

// NewStateManagerMetric creates the state manager instruments
func NewStateManagerMetric(meter metric.Meter) (*StateManagerMetric, error) {
	instruments := new(StateManagerMetric)
	var err error

	if instruments.committedCount, err = meter.Int64Counter(
		"statemanager.transactions.committed",
		metric.WithDescription("Total number of committed transactions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create committedCount instrument, %w", err)
	}

	if instruments.abortedCount, err = meter.Int64Counter(
		"statemanager.transactions.aborted",
		metric.WithDescription("Total number of aborted transactions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create abortedCount instrument, %w", err)
	}

	if instruments.duration, err = meter.Int64Histogram(
		"statemanager.transactions.duration",
		metric.WithDescription("The lifetime of a transaction in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration instrument, %w", err)
	}

	if instruments.collectionsCount, err = meter.Int64UpDownCounter(
		"statemanager.collections.count",
		metric.WithDescription("Number of registered reliable collections"),
	); err != nil {
		return nil, fmt.Errorf("failed to create collectionsCount instrument, %w", err)
	}

	return instruments, nil
}

// CommittedCount returns the counter of committed transactions
func (x *StateManagerMetric) CommittedCount() metric.Int64Counter {
	return x.committedCount
}

// AbortedCount returns the counter of aborted transactions
func (x *StateManagerMetric) AbortedCount() metric.Int64Counter {
	return x.abortedCount
}

// Duration returns the histogram of transaction lifetimes in milliseconds
func (x *StateManagerMetric) Duration() metric.Int64Histogram {
	return x.duration
}

// CollectionsCount returns the number of registered collections
func (x *StateManagerMetric) CollectionsCount() metric.Int64UpDownCounter {
	return x.collectionsCount
}
