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
	"errors"
	"regexp"

	"github.com/google/uuid"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/validation"
	"github.com/fabricmock/fabricmock/log"
	"github.com/fabricmock/fabricmock/reliable"
)

// DefaultServiceName is the service name used when none is set.
const DefaultServiceName = "fabric:/mock/service"

var serviceNamePattern = regexp.MustCompile(`^fabric:/\S+$`)

type options struct {
	logger      log.Logger
	managerOpts []reliable.Option
	partitionID uuid.UUID
	serviceName string
}

func newOptions(opts ...Option) *options {
	config := &options{
		logger:      log.DiscardLogger,
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.partitionID == uuid.Nil {
		config.partitionID = uuid.New()
	}
	return config
}

// Validate checks the options
func (o *options) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewPatternValidator(serviceNamePattern, o.serviceName, gerrors.ErrInvalidServiceName)).
		AddAssertion(o.logger != nil, errors.New("logger is required")).
		Validate()
}

// Option is the interface that applies a replica or replica set option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *options)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *options)

// Apply applies the option
func (f OptionFunc) Apply(config *options) {
	f(config)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *options) {
		config.logger = logger
	})
}

// WithStateManagerOptions sets the options of the state manager created for
// every replica.
func WithStateManagerOptions(opts ...reliable.Option) Option {
	return OptionFunc(func(config *options) {
		config.managerOpts = append(config.managerOpts, opts...)
	})
}

// WithPartitionID sets the partition the replicas belong to. A random id is
// used by default.
func WithPartitionID(partitionID uuid.UUID) Option {
	return OptionFunc(func(config *options) {
		config.partitionID = partitionID
	})
}

// WithServiceName sets the name of the hosted service.
func WithServiceName(name string) Option {
	return OptionFunc(func(config *options) {
		config.serviceName = name
	})
}
