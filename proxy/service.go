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
	"fmt"
	"reflect"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/internal/xsync"
)

type serviceKey struct {
	uri       string
	partition PartitionKey
}

// ServiceProxyFactory hands out registered service instances in place of
// remoting proxies.
type ServiceProxyFactory struct {
	services *xsync.Map[serviceKey, any]
}

// NewServiceProxyFactory creates an empty ServiceProxyFactory
func NewServiceProxyFactory() *ServiceProxyFactory {
	return &ServiceProxyFactory{services: xsync.NewMap[serviceKey, any]()}
}

// RegisterService binds service to the partition of serviceURI, replacing
// any previous registration.
func (f *ServiceProxyFactory) RegisterService(serviceURI string, partition PartitionKey, service any) {
	f.services.Set(serviceKey{uri: serviceURI, partition: partition}, service)
}

// UnregisterService removes the registration of the partition of serviceURI.
func (f *ServiceProxyFactory) UnregisterService(serviceURI string, partition PartitionKey) {
	f.services.Delete(serviceKey{uri: serviceURI, partition: partition})
}

// CreateServiceProxy returns the service registered for the partition of
// serviceURI as a T.
func CreateServiceProxy[T any](f *ServiceProxyFactory, serviceURI string, partition PartitionKey) (T, error) {
	var zero T
	service, ok := f.services.Get(serviceKey{uri: serviceURI, partition: partition})
	if !ok {
		return zero, gerrors.NewErrServiceNotRegistered(serviceURI, partition.String())
	}
	return as[T](service)
}

func as[T any](instance any) (T, error) {
	typed, ok := instance.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T is not %s", gerrors.ErrProxyTypeMismatch, instance, reflect.TypeFor[T]())
	}
	return typed, nil
}
