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
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	gerrors "github.com/fabricmock/fabricmock/errors"
)

// Serializer turns values of type T into bytes and back. Serializers are only
// used to take and restore backups; collections keep values in memory as is.
type Serializer[T any] interface {
	Marshal(value T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// MsgpackSerializer is the default Serializer. It encodes with MessagePack.
type MsgpackSerializer[T any] struct{}

var _ Serializer[any] = MsgpackSerializer[any]{}

// Marshal encodes value
func (MsgpackSerializer[T]) Marshal(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

// Unmarshal decodes data
func (MsgpackSerializer[T]) Unmarshal(data []byte) (T, error) {
	var value T
	err := msgpack.Unmarshal(data, &value)
	return value, err
}

// RegisterSerializer makes serializer the one used for T by every collection
// of the state manager that does not set its own.
func RegisterSerializer[T any](manager *StateManager, serializer Serializer[T]) {
	manager.serializers.Set(reflect.TypeFor[T](), serializer)
}

// serializerFor picks the serializer of T: the collection option first, then
// the state manager registry and finally MessagePack.
func serializerFor[T any](manager *StateManager, option any) (Serializer[T], error) {
	if option != nil {
		serializer, ok := option.(Serializer[T])
		if !ok {
			return nil, gerrors.NewErrSerializerNotFound(typeName[T]())
		}
		return serializer, nil
	}

	if registered, ok := manager.serializers.Get(reflect.TypeFor[T]()); ok {
		if serializer, ok := registered.(Serializer[T]); ok {
			return serializer, nil
		}
	}
	return MsgpackSerializer[T]{}, nil
}

func typeName[T any]() string {
	return fmt.Sprintf("%v", reflect.TypeFor[T]())
}
