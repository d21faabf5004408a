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
	"strconv"

	"github.com/google/uuid"
)

// PartitionKind is the kind of a PartitionKey.
type PartitionKind int

const (
	// SingletonPartition is the only partition of an unpartitioned service.
	SingletonPartition PartitionKind = iota
	// Int64Partition is a ranged partition addressed by an int64 key.
	Int64Partition
	// NamedPartition is a partition addressed by name.
	NamedPartition
)

// PartitionKey addresses one partition of a service. The zero value is the
// singleton partition.
type PartitionKey struct {
	kind  PartitionKind
	value string
}

// SingletonPartitionKey returns the key of the singleton partition
func SingletonPartitionKey() PartitionKey {
	return PartitionKey{kind: SingletonPartition}
}

// Int64PartitionKey returns the key of a ranged partition
func Int64PartitionKey(key int64) PartitionKey {
	return PartitionKey{kind: Int64Partition, value: strconv.FormatInt(key, 10)}
}

// NamedPartitionKey returns the key of a named partition
func NamedPartitionKey(name string) PartitionKey {
	return PartitionKey{kind: NamedPartition, value: name}
}

// Kind returns the partition kind
func (k PartitionKey) Kind() PartitionKind {
	return k.kind
}

// String returns a printable form of the key
func (k PartitionKey) String() string {
	switch k.kind {
	case Int64Partition:
		return "int64:" + k.value
	case NamedPartition:
		return "named:" + k.value
	default:
		return "singleton"
	}
}

// ActorIDKind is the kind of value an ActorID wraps.
type ActorIDKind int

const (
	// StringActorID wraps a string.
	StringActorID ActorIDKind = iota
	// Int64ActorID wraps an int64.
	Int64ActorID
	// UUIDActorID wraps a UUID.
	UUIDActorID
)

// String returns the name of the kind
func (k ActorIDKind) String() string {
	switch k {
	case StringActorID:
		return "String"
	case Int64ActorID:
		return "Int64"
	case UUIDActorID:
		return "UUID"
	default:
		return "Invalid"
	}
}

// ActorID identifies an actor. Two ids are equal when they have the same
// kind and value, so ActorID can be used as a map key.
type ActorID struct {
	kind   ActorIDKind
	str    string
	number int64
	id     uuid.UUID
}

// NewActorID creates a string ActorID
func NewActorID(id string) ActorID {
	return ActorID{kind: StringActorID, str: id}
}

// NewInt64ActorID creates an int64 ActorID
func NewInt64ActorID(id int64) ActorID {
	return ActorID{kind: Int64ActorID, number: id}
}

// NewUUIDActorID creates a UUID ActorID
func NewUUIDActorID(id uuid.UUID) ActorID {
	return ActorID{kind: UUIDActorID, id: id}
}

// NewRandomActorID creates a UUID ActorID from a random UUID
func NewRandomActorID() ActorID {
	return NewUUIDActorID(uuid.New())
}

// Kind returns the kind of the id
func (a ActorID) Kind() ActorIDKind {
	return a.kind
}

// StringID returns the wrapped string.
func (a ActorID) StringID() string {
	return a.str
}

// Int64ID returns the wrapped int64.
func (a ActorID) Int64ID() int64 {
	return a.number
}

// UUIDID returns the wrapped UUID.
func (a ActorID) UUIDID() uuid.UUID {
	return a.id
}

// String returns the wrapped value in its printable form
func (a ActorID) String() string {
	switch a.kind {
	case Int64ActorID:
		return strconv.FormatInt(a.number, 10)
	case UUIDActorID:
		return a.id.String()
	default:
		return a.str
	}
}
