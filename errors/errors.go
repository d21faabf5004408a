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

package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLockTimeout is returned when a lock cannot be granted within the caller's timeout.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrLockCanceled is returned when the caller's context is done while waiting for a lock.
	// It is always joined with the context error.
	ErrLockCanceled = errors.New("lock acquisition canceled")

	// ErrKeyAlreadyExists is returned when adding a key that is already present.
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrUnorderedKeys is returned when an ordered enumeration is requested on a
	// collection that was not configured with a key comparer.
	ErrUnorderedKeys = errors.New("ordered enumeration requires a key comparer")

	// ErrNilTransaction is returned when an operation is given a nil transaction.
	ErrNilTransaction = errors.New("transaction is required")

	// ErrTransactionEnded is returned when an already committed or aborted
	// transaction is used for a new operation.
	ErrTransactionEnded = errors.New("transaction has already ended")

	// ErrTransactionCommitted is returned when aborting a committed transaction.
	ErrTransactionCommitted = errors.New("transaction is already committed")

	// ErrTransactionAborted is returned when committing an aborted transaction.
	ErrTransactionAborted = errors.New("transaction is already aborted")

	// ErrCollectionNotFound is returned when a named collection is not registered.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionTypeMismatch is returned when a collection name is already
	// registered with a different kind or element types.
	ErrCollectionTypeMismatch = errors.New("collection type mismatch")

	// ErrInvalidCollectionName is returned when a collection name is empty.
	ErrInvalidCollectionName = errors.New("collection name is required")

	// ErrSerializerNotFound is returned when no serializer is available for a type.
	ErrSerializerNotFound = errors.New("serializer not found")

	// ErrInvalidBackup is returned when a backup file cannot be restored.
	ErrInvalidBackup = errors.New("invalid backup")

	// ErrNotPrimary is returned when a request is served by a replica that is not primary.
	ErrNotPrimary = errors.New("replica is not primary")

	// ErrInvalidRoleTransition is returned when a replica cannot move to the requested role.
	ErrInvalidRoleTransition = errors.New("invalid role transition")

	// ErrPrimaryExists is returned when a second primary would be added to a replica set.
	ErrPrimaryExists = errors.New("replica set already has a primary")

	// ErrReplicaNotFound is returned when a replica id is unknown to the replica set.
	ErrReplicaNotFound = errors.New("replica not found")

	// ErrReplicaDeleted is returned when a lifecycle operation targets a deleted replica.
	ErrReplicaDeleted = errors.New("replica is deleted")

	// ErrReplicaAlreadyCreated is returned when CreateAsync is called twice on a replica.
	ErrReplicaAlreadyCreated = errors.New("replica is already created")

	// ErrServiceNotRegistered is returned when no service is registered for a proxy request.
	ErrServiceNotRegistered = errors.New("service is not registered")

	// ErrInvalidServiceName is returned when a service name is not a fabric:/ URI.
	ErrInvalidServiceName = errors.New("service name must be a fabric:/ URI")

	// ErrActorNotRegistered is returned when no actor is registered for a proxy request.
	ErrActorNotRegistered = errors.New("actor is not registered")

	// ErrProxyTypeMismatch is returned when a registered instance does not implement the
	// requested proxy type.
	ErrProxyTypeMismatch = errors.New("registered instance does not implement the requested type")

	// ErrStateNotFound is returned when an actor state name is missing.
	ErrStateNotFound = errors.New("actor state not found")

	// ErrStateAlreadyExists is returned when adding an actor state name that is already present.
	ErrStateAlreadyExists = errors.New("actor state already exists")

	// ErrStateTypeMismatch is returned when an actor state value has an unexpected type.
	ErrStateTypeMismatch = errors.New("actor state type mismatch")
)

// NewErrLockTimeout formats an ErrLockTimeout for the given key and timeout.
func NewErrLockTimeout(key any, timeout time.Duration) error {
	return fmt.Errorf("(key=%v, timeout=%s) %w", key, timeout, ErrLockTimeout)
}

// NewErrLockCanceled joins ErrLockCanceled with the context error that caused it.
func NewErrLockCanceled(key any, cause error) error {
	return errors.Join(fmt.Errorf("(key=%v) %w", key, ErrLockCanceled), cause)
}

// NewErrKeyAlreadyExists formats an ErrKeyAlreadyExists for the given key.
func NewErrKeyAlreadyExists(key any) error {
	return fmt.Errorf("(key=%v) %w", key, ErrKeyAlreadyExists)
}

// NewErrTransactionEnded formats an ErrTransactionEnded for the given transaction id.
func NewErrTransactionEnded(transactionID int64) error {
	return fmt.Errorf("(transaction=%d) %w", transactionID, ErrTransactionEnded)
}

// NewErrCollectionNotFound formats an ErrCollectionNotFound for the given name.
func NewErrCollectionNotFound(name string) error {
	return fmt.Errorf("collection=(%s) %w", name, ErrCollectionNotFound)
}

// NewErrCollectionTypeMismatch formats an ErrCollectionTypeMismatch for the given name.
func NewErrCollectionTypeMismatch(name, want, got string) error {
	return fmt.Errorf("collection=(%s) want=(%s) got=(%s) %w", name, want, got, ErrCollectionTypeMismatch)
}

// NewErrSerializerNotFound formats an ErrSerializerNotFound for the given type name.
func NewErrSerializerNotFound(typeName string) error {
	return fmt.Errorf("type=(%s) %w", typeName, ErrSerializerNotFound)
}

// NewErrInvalidBackup wraps the cause of a failed restore.
func NewErrInvalidBackup(err error) error {
	return errors.Join(ErrInvalidBackup, err)
}

// NewErrNotPrimary formats an ErrNotPrimary with the current role.
func NewErrNotPrimary(role fmt.Stringer) error {
	return fmt.Errorf("role=(%s) %w", role, ErrNotPrimary)
}

// NewErrInvalidRoleTransition formats an ErrInvalidRoleTransition between two roles.
func NewErrInvalidRoleTransition(from, to fmt.Stringer) error {
	return fmt.Errorf("from=(%s) to=(%s) %w", from, to, ErrInvalidRoleTransition)
}

// NewErrReplicaNotFound formats an ErrReplicaNotFound for the given replica id.
func NewErrReplicaNotFound(replicaID int64) error {
	return fmt.Errorf("replica=(%d) %w", replicaID, ErrReplicaNotFound)
}

// NewErrServiceNotRegistered formats an ErrServiceNotRegistered for the given service.
func NewErrServiceNotRegistered(serviceURI, partitionKey string) error {
	return fmt.Errorf("service=(%s) partition=(%s) %w", serviceURI, partitionKey, ErrServiceNotRegistered)
}

// NewErrActorNotRegistered formats an ErrActorNotRegistered for the given actor id.
func NewErrActorNotRegistered(actorID string) error {
	return fmt.Errorf("actor=(%s) %w", actorID, ErrActorNotRegistered)
}

// NewErrStateNotFound formats an ErrStateNotFound for the given state name.
func NewErrStateNotFound(name string) error {
	return fmt.Errorf("state=(%s) %w", name, ErrStateNotFound)
}

// NewErrStateAlreadyExists formats an ErrStateAlreadyExists for the given state name.
func NewErrStateAlreadyExists(name string) error {
	return fmt.Errorf("state=(%s) %w", name, ErrStateAlreadyExists)
}

// ListenerError wraps a failure raised by a replica communication listener.
type ListenerError struct {
	name string
	err  error
}

// enforce compilation error
var _ error = (*ListenerError)(nil)

// NewListenerError returns an instance of ListenerError
func NewListenerError(name string, err error) *ListenerError {
	return &ListenerError{name: name, err: err}
}

// Error implements the standard error interface
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener (%s): %v", e.name, e.err)
}

func (e *ListenerError) Unwrap() error {
	return e.err
}

// Name returns the name of the failing listener.
func (e *ListenerError) Name() string {
	return e.name
}
