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

// Package actorstate provides an in-memory actor state manager. Changes are
// tracked in a cache and become the saved state on SaveStateAsync.
package actorstate

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/fabricmock/fabricmock/collection"
	gerrors "github.com/fabricmock/fabricmock/errors"
)

type change int

const (
	added change = iota
	updated
	removed
)

type entry struct {
	value  any
	change change
}

// StateManager holds the named states of one actor.
type StateManager struct {
	mu    sync.Mutex
	saved map[string]any
	cache map[string]*entry
}

// NewStateManager creates an empty StateManager
func NewStateManager() *StateManager {
	return &StateManager{
		saved: make(map[string]any),
		cache: make(map[string]*entry),
	}
}

// AddStateAsync adds the state name. It fails with errors.ErrStateAlreadyExists
// when the state exists.
func (m *StateManager) AddStateAsync(ctx context.Context, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(name); ok {
		return gerrors.NewErrStateAlreadyExists(name)
	}
	m.write(name, value)
	return nil
}

// GetStateAsync returns the state name. It fails with errors.ErrStateNotFound
// when the state does not exist.
func (m *StateManager) GetStateAsync(ctx context.Context, name string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.lookup(name)
	if !ok {
		return nil, gerrors.NewErrStateNotFound(name)
	}
	return value, nil
}

// TryGetStateAsync returns the state name, if any.
func (m *StateManager) TryGetStateAsync(ctx context.Context, name string) (collection.ConditionalValue[any], error) {
	if err := ctx.Err(); err != nil {
		return collection.None[any](), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.lookup(name); ok {
		return collection.Some(value), nil
	}
	return collection.None[any](), nil
}

// SetStateAsync adds or replaces the state name.
func (m *StateManager) SetStateAsync(ctx context.Context, name string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(name, value)
	return nil
}

// RemoveStateAsync removes the state name. It fails with
// errors.ErrStateNotFound when the state does not exist.
func (m *StateManager) RemoveStateAsync(ctx context.Context, name string) error {
	removed, err := m.TryRemoveStateAsync(ctx, name)
	if err != nil {
		return err
	}
	if !removed {
		return gerrors.NewErrStateNotFound(name)
	}
	return nil
}

// TryRemoveStateAsync removes the state name and reports whether it existed.
func (m *StateManager) TryRemoveStateAsync(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(name); !ok {
		return false, nil
	}

	if _, ok := m.saved[name]; ok {
		m.cache[name] = &entry{change: removed}
	} else {
		delete(m.cache, name)
	}
	return true, nil
}

// ContainsStateAsync reports whether the state name exists.
func (m *StateManager) ContainsStateAsync(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lookup(name)
	return ok, nil
}

// GetOrAddStateAsync returns the state name, adding it with value when it
// does not exist.
func (m *StateManager) GetOrAddStateAsync(ctx context.Context, name string, value any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.lookup(name); ok {
		return current, nil
	}
	m.write(name, value)
	return value, nil
}

// AddOrUpdateStateAsync adds the state name with addValue or replaces it with
// the result of update, and returns the value stored.
func (m *StateManager) AddOrUpdateStateAsync(ctx context.Context, name string, addValue any, update func(name string, current any) any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	value := addValue
	if current, ok := m.lookup(name); ok {
		value = update(name, current)
	}
	m.write(name, value)
	return value, nil
}

// GetStateNamesAsync returns the sorted names of the existing states.
func (m *StateManager) GetStateNamesAsync(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	names := make(map[string]struct{}, len(m.saved)+len(m.cache))
	for name := range m.saved {
		names[name] = struct{}{}
	}
	for name, e := range m.cache {
		if e.change == removed {
			delete(names, name)
			continue
		}
		names[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names)), nil
}

// ClearCacheAsync drops the changes made since the last save.
func (m *StateManager) ClearCacheAsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.cache)
	return nil
}

// SaveStateAsync makes the changes made since the last save the saved state.
func (m *StateManager) SaveStateAsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, e := range m.cache {
		if e.change == removed {
			delete(m.saved, name)
			continue
		}
		m.saved[name] = e.value
	}
	clear(m.cache)
	return nil
}

// HasPendingChanges reports whether changes were made since the last save.
func (m *StateManager) HasPendingChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache) > 0
}

func (m *StateManager) lookup(name string) (any, bool) {
	if e, ok := m.cache[name]; ok {
		if e.change == removed {
			return nil, false
		}
		return e.value, true
	}
	value, ok := m.saved[name]
	return value, ok
}

func (m *StateManager) write(name string, value any) {
	kind := added
	if _, ok := m.saved[name]; ok {
		kind = updated
	}
	m.cache[name] = &entry{value: value, change: kind}
}

// GetState returns the state name as a T.
func GetState[T any](ctx context.Context, m *StateManager, name string) (T, error) {
	var zero T
	value, err := m.GetStateAsync(ctx, name)
	if err != nil {
		return zero, err
	}
	return cast[T](name, value)
}

// TryGetState returns the state name as a T, if any.
func TryGetState[T any](ctx context.Context, m *StateManager, name string) (collection.ConditionalValue[T], error) {
	result, err := m.TryGetStateAsync(ctx, name)
	if err != nil || !result.HasValue {
		return collection.None[T](), err
	}

	value, err := cast[T](name, result.Value)
	if err != nil {
		return collection.None[T](), err
	}
	return collection.Some(value), nil
}

// GetOrAddState returns the state name as a T, adding it with value when it
// does not exist.
func GetOrAddState[T any](ctx context.Context, m *StateManager, name string, value T) (T, error) {
	var zero T
	current, err := m.GetOrAddStateAsync(ctx, name, value)
	if err != nil {
		return zero, err
	}
	return cast[T](name, current)
}

func cast[T any](name string, value any) (T, error) {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("state=(%s) %T is not %s: %w", name, value, reflect.TypeFor[T](), gerrors.ErrStateTypeMismatch)
	}
	return typed, nil
}
