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
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/fabricmock/fabricmock/errors"
	"github.com/fabricmock/fabricmock/log"
)

// ReplicaSet is a group of replicas of one partition with at most one primary.
//
// Topology changes are serialized. Replicas are listed in the order they
// were added.
type ReplicaSet struct {
	factory ServiceFactory
	config  *options
	logger  log.Logger
	ids     atomic.Int64

	// serializes topology changes
	opMu sync.Mutex

	mu       sync.RWMutex
	replicas []*Replica
}

// NewReplicaSet creates an empty ReplicaSet whose replicas host services
// built by factory.
func NewReplicaSet(factory ServiceFactory, opts ...Option) *ReplicaSet {
	config := newOptions(opts...)
	return &ReplicaSet{
		factory: factory,
		config:  config,
		logger:  config.logger,
	}
}

// PartitionID returns the partition of the replicas
func (s *ReplicaSet) PartitionID() uuid.UUID {
	return s.config.partitionID
}

// AddReplicaAsync creates a replica in role and adds it to the set. Adding a
// primary to a set that has one fails with errors.ErrPrimaryExists.
func (s *ReplicaSet) AddReplicaAsync(ctx context.Context, role Role) (*Replica, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.addReplica(ctx, role)
}

// PromoteNewReplicaToPrimaryAsync demotes the current primary, if any, to an
// active secondary and adds a new primary.
func (s *ReplicaSet) PromoteNewReplicaToPrimaryAsync(ctx context.Context) (*Replica, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.demotePrimary(ctx); err != nil {
		return nil, err
	}
	return s.addReplica(ctx, Primary)
}

// PromoteActiveSecondaryToPrimaryAsync demotes the current primary, if any,
// to an active secondary then promotes the active secondary replicaID.
func (s *ReplicaSet) PromoteActiveSecondaryToPrimaryAsync(ctx context.Context, replicaID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	target, err := s.find(replicaID)
	if err != nil {
		return err
	}

	if role := target.Role(); role != ActiveSecondary {
		return gerrors.NewErrInvalidRoleTransition(role, Primary)
	}

	if err := s.demotePrimary(ctx); err != nil {
		return err
	}

	if err := target.PromoteToPrimaryAsync(ctx); err != nil {
		return err
	}

	s.logger.Infof("replica=(%d) promoted to primary", replicaID)
	return nil
}

// PromoteIdleSecondaryToActiveSecondaryAsync promotes the idle secondary or
// unassigned replica replicaID.
func (s *ReplicaSet) PromoteIdleSecondaryToActiveSecondaryAsync(ctx context.Context, replicaID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	target, err := s.find(replicaID)
	if err != nil {
		return err
	}

	if role := target.Role(); role != IdleSecondary && role != Unknown {
		return gerrors.NewErrInvalidRoleTransition(role, ActiveSecondary)
	}
	return target.PromoteToActiveSecondaryAsync(ctx)
}

// DemoteToActiveSecondaryAsync demotes the primary replicaID to an active secondary.
func (s *ReplicaSet) DemoteToActiveSecondaryAsync(ctx context.Context, replicaID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	target, err := s.find(replicaID)
	if err != nil {
		return err
	}
	return target.DemoteToActiveSecondaryAsync(ctx)
}

// DeleteReplicaAsync deletes the replica replicaID and removes it from the set.
func (s *ReplicaSet) DeleteReplicaAsync(ctx context.Context, replicaID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	target, err := s.find(replicaID)
	if err != nil {
		return err
	}

	s.remove(target)
	return target.DeleteAsync(ctx)
}

// CloseAsync deletes every replica of the set.
func (s *ReplicaSet) CloseAsync(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	replicas := s.replicas
	s.replicas = nil
	s.mu.Unlock()

	var err error
	for _, replica := range replicas {
		err = multierr.Append(err, replica.DeleteAsync(ctx))
	}
	return err
}

// Primary returns the primary replica, if any.
func (s *ReplicaSet) Primary() (*Replica, bool) {
	primaries := s.withRole(Primary)
	if len(primaries) == 0 {
		return nil, false
	}
	return primaries[0], true
}

// ActiveSecondaries returns the active secondary replicas
func (s *ReplicaSet) ActiveSecondaries() []*Replica {
	return s.withRole(ActiveSecondary)
}

// IdleSecondaries returns the idle secondary replicas
func (s *ReplicaSet) IdleSecondaries() []*Replica {
	return s.withRole(IdleSecondary)
}

// Unknowns returns the replicas added as Unknown that were not assigned a
// role yet
func (s *ReplicaSet) Unknowns() []*Replica {
	return s.withRole(Unknown)
}

// Replica returns the replica replicaID, if any.
func (s *ReplicaSet) Replica(replicaID int64) (*Replica, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := slices.IndexFunc(s.replicas, func(replica *Replica) bool {
		return replica.ID() == replicaID
	})
	if index < 0 {
		return nil, false
	}
	return s.replicas[index], true
}

// Replicas returns every replica of the set
func (s *ReplicaSet) Replicas() []*Replica {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.replicas)
}

func (s *ReplicaSet) addReplica(ctx context.Context, role Role) (*Replica, error) {
	if _, ok := s.Primary(); ok && role == Primary {
		return nil, gerrors.ErrPrimaryExists
	}

	replica, err := newReplica(s.ids.Inc(), s.factory, s.config)
	if err != nil {
		return nil, err
	}

	if err := replica.CreateAsync(ctx, role); err != nil {
		return nil, multierr.Append(err, replica.DeleteAsync(ctx))
	}

	s.mu.Lock()
	s.replicas = append(s.replicas, replica)
	s.mu.Unlock()

	s.logger.Infof("replica=(%d) added as (%s)", replica.ID(), role)
	return replica, nil
}

func (s *ReplicaSet) demotePrimary(ctx context.Context) error {
	primary, ok := s.Primary()
	if !ok {
		return nil
	}
	return primary.DemoteToActiveSecondaryAsync(ctx)
}

func (s *ReplicaSet) find(replicaID int64) (*Replica, error) {
	replica, ok := s.Replica(replicaID)
	if !ok {
		return nil, gerrors.NewErrReplicaNotFound(replicaID)
	}
	return replica, nil
}

func (s *ReplicaSet) remove(target *Replica) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replicas = slices.DeleteFunc(s.replicas, func(replica *Replica) bool {
		return replica == target
	})
}

func (s *ReplicaSet) withRole(role Role) []*Replica {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var replicas []*Replica
	for _, replica := range s.replicas {
		if replica.Role() == role {
			replicas = append(replicas, replica)
		}
	}
	return replicas
}
