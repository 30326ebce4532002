// Package service exposes the entry points the CLI (or any other front
// end) consumes: create a snapshot, diff two stored snapshots, and restore
// the live host to a stored snapshot.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/restore"
	"github.com/blackwell-systems/pkgsnap/internal/snapshot"
	"github.com/blackwell-systems/pkgsnap/internal/store"
)

// Service wires the package manager adapter and the snapshot store
// together behind the reconciliation engine.
type Service struct {
	store *store.Store
	mgr   pkgmgr.Manager

	mu        sync.Mutex
	hostLocks map[string]*sync.Mutex
}

// New creates a Service.
func New(st *store.Store, mgr pkgmgr.Manager) *Service {
	return &Service{
		store:     st,
		mgr:       mgr,
		hostLocks: make(map[string]*sync.Mutex),
	}
}

// CreateSnapshot captures the host's current package set and persists it,
// returning the stored snapshot. Collection failure is fatal: nothing is
// persisted.
func (s *Service) CreateSnapshot(hostName, reason string) (*snapshot.Snapshot, error) {
	host, err := s.store.GetOrCreateHost(hostName, s.mgr.Kind())
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.Collect(s.mgr, host.ID, reason)
	if err != nil {
		return nil, err
	}

	id, err := s.store.SaveSnapshot(snap)
	if err != nil {
		return nil, err
	}

	saved := *snap
	saved.ID = id
	return &saved, nil
}

// CreateSnapshotIfChanged captures the host's package set and persists it
// only when it differs from the latest stored snapshot for that host. It
// returns the new snapshot and true, or nil and false when nothing changed.
func (s *Service) CreateSnapshotIfChanged(hostName, reason string) (*snapshot.Snapshot, bool, error) {
	host, err := s.store.GetOrCreateHost(hostName, s.mgr.Kind())
	if err != nil {
		return nil, false, err
	}

	snap, err := snapshot.Collect(s.mgr, host.ID, reason)
	if err != nil {
		return nil, false, err
	}

	summaries, err := s.store.ListSnapshots(host.ID)
	if err != nil {
		return nil, false, err
	}
	if len(summaries) > 0 {
		latest, err := s.store.GetSnapshot(summaries[0].ID)
		if err != nil {
			return nil, false, err
		}
		if snapshot.Diff(latest, snap).Empty() {
			return nil, false, nil
		}
	}

	id, err := s.store.SaveSnapshot(snap)
	if err != nil {
		return nil, false, err
	}

	saved := *snap
	saved.ID = id
	return &saved, true, nil
}

// Diff loads two stored snapshots and compares them, current first.
func (s *Service) Diff(currentID, targetID int64) (*snapshot.DiffResult, error) {
	current, err := s.store.GetSnapshot(currentID)
	if err != nil {
		return nil, err
	}
	target, err := s.store.GetSnapshot(targetID)
	if err != nil {
		return nil, err
	}
	return snapshot.Diff(current, target), nil
}

// PlanRestore computes the plan that would bring the live host to the
// stored snapshot, without executing anything.
func (s *Service) PlanRestore(snapshotID int64) (restore.Plan, error) {
	target, err := s.store.GetSnapshot(snapshotID)
	if err != nil {
		return nil, err
	}

	current, err := snapshot.Collect(s.mgr, target.HostID, "")
	if err != nil {
		return nil, err
	}

	return restore.BuildPlan(snapshot.Diff(current, target))
}

// RestoreTo reconciles the live host back to a stored snapshot and returns
// the per-operation report. A snapshot of the pre-restore state is saved
// first so the restore itself can be undone. At most one restore may be in
// flight per host: a second concurrent call fails instead of queueing,
// because concurrent package manager runs race on the manager's own lock.
func (s *Service) RestoreTo(ctx context.Context, snapshotID int64, policy restore.Policy) (*restore.Report, error) {
	target, err := s.store.GetSnapshot(snapshotID)
	if err != nil {
		return nil, err
	}

	lock := s.hostLock(target.HostID)
	if !lock.TryLock() {
		return nil, fmt.Errorf("a restore is already in flight for host %s", target.HostID)
	}
	defer lock.Unlock()

	current, err := snapshot.Collect(s.mgr, target.HostID, fmt.Sprintf("pre-restore of snapshot %d", snapshotID))
	if err != nil {
		return nil, err
	}
	if _, err := s.store.SaveSnapshot(current); err != nil {
		return nil, err
	}

	plan, err := restore.BuildPlan(snapshot.Diff(current, target))
	if err != nil {
		return nil, err
	}

	return restore.Execute(ctx, plan, s.mgr, policy), nil
}

func (s *Service) hostLock(hostID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.hostLocks[hostID]
	if !ok {
		lock = &sync.Mutex{}
		s.hostLocks[hostID] = lock
	}
	return lock
}
