package memory

import (
	"context"
	"sync"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
)

// SnapshotStore keeps the latest snapshot in process memory.
// It backs the "memory" store setting and tests; nothing survives a restart.
type SnapshotStore struct {
	mu    sync.RWMutex
	snap  *domain.Snapshot
	saves int
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	cp := cloneSnapshot(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &cp
	s.saves++
	return nil
}

// Load returns a copy of the last saved snapshot, or nil.
func (s *SnapshotStore) Load(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, nil
	}
	cp := cloneSnapshot(*s.snap)
	return &cp, nil
}

// Saves reports how many times Save succeeded.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneSnapshot(in domain.Snapshot) domain.Snapshot {
	out := in
	out.Clients = make([]domain.ClientSnapshot, len(in.Clients))
	for i, c := range in.Clients {
		c.AccountIDs = append([]string(nil), c.AccountIDs...)
		out.Clients[i] = c
	}
	out.Accounts = append([]domain.AccountSnapshot(nil), in.Accounts...)
	out.Transactions = append([]domain.TransactionRecord(nil), in.Transactions...)
	return out
}
