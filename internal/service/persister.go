package service

import (
	"context"
	"fmt"
	"sync"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// SnapshotSource is anything that can produce a consistent ledger snapshot.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// Persister decides when the ledger is written to a SnapshotStore.
// The ledger itself never saves.
type Persister struct {
	store  ports.SnapshotStore
	source SnapshotSource
	log    zerolog.Logger
	mu     sync.Mutex // serializes saves so an older snapshot never overwrites a newer one
}

var _ ports.SnapshotPersister = (*Persister)(nil)

// NewPersister creates a persister writing source's snapshots to store.
func NewPersister(store ports.SnapshotStore, source SnapshotSource, log zerolog.Logger) *Persister {
	return &Persister{store: store, source: source, log: log}
}

// Load returns the stored snapshot, or nil if none was saved yet.
func (p *Persister) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, nil
}

// Save writes the current ledger state.
func (p *Persister) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.source.Snapshot()
	if err := p.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	p.log.Debug().
		Int("clients", len(snap.Clients)).
		Int("accounts", len(snap.Accounts)).
		Int("transactions", len(snap.Transactions)).
		Msg("snapshot saved")
	return nil
}

// LoadRegistry builds the ledger from the store's snapshot, or an empty ledger
// named name/code when the store holds nothing yet.
func LoadRegistry(
	ctx context.Context,
	store ports.SnapshotStore,
	name, code string,
	hasher ports.HashService,
	audit ports.AuditService,
	log zerolog.Logger,
) (*Registry, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap == nil {
		log.Info().Str("name", name).Str("code", code).Msg("no snapshot found, starting empty ledger")
		return NewRegistry(name, code, hasher, audit, log), nil
	}
	return NewRegistryFromSnapshot(*snap, hasher, audit, log)
}
