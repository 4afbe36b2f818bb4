package service

import (
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ---- Reports (computed on demand) ----

func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) AccountCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func (r *Registry) ActiveAccountCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeAccountCountLocked()
}

// TotalBalance sums every account balance. It excludes mutations so an
// in-flight transfer is never counted half-applied.
func (r *Registry) TotalBalance() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalBalanceLocked()
}

func (r *Registry) TransactionCount() int {
	return r.index.count()
}

// Transactions returns the system-wide index in acceptance order.
func (r *Registry) Transactions() []domain.TransactionRecord {
	return r.index.all()
}

// TransactionsBetween filters the index by timestamp, bounds inclusive.
func (r *Registry) TransactionsBetween(from, to time.Time) []domain.TransactionRecord {
	return domain.FilterBetween(r.index.all(), from, to)
}

// Stats returns every counter from a single consistent view.
func (r *Registry) Stats() ports.LedgerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ports.LedgerStats{
		Name:               r.name,
		Code:               r.code,
		CreatedAt:          r.createdAt,
		ClientCount:        len(r.clients),
		AccountCount:       len(r.accounts),
		ActiveAccountCount: r.activeAccountCountLocked(),
		TotalBalance:       r.totalBalanceLocked(),
		TransactionCount:   r.index.count(),
	}
}

func (r *Registry) activeAccountCountLocked() int {
	n := 0
	for _, acc := range r.accounts {
		if acc.IsActive() {
			n++
		}
	}
	return n
}

func (r *Registry) totalBalanceLocked() decimal.Decimal {
	total := decimal.Zero
	for _, acc := range r.accounts {
		total = total.Add(acc.Balance())
	}
	return total
}

// ---- Snapshot ----

// Snapshot captures the whole ledger from a single consistent view.
func (r *Registry) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := domain.Snapshot{
		Name:         r.name,
		Code:         r.code,
		CreatedAt:    r.createdAt,
		Clients:      make([]domain.ClientSnapshot, 0, len(r.clientOrder)),
		Accounts:     make([]domain.AccountSnapshot, 0, len(r.accountOrder)),
		Transactions: r.index.all(),
	}
	for _, id := range r.clientOrder {
		snap.Clients = append(snap.Clients, r.clients[id].Snapshot())
	}
	for _, id := range r.accountOrder {
		snap.Accounts = append(snap.Accounts, r.accounts[id].Snapshot())
	}
	return snap
}

// NewRegistryFromSnapshot rebuilds a ledger. Every account must be listed by
// exactly its owner, and every balance must match its history in the index.
func NewRegistryFromSnapshot(snap domain.Snapshot, hasher ports.HashService, audit ports.AuditService, log zerolog.Logger) (*Registry, error) {
	r := NewRegistry(snap.Name, snap.Code, hasher, audit, log)
	if !snap.CreatedAt.IsZero() {
		r.createdAt = snap.CreatedAt
	}

	byAccount := make(map[string][]domain.TransactionRecord)
	seen := make(map[string]struct{}, len(snap.Transactions))
	for _, rec := range snap.Transactions {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("restoring index: %w", err)
		}
		if _, dup := seen[rec.ID.String()]; dup {
			return nil, fmt.Errorf("restoring index: duplicate record %s", rec.ID)
		}
		seen[rec.ID.String()] = struct{}{}
		byAccount[rec.AccountID] = append(byAccount[rec.AccountID], rec)
	}

	for _, cs := range snap.Clients {
		client, err := domain.RestoreClient(cs)
		if err != nil {
			return nil, err
		}
		if _, exists := r.clients[client.ID()]; exists {
			return nil, fmt.Errorf("restoring client %s: duplicate id", client.ID())
		}
		if r.findClientByEmailLocked(client.Email()) != nil {
			return nil, fmt.Errorf("restoring client %s: duplicate email %s", client.ID(), client.Email())
		}
		r.clients[client.ID()] = client
		r.clientOrder = append(r.clientOrder, client.ID())
	}

	for _, as := range snap.Accounts {
		if _, exists := r.accounts[as.ID]; exists {
			return nil, fmt.Errorf("restoring account %s: duplicate id", as.ID)
		}
		if _, ok := r.clients[as.OwnerClientID]; !ok {
			return nil, fmt.Errorf("restoring account %s: owner %s not found", as.ID, as.OwnerClientID)
		}
		acc, err := domain.RestoreAccount(as, byAccount[as.ID])
		if err != nil {
			return nil, err
		}
		acc.AttachJournal(r.index)
		r.accounts[acc.ID()] = acc
		r.accountOrder = append(r.accountOrder, acc.ID())
	}

	linked := 0
	for _, cs := range snap.Clients {
		client := r.clients[cs.ID]
		for _, accountID := range cs.AccountIDs {
			acc, ok := r.accounts[accountID]
			if !ok {
				return nil, fmt.Errorf("restoring client %s: account %s not found", cs.ID, accountID)
			}
			if !client.AddAccount(acc) {
				return nil, fmt.Errorf("restoring client %s: account %s is not owned by it", cs.ID, accountID)
			}
			linked++
		}
	}
	if linked != len(r.accounts) {
		return nil, fmt.Errorf("restoring: %d accounts are not listed by their owner", len(r.accounts)-linked)
	}

	for accountID := range byAccount {
		if _, ok := r.accounts[accountID]; !ok {
			r.retired[accountID] = struct{}{}
		}
	}
	r.index.records = append(r.index.records, snap.Transactions...)

	log.Info().
		Int("clients", len(r.clients)).
		Int("accounts", len(r.accounts)).
		Int("transactions", len(snap.Transactions)).
		Msg("ledger restored from snapshot")

	return r, nil
}
