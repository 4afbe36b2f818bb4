package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SnapshotRepo stores one ledger, identified by its code, across the
// ledger_* tables. Clients and accounts are replaced on every save;
// transactions are insert-only and appended by sequence number.
type SnapshotRepo struct {
	pool Pool
	tx   *Transactor
	code string
}

var _ ports.SnapshotStore = (*SnapshotRepo)(nil)

// NewSnapshotRepo creates a snapshot repository for the ledger with the given code.
func NewSnapshotRepo(pool Pool, code string) *SnapshotRepo {
	return &SnapshotRepo{pool: pool, tx: NewTransactor(pool), code: code}
}

// Save writes the snapshot inside a single database transaction.
func (r *SnapshotRepo) Save(ctx context.Context, snap domain.Snapshot) error {
	return r.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := r.saveMeta(ctx, tx, snap); err != nil {
			return err
		}
		if err := r.replaceClients(ctx, tx, snap.Clients); err != nil {
			return err
		}
		if err := r.replaceAccounts(ctx, tx, snap.Accounts); err != nil {
			return err
		}
		return r.appendTransactions(ctx, tx, snap.Transactions)
	})
}

func (r *SnapshotRepo) saveMeta(ctx context.Context, tx pgx.Tx, snap domain.Snapshot) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_meta (code, name, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		r.code, snap.Name, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger meta: %w", err)
	}
	return nil
}

// replaceClients also clears accounts; replaceAccounts runs right after.
func (r *SnapshotRepo) replaceClients(ctx context.Context, tx pgx.Tx, clients []domain.ClientSnapshot) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_accounts WHERE ledger_code = $1`, r.code); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_clients WHERE ledger_code = $1`, r.code); err != nil {
		return fmt.Errorf("clear clients: %w", err)
	}

	for i, c := range clients {
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_clients (id, ledger_code, position, email, name, password_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, r.code, i, c.Email, c.Name, c.PasswordHash, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert client %s: %w", c.ID, err)
		}
	}
	return nil
}

func (r *SnapshotRepo) replaceAccounts(ctx context.Context, tx pgx.Tx, accounts []domain.AccountSnapshot) error {
	for i, a := range accounts {
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_accounts (id, ledger_code, position, owner_client_id, kind, state, balance, opening_balance, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, r.code, i, a.OwnerClientID, string(a.Kind), string(a.State),
			a.Balance.String(), a.OpeningBalance.String(), a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}
	return nil
}

// appendTransactions inserts only the records past the stored count.
// The index is append-only, so position i is always seq i.
func (r *SnapshotRepo) appendTransactions(ctx context.Context, tx pgx.Tx, records []domain.TransactionRecord) error {
	var stored int64
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_transactions WHERE ledger_code = $1`, r.code,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("count stored transactions: %w", err)
	}
	if stored > int64(len(records)) {
		return fmt.Errorf("snapshot holds %d transactions but %d are stored", len(records), stored)
	}

	for seq := stored; seq < int64(len(records)); seq++ {
		t := records[seq]
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_transactions
			 (id, ledger_code, seq, account_id, kind, amount, counterparty_account_id, balance_after, description, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, r.code, seq, t.AccountID, string(t.Kind), t.Amount.String(),
			t.CounterpartyAccountID, t.BalanceAfter.String(), t.Description, string(t.Status), t.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Load reads the ledger back. It returns (nil, nil) if the ledger was never saved.
func (r *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{Code: r.code}
	err := r.pool.QueryRow(ctx,
		`SELECT name, created_at FROM ledger_meta WHERE code = $1`, r.code,
	).Scan(&snap.Name, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger meta: %w", err)
	}

	if snap.Clients, err = r.loadClients(ctx); err != nil {
		return nil, err
	}
	if snap.Accounts, err = r.loadAccounts(ctx); err != nil {
		return nil, err
	}
	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return nil, err
	}

	// Clients list their accounts in opening order, which is account position order.
	positions := make(map[string]int, len(snap.Clients))
	for i, c := range snap.Clients {
		positions[c.ID] = i
	}
	for _, a := range snap.Accounts {
		if i, ok := positions[a.OwnerClientID]; ok {
			snap.Clients[i].AccountIDs = append(snap.Clients[i].AccountIDs, a.ID)
		}
	}

	return snap, nil
}

func (r *SnapshotRepo) loadClients(ctx context.Context) ([]domain.ClientSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM ledger_clients WHERE ledger_code = $1 ORDER BY position`, r.code)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.ClientSnapshot
	for rows.Next() {
		var c domain.ClientSnapshot
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *SnapshotRepo) loadAccounts(ctx context.Context) ([]domain.AccountSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_client_id, kind, state, balance::text, opening_balance::text, created_at
		 FROM ledger_accounts WHERE ledger_code = $1 ORDER BY position`, r.code)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.AccountSnapshot
	for rows.Next() {
		var (
			a                       domain.AccountSnapshot
			kind, state             string
			balance, openingBalance string
		)
		if err := rows.Scan(&a.ID, &a.OwnerClientID, &kind, &state, &balance, &openingBalance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Kind = domain.AccountKind(kind)
		a.State = domain.AccountState(state)
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("account %s balance: %w", a.ID, err)
		}
		if a.OpeningBalance, err = decimal.NewFromString(openingBalance); err != nil {
			return nil, fmt.Errorf("account %s opening balance: %w", a.ID, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *SnapshotRepo) loadTransactions(ctx context.Context) ([]domain.TransactionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, kind, amount::text, counterparty_account_id, balance_after::text, description, status, created_at
		 FROM ledger_transactions WHERE ledger_code = $1 ORDER BY seq`, r.code)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var (
			id                   uuid.UUID
			kind, status         string
			amount, balanceAfter string
			t                    domain.TransactionRecord
			createdAt            time.Time
		)
		if err := rows.Scan(&id, &t.AccountID, &kind, &amount, &t.CounterpartyAccountID,
			&balanceAfter, &t.Description, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ID = id
		t.Kind = domain.TransactionKind(kind)
		t.Status = domain.TransactionStatus(status)
		t.Timestamp = createdAt.UTC()
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", id, err)
		}
		if t.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
			return nil, fmt.Errorf("transaction %s balance: %w", id, err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}
