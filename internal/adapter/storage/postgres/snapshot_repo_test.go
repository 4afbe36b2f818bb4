package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Name:      "Main Ledger",
		Code:      "MAIN",
		CreatedAt: testNow,
		Clients: []domain.ClientSnapshot{
			{ID: "CLIENT1", Email: "a@x.com", Name: "Alice", PasswordHash: "$argon2id$hash", CreatedAt: testNow, AccountIDs: []string{"ACC1"}},
		},
		Accounts: []domain.AccountSnapshot{
			{
				ID: "ACC1", OwnerClientID: "CLIENT1", Kind: domain.AccountKindSavings, State: domain.AccountStateActive,
				Balance: decimal.RequireFromString("150.50"), OpeningBalance: decimal.RequireFromString("100"), CreatedAt: testNow,
			},
		},
		Transactions: []domain.TransactionRecord{
			{
				ID: uuid.New(), AccountID: "ACC1", Kind: domain.TransactionKindDeposit, Amount: decimal.RequireFromString("50.50"),
				BalanceAfter: decimal.RequireFromString("150.50"), Description: "salary",
				Status: domain.TransactionStatusCompleted, Timestamp: testNow,
			},
		},
	}
}

func expectSnapshotPrefix(mock pgxmock.PgxPoolIface, snap domain.Snapshot) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_meta").
		WithArgs("MAIN", snap.Name, snap.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM ledger_accounts").
		WithArgs("MAIN").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM ledger_clients").
		WithArgs("MAIN").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	c := snap.Clients[0]
	mock.ExpectExec("INSERT INTO ledger_clients").
		WithArgs(c.ID, "MAIN", 0, c.Email, c.Name, c.PasswordHash, c.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	a := snap.Accounts[0]
	mock.ExpectExec("INSERT INTO ledger_accounts").
		WithArgs(a.ID, "MAIN", 0, a.OwnerClientID, "SAVINGS", "ACTIVE", "150.5", "100", a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestSnapshotRepo_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock, "MAIN")
	snap := newTestSnapshot()
	rec := snap.Transactions[0]

	expectSnapshotPrefix(mock, snap)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ledger_transactions`).
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(rec.ID, "MAIN", int64(0), "ACC1", "DEPOSIT", "50.5", "", "150.5", "salary", "COMPLETED", rec.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = repo.Save(context.Background(), snap)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Save_SkipsStoredTransactions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock, "MAIN")
	snap := newTestSnapshot()

	expectSnapshotPrefix(mock, snap)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ledger_transactions`).
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err = repo.Save(context.Background(), snap)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Save_RejectsShrunkHistory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock, "MAIN")
	snap := newTestSnapshot()

	expectSnapshotPrefix(mock, snap)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ledger_transactions`).
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectRollback()

	err = repo.Save(context.Background(), snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 are stored")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Save_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock, "MAIN")
	snap := newTestSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_meta").
		WithArgs("MAIN", snap.Name, snap.CreatedAt).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = repo.Save(context.Background(), snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert ledger meta")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Save_BeginFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = NewSnapshotRepo(mock, "MAIN").Save(context.Background(), newTestSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSnapshotRepo(mock, "MAIN")
	recID := uuid.New()

	mock.ExpectQuery("SELECT name, created_at FROM ledger_meta").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"name", "created_at"}).AddRow("Main Ledger", testNow))
	mock.ExpectQuery("FROM ledger_clients").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
			AddRow("CLIENT1", "a@x.com", "Alice", "$argon2id$hash", testNow).
			AddRow("CLIENT2", "b@x.com", "Bob", "$argon2id$hash2", testNow))
	mock.ExpectQuery("FROM ledger_accounts").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_client_id", "kind", "state", "balance", "opening_balance", "created_at"}).
			AddRow("ACC2", "CLIENT1", "CHECKING", "ACTIVE", "150.50", "100.00", testNow).
			AddRow("ACC3", "CLIENT2", "SAVINGS", "BLOCKED", "0", "0", testNow).
			AddRow("ACC1", "CLIENT1", "SAVINGS", "CLOSED", "0", "0", testNow))
	mock.ExpectQuery("FROM ledger_transactions").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "kind", "amount", "counterparty_account_id", "balance_after", "description", "status", "created_at"}).
			AddRow(recID, "ACC2", "DEPOSIT", "50.50", "", "150.50", "salary", "COMPLETED", testNow))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "Main Ledger", snap.Name)
	assert.Equal(t, "MAIN", snap.Code)
	require.Len(t, snap.Clients, 2)
	assert.Equal(t, []string{"ACC2", "ACC1"}, snap.Clients[0].AccountIDs)
	assert.Equal(t, []string{"ACC3"}, snap.Clients[1].AccountIDs)
	require.Len(t, snap.Accounts, 3)
	assert.Equal(t, domain.AccountKindChecking, snap.Accounts[0].Kind)
	assert.Equal(t, domain.AccountStateBlocked, snap.Accounts[1].State)
	assert.True(t, snap.Accounts[0].Balance.Equal(decimal.RequireFromString("150.5")))
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, recID, snap.Transactions[0].ID)
	assert.Equal(t, domain.TransactionKindDeposit, snap.Transactions[0].Kind)
	assert.True(t, snap.Transactions[0].Amount.Equal(decimal.RequireFromString("50.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name, created_at FROM ledger_meta").
		WithArgs("MAIN").
		WillReturnError(pgx.ErrNoRows)

	snap, err := NewSnapshotRepo(mock, "MAIN").Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, snap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_Load_BadDecimal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name, created_at FROM ledger_meta").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"name", "created_at"}).AddRow("Main Ledger", testNow))
	mock.ExpectQuery("FROM ledger_clients").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}))
	mock.ExpectQuery("FROM ledger_accounts").
		WithArgs("MAIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_client_id", "kind", "state", "balance", "opening_balance", "created_at"}).
			AddRow("ACC1", "CLIENT1", "SAVINGS", "ACTIVE", "NaN?", "0", testNow))

	_, err = NewSnapshotRepo(mock, "MAIN").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACC1 balance")
}
