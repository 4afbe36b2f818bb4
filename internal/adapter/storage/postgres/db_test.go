package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"account-ledger/config"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_CoversRepositoryTables(t *testing.T) {
	tables := []string{"ledger_meta", "ledger_clients", "ledger_accounts", "ledger_transactions", "audit_logs"}
	require.Len(t, Schema, len(tables))

	// Referenced tables must be created before the tables pointing at them.
	for i, table := range tables {
		assert.True(t, strings.HasPrefix(Schema[i], "CREATE TABLE IF NOT EXISTS "+table+" "), "statement %d", i)
	}
	assert.Contains(t, Schema[3], "UNIQUE (ledger_code, seq)")
	assert.Contains(t, Schema[3], "CHECK (amount > 0)")
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Running twice must succeed, every statement is idempotent.
	for range 2 {
		for range Schema {
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		}
	}

	assert.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ledger_meta").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ledger_clients").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1")
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "ledger",
		Password: "ledger",
		DBName:   "ledger",
		SSLMode:  "disable",
		MaxConns: 2,
	}

	pool, err := NewPool(ctx, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "pinging database")
}
