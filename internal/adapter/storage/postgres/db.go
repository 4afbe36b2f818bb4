package postgres

import (
	"context"
	"fmt"

	"account-ledger/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates a PostgreSQL connection pool using pgx.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", cfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}

// Schema creates the ledger tables. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_meta (
		code       TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_clients (
		id            TEXT PRIMARY KEY,
		ledger_code   TEXT NOT NULL REFERENCES ledger_meta(code),
		position      INT NOT NULL,
		email         TEXT NOT NULL,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (ledger_code, email)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
		id              TEXT PRIMARY KEY,
		ledger_code     TEXT NOT NULL REFERENCES ledger_meta(code),
		position        INT NOT NULL,
		owner_client_id TEXT NOT NULL,
		kind            TEXT NOT NULL,
		state           TEXT NOT NULL,
		balance         NUMERIC NOT NULL,
		opening_balance NUMERIC NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		id                      UUID PRIMARY KEY,
		ledger_code             TEXT NOT NULL REFERENCES ledger_meta(code),
		seq                     BIGINT NOT NULL,
		account_id              TEXT NOT NULL,
		kind                    TEXT NOT NULL,
		amount                  NUMERIC NOT NULL CHECK (amount > 0),
		counterparty_account_id TEXT NOT NULL DEFAULT '',
		balance_after           NUMERIC NOT NULL,
		description             TEXT NOT NULL DEFAULT '',
		status                  TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL,
		UNIQUE (ledger_code, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            UUID PRIMARY KEY,
		client_id     TEXT NOT NULL DEFAULT '',
		action        TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT NOT NULL DEFAULT '',
		details       TEXT NOT NULL DEFAULT '',
		ip_address    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool Pool) error {
	for i, stmt := range Schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i, err)
		}
	}
	return nil
}
