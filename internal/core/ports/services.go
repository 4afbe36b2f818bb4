package ports

import (
	"context"
	"time"

	"account-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(clientID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ClientID string
}

// AuditService records audited actions. It never fails the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// AuthService handles client registration and session login.
type AuthService interface {
	Register(ctx context.Context, req RegisterClientRequest) (*domain.Client, error)
	Login(ctx context.Context, email, password string) (token string, expiry time.Time, err error)
	ChangeCredential(ctx context.Context, clientID, current, next string) error
}

// LedgerService is the in-process call interface of the ledger authority.
// Operations are synchronous and never block on I/O.
type LedgerService interface {
	RegisterClient(req RegisterClientRequest) (*domain.Client, error)
	RemoveClient(clientID string) (bool, error)
	Authenticate(email, password string) *domain.Client
	ChangeCredential(clientID, current, next string) error

	OpenAccount(account *domain.Account) (*domain.Account, error)
	CloseAccount(accountID string) error
	BlockAccount(accountID string) error
	ActivateAccount(accountID string) error

	Deposit(accountID string, amount decimal.Decimal, description string) (domain.TransactionRecord, error)
	Withdraw(accountID string, amount decimal.Decimal, description string) (domain.TransactionRecord, error)
	Transfer(sourceID, targetID string, amount decimal.Decimal, description string) (domain.TransactionRecord, domain.TransactionRecord, error)

	FindClient(clientID string) *domain.Client
	FindClientByEmail(email string) *domain.Client
	FindAccount(accountID string) *domain.Account
	AccountsByClient(clientID string) ([]*domain.Account, error)

	Stats() LedgerStats
	TransactionsBetween(from, to time.Time) []domain.TransactionRecord
	Snapshot() domain.Snapshot
}

// RegisterClientRequest holds validated input for client registration.
type RegisterClientRequest struct {
	ID       string // optional, generated when empty
	Email    string
	Password string
	Name     string
}

// LedgerStats is the on-demand statistics report of a registry.
type LedgerStats struct {
	Name               string
	Code               string
	CreatedAt          time.Time
	ClientCount        int
	AccountCount       int
	ActiveAccountCount int
	TotalBalance       decimal.Decimal
	TransactionCount   int
}

// SnapshotPersister loads and saves ledger snapshots on behalf of the outer layers.
type SnapshotPersister interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context) error
}
