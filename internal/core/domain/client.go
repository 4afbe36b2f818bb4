package domain

import (
	"fmt"
	"sync"
	"time"

	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PasswordHasher hashes and verifies client credentials.
// The core only ever sees the encoded hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// Client owns an ordered set of accounts.
type Client struct {
	mu sync.RWMutex

	id           string
	email        string
	name         string
	passwordHash string
	createdAt    time.Time
	accounts     []*Account
}

// NewClient creates a client around an already hashed credential.
func NewClient(id, email, name, passwordHash string) *Client {
	if id == "" {
		id = uuid.NewString()
	}
	return &Client{
		id:           id,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		createdAt:    time.Now().UTC(),
	}
}

func (c *Client) ID() string           { return c.id }
func (c *Client) Email() string        { return c.email }
func (c *Client) Name() string         { return c.name }
func (c *Client) CreatedAt() time.Time { return c.createdAt }

// AddAccount adds acc to the client's set. It returns false, leaving the set
// unchanged, when acc is already present or belongs to another client.
func (c *Client) AddAccount(acc *Account) bool {
	if acc == nil || acc.OwnerID() != c.id {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.accounts {
		if existing.ID() == acc.ID() {
			return false
		}
	}
	c.accounts = append(c.accounts, acc)
	return true
}

// RemoveAccount drops the account with the given id. It returns false if not found.
func (c *Client) RemoveAccount(accountID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, acc := range c.accounts {
		if acc.ID() == accountID {
			c.accounts = append(c.accounts[:i], c.accounts[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Client) FindAccount(accountID string) *Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, acc := range c.accounts {
		if acc.ID() == accountID {
			return acc
		}
	}
	return nil
}

// Accounts returns the owned accounts in the order they were added.
func (c *Client) Accounts() []*Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// HasActiveAccounts reports whether any owned account is ACTIVE.
func (c *Client) HasActiveAccounts() bool {
	for _, acc := range c.Accounts() {
		if acc.IsActive() {
			return true
		}
	}
	return false
}

func (c *Client) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, acc := range c.Accounts() {
		total = total.Add(acc.Balance())
	}
	return total
}

// TransactionHistory concatenates the account logs, grouped by account in the
// order the accounts were added. It is not re-sorted by time.
func (c *Client) TransactionHistory() []TransactionRecord {
	var out []TransactionRecord
	for _, acc := range c.Accounts() {
		out = append(out, acc.Transactions()...)
	}
	return out
}

// VerifyCredential checks password against the stored hash.
// A malformed hash counts as a mismatch.
func (c *Client) VerifyCredential(hasher PasswordHasher, password string) bool {
	c.mu.RLock()
	hash := c.passwordHash
	c.mu.RUnlock()

	ok, err := hasher.Verify(password, hash)
	return err == nil && ok
}

// ChangeCredential replaces the credential after checking the current one.
func (c *Client) ChangeCredential(hasher PasswordHasher, current, next string) error {
	if !c.VerifyCredential(hasher, current) {
		return apperror.ErrInvalidCredentials()
	}

	hash, err := hasher.Hash(next)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hashing credential: %w", err))
	}

	c.mu.Lock()
	c.passwordHash = hash
	c.mu.Unlock()
	return nil
}

// PasswordHash exposes the encoded hash for snapshotting only.
func (c *Client) PasswordHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.passwordHash
}
