package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the plain representation of a whole ledger that a store can load and save.
// Account logs are not stored twice: they are rebuilt from Transactions on restore.
type Snapshot struct {
	Name         string              `json:"name"`
	Code         string              `json:"code"`
	CreatedAt    time.Time           `json:"created_at"`
	Clients      []ClientSnapshot    `json:"clients"`
	Accounts     []AccountSnapshot   `json:"accounts"`
	Transactions []TransactionRecord `json:"transactions"`
}

type ClientSnapshot struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	AccountIDs   []string  `json:"account_ids"`
}

type AccountSnapshot struct {
	ID             string          `json:"id"`
	OwnerClientID  string          `json:"owner_client_id"`
	Kind           AccountKind     `json:"kind"`
	State          AccountState    `json:"state"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Snapshot captures the account's fields. The log is captured by the caller's index.
func (a *Account) Snapshot() AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AccountSnapshot{
		ID:             a.id,
		OwnerClientID:  a.ownerID,
		Kind:           a.kind,
		State:          a.state,
		Balance:        a.balance,
		OpeningBalance: a.openingBalance,
		CreatedAt:      a.createdAt,
	}
}

// Snapshot captures the client's fields and the ids of its accounts in order.
func (c *Client) Snapshot() ClientSnapshot {
	accounts := c.Accounts()
	ids := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID())
	}
	return ClientSnapshot{
		ID:           c.id,
		Email:        c.email,
		Name:         c.name,
		PasswordHash: c.PasswordHash(),
		CreatedAt:    c.createdAt,
		AccountIDs:   ids,
	}
}

// RestoreAccount rebuilds an account from its snapshot and its records in order.
// It rejects any snapshot whose balance is not the opening balance plus the signed history.
func RestoreAccount(s AccountSnapshot, records []TransactionRecord) (*Account, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("account snapshot has no id")
	}
	if !s.Kind.Valid() {
		return nil, fmt.Errorf("account %s: unknown kind %q", s.ID, s.Kind)
	}
	switch s.State {
	case AccountStateActive, AccountStateBlocked, AccountStateClosed:
	default:
		return nil, fmt.Errorf("account %s: unknown state %q", s.ID, s.State)
	}
	if s.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("account %s: negative opening balance", s.ID)
	}

	expected := s.OpeningBalance
	log := make([]TransactionRecord, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if rec.AccountID != s.ID {
			return nil, fmt.Errorf("account %s: record %s belongs to %s", s.ID, rec.ID, rec.AccountID)
		}
		expected = expected.Add(rec.SignedAmount())
		log = append(log, rec)
	}
	if !expected.Equal(s.Balance) {
		return nil, fmt.Errorf("account %s: balance %s does not match history %s", s.ID, s.Balance, expected)
	}
	if s.State == AccountStateClosed && !s.Balance.IsZero() {
		return nil, fmt.Errorf("account %s: closed with balance %s", s.ID, s.Balance)
	}

	return &Account{
		id:             s.ID,
		ownerID:        s.OwnerClientID,
		kind:           s.Kind,
		state:          s.State,
		balance:        s.Balance,
		openingBalance: s.OpeningBalance,
		createdAt:      s.CreatedAt,
		log:            log,
	}, nil
}

// RestoreClient rebuilds a client without its accounts; the caller re-attaches them.
func RestoreClient(s ClientSnapshot) (*Client, error) {
	if s.ID == "" || s.Email == "" {
		return nil, fmt.Errorf("client snapshot missing id or email")
	}
	return &Client{
		id:           s.ID,
		email:        s.Email,
		name:         s.Name,
		passwordHash: s.PasswordHash,
		createdAt:    s.CreatedAt,
	}, nil
}
