package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of balance-affecting event.
type TransactionKind string

const (
	TransactionKindDeposit     TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal  TransactionKind = "WITHDRAWAL"
	TransactionKindTransferOut TransactionKind = "TRANSFER_OUT"
	TransactionKindTransferIn  TransactionKind = "TRANSFER_IN"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdrawal, TransactionKindTransferOut, TransactionKindTransferIn:
		return true
	}
	return false
}

// Credits reports whether the kind increases the owning account's balance.
func (k TransactionKind) Credits() bool {
	return k == TransactionKindDeposit || k == TransactionKindTransferIn
}

// TransactionStatus represents the lifecycle state of a transaction record.
// The ledger only ever produces COMPLETED records.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPending, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// TransactionRecord is the immutable fact of a single balance-affecting event.
// Records are passed by value; nothing in the ledger hands out a pointer into a log.
type TransactionRecord struct {
	ID                    uuid.UUID         `json:"id"`
	AccountID             string            `json:"account_id"`
	Kind                  TransactionKind   `json:"kind"`
	Amount                decimal.Decimal   `json:"amount"`
	CounterpartyAccountID string            `json:"counterparty_account_id,omitempty"`
	BalanceAfter          decimal.Decimal   `json:"balance_after"`
	Description           string            `json:"description,omitempty"`
	Status                TransactionStatus `json:"status"`
	Timestamp             time.Time         `json:"timestamp"`
}

func newRecord(accountID string, kind TransactionKind, amount, balanceAfter decimal.Decimal, counterparty, description string, at time.Time) TransactionRecord {
	return TransactionRecord{
		ID:                    uuid.New(),
		AccountID:             accountID,
		Kind:                  kind,
		Amount:                amount,
		CounterpartyAccountID: counterparty,
		BalanceAfter:          balanceAfter,
		Description:           description,
		Status:                TransactionStatusCompleted,
		Timestamp:             at,
	}
}

func (t TransactionRecord) IsDeposit() bool    { return t.Kind == TransactionKindDeposit }
func (t TransactionRecord) IsWithdrawal() bool { return t.Kind == TransactionKindWithdrawal }
func (t TransactionRecord) IsCompleted() bool  { return t.Status == TransactionStatusCompleted }
func (t TransactionRecord) IsPending() bool    { return t.Status == TransactionStatusPending }

// IsTransfer is true for both legs of a transfer.
func (t TransactionRecord) IsTransfer() bool {
	return t.Kind == TransactionKindTransferOut || t.Kind == TransactionKindTransferIn
}

// SignedAmount is the amount as seen by the owning account's balance.
func (t TransactionRecord) SignedAmount() decimal.Decimal {
	if t.Kind.Credits() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Validate checks the structural invariants of a record.
func (t TransactionRecord) Validate() error {
	if t.ID == uuid.Nil {
		return errors.New("transaction record has no id")
	}
	if t.AccountID == "" {
		return fmt.Errorf("transaction record %s has no account id", t.ID)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction record %s: amount must be positive, got %s", t.ID, t.Amount)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("transaction record %s: unknown kind %q", t.ID, t.Kind)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("transaction record %s: unknown status %q", t.ID, t.Status)
	}
	if t.IsTransfer() && t.CounterpartyAccountID == "" {
		return fmt.Errorf("transaction record %s: transfer without counterparty", t.ID)
	}
	return nil
}

// Journal receives every record an account accepts, inside the account's critical section.
type Journal interface {
	Record(records ...TransactionRecord)
}
