package domain

import (
	"sync"
	"time"

	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind represents the product type of an account.
type AccountKind string

const (
	AccountKindSavings    AccountKind = "SAVINGS"
	AccountKindChecking   AccountKind = "CHECKING"
	AccountKindInvestment AccountKind = "INVESTMENT"
)

// Valid reports whether k is one of the known account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindSavings, AccountKindChecking, AccountKindInvestment:
		return true
	}
	return false
}

// AccountState represents the lifecycle state of an account.
type AccountState string

const (
	AccountStateActive  AccountState = "ACTIVE"
	AccountStateBlocked AccountState = "BLOCKED"
	AccountStateClosed  AccountState = "CLOSED"
)

// Account owns a balance and its ordered, append-only transaction log.
// All state is guarded by mu; the balance changes only through the operations below.
type Account struct {
	mu sync.Mutex

	id             string
	ownerID        string
	kind           AccountKind
	state          AccountState
	balance        decimal.Decimal
	openingBalance decimal.Decimal
	createdAt      time.Time
	log            []TransactionRecord
	journal        Journal
}

// NewAccount creates an ACTIVE account holding the initial balance.
// The initial balance is the opening balance, not a transaction record.
func NewAccount(id, ownerID string, kind AccountKind, initial decimal.Decimal) (*Account, error) {
	if initial.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}
	if id == "" {
		id = uuid.NewString()
	}
	if kind == "" {
		kind = AccountKindSavings
	}
	if !kind.Valid() {
		return nil, apperror.Validation("unknown account kind: " + string(kind))
	}

	return &Account{
		id:             id,
		ownerID:        ownerID,
		kind:           kind,
		state:          AccountStateActive,
		balance:        initial,
		openingBalance: initial,
		createdAt:      time.Now().UTC(),
	}, nil
}

func (a *Account) ID() string           { return a.id }
func (a *Account) OwnerID() string      { return a.ownerID }
func (a *Account) Kind() AccountKind    { return a.kind }
func (a *Account) CreatedAt() time.Time { return a.createdAt }

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *Account) OpeningBalance() decimal.Decimal {
	return a.openingBalance
}

func (a *Account) State() AccountState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Account) IsActive() bool {
	return a.State() == AccountStateActive
}

// AttachJournal routes every record this account accepts from now on to j.
func (a *Account) AttachJournal(j Journal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.journal = j
}

// Deposit credits amount and appends a DEPOSIT record.
func (a *Account) Deposit(amount decimal.Decimal, description string) (TransactionRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !amount.IsPositive() {
		return TransactionRecord{}, apperror.ErrInvalidAmount()
	}
	if a.state != AccountStateActive {
		return TransactionRecord{}, apperror.ErrAccountNotActive(a.id)
	}

	a.balance = a.balance.Add(amount)
	rec := a.appendLocked(TransactionKindDeposit, amount, "", description)
	a.publishLocked(rec)
	return rec, nil
}

// Withdraw debits amount and appends a WITHDRAWAL record.
func (a *Account) Withdraw(amount decimal.Decimal, description string) (TransactionRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkDebitLocked(amount); err != nil {
		return TransactionRecord{}, err
	}

	a.balance = a.balance.Sub(amount)
	rec := a.appendLocked(TransactionKindWithdrawal, amount, "", description)
	a.publishLocked(rec)
	return rec, nil
}

// TransferOut moves amount to target and returns the source-side record.
func (a *Account) TransferOut(target *Account, amount decimal.Decimal, description string) (TransactionRecord, error) {
	out, _, err := a.Transfer(target, amount, description)
	return out, err
}

// Transfer moves amount to target and returns both records.
// Both accounts are locked in ascending id order for the whole debit+credit pair.
// If the credit is refused the debit and its record are undone before anything is published.
func (a *Account) Transfer(target *Account, amount decimal.Decimal, description string) (TransactionRecord, TransactionRecord, error) {
	if target == nil {
		return TransactionRecord{}, TransactionRecord{}, apperror.ErrAccountNotFound("")
	}
	if target == a || target.id == a.id {
		return TransactionRecord{}, TransactionRecord{}, apperror.ErrSameAccount()
	}

	first, second := a, target
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := a.checkDebitLocked(amount); err != nil {
		return TransactionRecord{}, TransactionRecord{}, err
	}

	prevBalance, prevLen := a.balance, len(a.log)
	a.balance = a.balance.Sub(amount)
	out := a.appendLocked(TransactionKindTransferOut, amount, target.id, description)

	in, err := target.transferInLocked(amount, a.id, description)
	if err != nil {
		a.balance = prevBalance
		a.log = a.log[:prevLen]
		return TransactionRecord{}, TransactionRecord{}, err
	}

	if a.journal != nil && a.journal == target.journal {
		a.journal.Record(out, in)
	} else {
		a.publishLocked(out)
		target.publishLocked(in)
	}
	return out, in, nil
}

// transferInLocked credits the receiving side of a transfer. Caller holds a.mu.
// A closed account must keep a zero balance, so it refuses the credit; a blocked one accepts it.
func (a *Account) transferInLocked(amount decimal.Decimal, sourceID, description string) (TransactionRecord, error) {
	if a.state == AccountStateClosed {
		return TransactionRecord{}, apperror.ErrAccountNotActive(a.id)
	}
	a.balance = a.balance.Add(amount)
	return a.appendLocked(TransactionKindTransferIn, amount, sourceID, description), nil
}

// Block suspends mutations. Blocking a blocked account is a no-op.
func (a *Account) Block() error {
	return a.transition(AccountStateBlocked)
}

// Activate lifts a block. Activating an active account is a no-op.
func (a *Account) Activate() error {
	return a.transition(AccountStateActive)
}

func (a *Account) transition(to AccountState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == AccountStateClosed {
		return apperror.ErrInvalidStateTransition(string(a.state), string(to))
	}
	a.state = to
	return nil
}

// Close terminates the account. Only an empty, not yet closed account can be closed.
func (a *Account) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == AccountStateClosed {
		return apperror.ErrInvalidStateTransition(string(a.state), string(AccountStateClosed))
	}
	if !a.balance.IsZero() {
		return apperror.ErrAccountNotEmpty(a.id)
	}
	a.state = AccountStateClosed
	return nil
}

// CanWithdraw reports whether a withdrawal of amount would be accepted right now.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == AccountStateActive && a.balance.GreaterThanOrEqual(amount)
}

func (a *Account) checkDebitLocked(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if a.state != AccountStateActive {
		return apperror.ErrAccountNotActive(a.id)
	}
	if amount.GreaterThan(a.balance) {
		return apperror.ErrInsufficientFunds()
	}
	return nil
}

func (a *Account) appendLocked(kind TransactionKind, amount decimal.Decimal, counterparty, description string) TransactionRecord {
	rec := newRecord(a.id, kind, amount, a.balance, counterparty, description, time.Now().UTC())
	a.log = append(a.log, rec)
	return rec
}

func (a *Account) publishLocked(recs ...TransactionRecord) {
	if a.journal != nil {
		a.journal.Record(recs...)
	}
}

// ---- History (all copies) ----

// Transactions returns the full log in insertion order.
func (a *Account) Transactions() []TransactionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]TransactionRecord, len(a.log))
	copy(out, a.log)
	return out
}

// History returns the newest records first. limit <= 0 returns all of them.
func (a *Account) History(limit int) []TransactionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.log)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]TransactionRecord, 0, n)
	for i := len(a.log) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.log[i])
	}
	return out
}

func (a *Account) TransactionsByKind(kind TransactionKind) []TransactionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []TransactionRecord
	for _, rec := range a.log {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// TransactionsBetween returns records with from <= timestamp <= to.
func (a *Account) TransactionsBetween(from, to time.Time) []TransactionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return FilterBetween(a.log, from, to)
}

func (a *Account) TransactionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.log)
}

// FilterBetween returns the records of recs with from <= timestamp <= to, in order.
func FilterBetween(recs []TransactionRecord, from, to time.Time) []TransactionRecord {
	var out []TransactionRecord
	for _, rec := range recs {
		if rec.Timestamp.Before(from) || rec.Timestamp.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
