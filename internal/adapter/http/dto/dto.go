package dto

import (
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
)

// Money amounts travel as decimal strings ("125.50") so no precision is lost
// in JSON numbers.

// RegisterClientRequest is the request body for client registration.
type RegisterClientRequest struct {
	ID       string `json:"id,omitempty" binding:"omitempty,ledger_id"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for client login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ChangeCredentialRequest is the request body for a password change.
type ChangeCredentialRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" sanitize:"-"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128" sanitize:"-"`
}

// ClientResponse describes a registered client. The credential hash is never exposed.
type ClientResponse struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	CreatedAt  string   `json:"created_at"`
	AccountIDs []string `json:"account_ids"`
}

// OpenAccountRequest is the request body for opening an account.
type OpenAccountRequest struct {
	ID             string `json:"id,omitempty" binding:"omitempty,ledger_id"`
	Kind           string `json:"kind,omitempty" binding:"omitempty,oneof=SAVINGS CHECKING INVESTMENT"`
	InitialBalance string `json:"initial_balance,omitempty" binding:"omitempty,decimal"`
}

// AmountRequest is the request body for deposits and withdrawals.
type AmountRequest struct {
	Amount      string `json:"amount" binding:"required,decimal"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TransferRequest is the request body for a transfer out of the path account.
type TransferRequest struct {
	TargetAccountID string `json:"target_account_id" binding:"required,ledger_id"`
	Amount          string `json:"amount" binding:"required,decimal"`
	Description     string `json:"description,omitempty" binding:"max=255"`
}

// TransactionQuery holds the filters of a history listing.
type TransactionQuery struct {
	Limit int       `form:"limit" binding:"omitempty,min=1,max=1000"`
	Kind  string    `form:"kind" binding:"omitempty,oneof=DEPOSIT WITHDRAWAL TRANSFER_OUT TRANSFER_IN"`
	From  time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To    time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// AccountResponse describes an account and its current balance.
type AccountResponse struct {
	ID               string `json:"id"`
	OwnerClientID    string `json:"owner_client_id"`
	Kind             string `json:"kind"`
	State            string `json:"state"`
	Balance          string `json:"balance"`
	TransactionCount int    `json:"transaction_count"`
	CreatedAt        string `json:"created_at"`
}

// TransactionResponse describes one transaction record.
type TransactionResponse struct {
	ID                    string `json:"id"`
	AccountID             string `json:"account_id"`
	Kind                  string `json:"kind"`
	Amount                string `json:"amount"`
	CounterpartyAccountID string `json:"counterparty_account_id,omitempty"`
	BalanceAfter          string `json:"balance_after"`
	Description           string `json:"description,omitempty"`
	Status                string `json:"status"`
	Timestamp             string `json:"timestamp"`
}

// TransferResponse holds both legs of a transfer.
type TransferResponse struct {
	Out TransactionResponse `json:"out"`
	In  TransactionResponse `json:"in"`
}

// TransactionListResponse wraps a history listing.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}

// StatsResponse is the response for ledger statistics.
type StatsResponse struct {
	Name               string `json:"name"`
	Code               string `json:"code"`
	CreatedAt          string `json:"created_at"`
	ClientCount        int    `json:"client_count"`
	AccountCount       int    `json:"account_count"`
	ActiveAccountCount int    `json:"active_account_count"`
	TotalBalance       string `json:"total_balance"`
	TransactionCount   int    `json:"transaction_count"`
}

// NewClientResponse converts a client for output.
func NewClientResponse(c *domain.Client) ClientResponse {
	accounts := c.Accounts()
	ids := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		ids = append(ids, acc.ID())
	}
	return ClientResponse{
		ID:         c.ID(),
		Email:      c.Email(),
		Name:       c.Name(),
		CreatedAt:  c.CreatedAt().Format(time.RFC3339),
		AccountIDs: ids,
	}
}

// NewAccountResponse converts an account for output.
func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID(),
		OwnerClientID:    a.OwnerID(),
		Kind:             string(a.Kind()),
		State:            string(a.State()),
		Balance:          a.Balance().String(),
		TransactionCount: a.TransactionCount(),
		CreatedAt:        a.CreatedAt().Format(time.RFC3339),
	}
}

// NewAccountListResponse converts accounts for output.
func NewAccountListResponse(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountResponse(a))
	}
	return out
}

// NewTransactionResponse converts a record for output.
func NewTransactionResponse(r domain.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		ID:                    r.ID.String(),
		AccountID:             r.AccountID,
		Kind:                  string(r.Kind),
		Amount:                r.Amount.String(),
		CounterpartyAccountID: r.CounterpartyAccountID,
		BalanceAfter:          r.BalanceAfter.String(),
		Description:           r.Description,
		Status:                string(r.Status),
		Timestamp:             r.Timestamp.Format(time.RFC3339Nano),
	}
}

// NewTransactionListResponse converts records for output.
func NewTransactionListResponse(records []domain.TransactionRecord) TransactionListResponse {
	items := make([]TransactionResponse, 0, len(records))
	for _, r := range records {
		items = append(items, NewTransactionResponse(r))
	}
	return TransactionListResponse{Items: items, Total: len(items)}
}

// NewStatsResponse converts ledger statistics for output.
func NewStatsResponse(s ports.LedgerStats) StatsResponse {
	return StatsResponse{
		Name:               s.Name,
		Code:               s.Code,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
		ClientCount:        s.ClientCount,
		AccountCount:       s.AccountCount,
		ActiveAccountCount: s.ActiveAccountCount,
		TotalBalance:       s.TotalBalance.String(),
		TransactionCount:   s.TransactionCount,
	}
}
