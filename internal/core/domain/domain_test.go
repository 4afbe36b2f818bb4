package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransactionRecord_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		kind       TransactionKind
		deposit    bool
		withdrawal bool
		transfer   bool
	}{
		{"deposit", TransactionKindDeposit, true, false, false},
		{"withdrawal", TransactionKindWithdrawal, false, true, false},
		{"transfer out", TransactionKindTransferOut, false, false, true},
		{"transfer in", TransactionKindTransferIn, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := TransactionRecord{Kind: tt.kind}
			assert.Equal(t, tt.deposit, rec.IsDeposit())
			assert.Equal(t, tt.withdrawal, rec.IsWithdrawal())
			assert.Equal(t, tt.transfer, rec.IsTransfer())
		})
	}
}

func TestTransactionRecord_Status(t *testing.T) {
	assert.True(t, TransactionRecord{Status: TransactionStatusCompleted}.IsCompleted())
	assert.False(t, TransactionRecord{Status: TransactionStatusCompleted}.IsPending())
	assert.True(t, TransactionRecord{Status: TransactionStatusPending}.IsPending())
	assert.False(t, TransactionRecord{Status: TransactionStatusFailed}.IsCompleted())
}

func TestTransactionRecord_SignedAmount(t *testing.T) {
	tests := []struct {
		kind TransactionKind
		want string
	}{
		{TransactionKindDeposit, "12.5"},
		{TransactionKindTransferIn, "12.5"},
		{TransactionKindWithdrawal, "-12.5"},
		{TransactionKindTransferOut, "-12.5"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			rec := TransactionRecord{Kind: tt.kind, Amount: dec("12.5")}
			assert.True(t, dec(tt.want).Equal(rec.SignedAmount()))
		})
	}
}

func TestTransactionRecord_Validate(t *testing.T) {
	valid := TransactionRecord{
		ID:        uuid.New(),
		AccountID: "ACC1",
		Kind:      TransactionKindDeposit,
		Amount:    dec("10"),
		Status:    TransactionStatusCompleted,
	}

	tests := []struct {
		name    string
		mutate  func(r *TransactionRecord)
		wantErr bool
	}{
		{"valid", func(r *TransactionRecord) {}, false},
		{"missing id", func(r *TransactionRecord) { r.ID = uuid.Nil }, true},
		{"missing account", func(r *TransactionRecord) { r.AccountID = "" }, true},
		{"zero amount", func(r *TransactionRecord) { r.Amount = decimal.Zero }, true},
		{"negative amount", func(r *TransactionRecord) { r.Amount = dec("-1") }, true},
		{"unknown kind", func(r *TransactionRecord) { r.Kind = "FEE" }, true},
		{"unknown status", func(r *TransactionRecord) { r.Status = "DONE" }, true},
		{"transfer without counterparty", func(r *TransactionRecord) { r.Kind = TransactionKindTransferIn }, true},
		{"transfer with counterparty", func(r *TransactionRecord) {
			r.Kind = TransactionKindTransferOut
			r.CounterpartyAccountID = "ACC2"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountKind_Valid(t *testing.T) {
	assert.True(t, AccountKindSavings.Valid())
	assert.True(t, AccountKindChecking.Valid())
	assert.True(t, AccountKindInvestment.Valid())
	assert.False(t, AccountKind("CRYPTO").Valid())
}
