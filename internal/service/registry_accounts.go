package service

import (
	"account-ledger/internal/core/domain"
	"account-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// OpenAccount registers a freshly created account under its owner. Ids of
// removed accounts with history stay taken.
func (r *Registry) OpenAccount(account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, apperror.Validation("account is required")
	}
	if account.TransactionCount() > 0 {
		return nil, apperror.Validation("account already has transaction history")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.clients[account.OwnerID()]
	if !ok {
		return nil, apperror.ErrClientNotFound(account.OwnerID())
	}
	if _, exists := r.accounts[account.ID()]; exists {
		return nil, apperror.ErrDuplicateAccount(account.ID())
	}
	if _, retired := r.retired[account.ID()]; retired {
		return nil, apperror.ErrDuplicateAccount(account.ID())
	}

	account.AttachJournal(r.index)
	r.accounts[account.ID()] = account
	r.accountOrder = append(r.accountOrder, account.ID())
	owner.AddAccount(account)

	r.log.Info().
		Str("account_id", account.ID()).
		Str("client_id", owner.ID()).
		Str("kind", string(account.Kind())).
		Str("opening_balance", account.OpeningBalance().String()).
		Msg("account opened")

	return account, nil
}

// CloseAccount closes an empty account.
func (r *Registry) CloseAccount(accountID string) error {
	return r.withAccount(accountID, func(acc *domain.Account) error {
		if err := acc.Close(); err != nil {
			return err
		}
		r.log.Info().Str("account_id", accountID).Msg("account closed")
		return nil
	})
}

func (r *Registry) BlockAccount(accountID string) error {
	return r.withAccount(accountID, func(acc *domain.Account) error {
		if err := acc.Block(); err != nil {
			return err
		}
		r.log.Info().Str("account_id", accountID).Msg("account blocked")
		return nil
	})
}

func (r *Registry) ActivateAccount(accountID string) error {
	return r.withAccount(accountID, func(acc *domain.Account) error {
		if err := acc.Activate(); err != nil {
			return err
		}
		r.log.Info().Str("account_id", accountID).Msg("account activated")
		return nil
	})
}

// Deposit credits an account. The record reaches the index through the account's journal.
func (r *Registry) Deposit(accountID string, amount decimal.Decimal, description string) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	err := r.withAccount(accountID, func(acc *domain.Account) error {
		var err error
		rec, err = acc.Deposit(amount, description)
		return err
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	r.log.Info().
		Str("tx_id", rec.ID.String()).
		Str("account_id", accountID).
		Str("amount", amount.String()).
		Str("balance_after", rec.BalanceAfter.String()).
		Msg("deposit accepted")
	return rec, nil
}

// Withdraw debits an account.
func (r *Registry) Withdraw(accountID string, amount decimal.Decimal, description string) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	err := r.withAccount(accountID, func(acc *domain.Account) error {
		var err error
		rec, err = acc.Withdraw(amount, description)
		return err
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	r.log.Info().
		Str("tx_id", rec.ID.String()).
		Str("account_id", accountID).
		Str("amount", amount.String()).
		Str("balance_after", rec.BalanceAfter.String()).
		Msg("withdrawal accepted")
	return rec, nil
}

// Transfer moves money between two registered accounts and returns the
// TRANSFER_OUT and TRANSFER_IN records, which enter the index in that order.
func (r *Registry) Transfer(sourceID, targetID string, amount decimal.Decimal, description string) (domain.TransactionRecord, domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.accounts[sourceID]
	if !ok {
		return domain.TransactionRecord{}, domain.TransactionRecord{}, apperror.ErrAccountNotFound(sourceID)
	}
	dst, ok := r.accounts[targetID]
	if !ok {
		return domain.TransactionRecord{}, domain.TransactionRecord{}, apperror.ErrAccountNotFound(targetID)
	}

	out, in, err := src.Transfer(dst, amount, description)
	if err != nil {
		return domain.TransactionRecord{}, domain.TransactionRecord{}, err
	}

	r.log.Info().
		Str("tx_id", out.ID.String()).
		Str("source_id", sourceID).
		Str("target_id", targetID).
		Str("amount", amount.String()).
		Msg("transfer accepted")
	return out, in, nil
}

func (r *Registry) FindAccount(accountID string) *domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[accountID]
}

// AccountsByClient returns the client's accounts in the order they were opened.
func (r *Registry) AccountsByClient(clientID string) ([]*domain.Account, error) {
	client := r.FindClient(clientID)
	if client == nil {
		return nil, apperror.ErrClientNotFound(clientID)
	}
	return client.Accounts(), nil
}

// Accounts returns all accounts in the order they were opened.
func (r *Registry) Accounts() []*domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Account, 0, len(r.accountOrder))
	for _, id := range r.accountOrder {
		out = append(out, r.accounts[id])
	}
	return out
}

// withAccount runs fn on a registered account while holding the registry shared.
func (r *Registry) withAccount(accountID string, fn func(acc *domain.Account) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[accountID]
	if !ok {
		return apperror.ErrAccountNotFound(accountID)
	}
	return fn(acc)
}
