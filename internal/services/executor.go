package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"storefront/internal/store"
)

type AccountStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
}

type LedgerStore interface {
	InsertEntry(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error
}

// Executor is the only component that mutates Account.balance. Both
// operations run inside a caller-supplied transaction, re-read the
// account row under a FOR UPDATE lock, and append exactly one ledger
// entry. Balance and audit trail commit or roll back together.
type Executor struct {
	accounts AccountStore
	ledger   LedgerStore
}

func NewExecutor(accounts AccountStore, ledger LedgerStore) *Executor {
	return &Executor{accounts: accounts, ledger: ledger}
}

// CreditTx adds amount to the account balance and returns the account
// with its new balance.
func (e *Executor) CreditTx(ctx context.Context, tx store.Tx, accountID string, amount int64, reason, reference string) (store.Account, error) {
	if amount <= 0 {
		return store.Account{}, ErrInvalidAmount
	}
	account, err := e.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Account{}, ErrNotFound
		}
		return store.Account{}, err
	}
	newBalance := account.Balance + amount
	if err := e.accounts.UpdateBalance(ctx, tx, accountID, newBalance); err != nil {
		return store.Account{}, err
	}
	if err := e.ledger.InsertEntry(ctx, tx, store.LedgerEntryInput{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
	}); err != nil {
		return store.Account{}, err
	}
	account.Balance = newBalance
	return account, nil
}

// DebitTx subtracts amount from the account balance, failing with
// ErrInsufficientFunds when the locked balance cannot cover it.
func (e *Executor) DebitTx(ctx context.Context, tx store.Tx, accountID string, amount int64, reason, reference string) (store.Account, error) {
	if amount <= 0 {
		return store.Account{}, ErrInvalidAmount
	}
	account, err := e.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Account{}, ErrNotFound
		}
		return store.Account{}, err
	}
	if account.Balance < amount {
		return store.Account{}, ErrInsufficientFunds
	}
	newBalance := account.Balance - amount
	if err := e.accounts.UpdateBalance(ctx, tx, accountID, newBalance); err != nil {
		return store.Account{}, err
	}
	if err := e.ledger.InsertEntry(ctx, tx, store.LedgerEntryInput{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    -amount,
		Reason:    reason,
		Reference: reference,
	}); err != nil {
		return store.Account{}, err
	}
	account.Balance = newBalance
	return account, nil
}
