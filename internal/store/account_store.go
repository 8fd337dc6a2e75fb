package store

import (
	"context"
	"time"
)

type AccountStore struct {
	db DB
}

// Account is a user's monetary state. Balance is satang (minor units)
// and is mutated only by the balance executor inside a transaction.
type Account struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, id, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, balance)
		VALUES ($1, $2, 0)
	`, id, userID)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByUser(ctx context.Context, userID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at
		FROM accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// GetForUpdate locks the account row for the duration of the enclosing
// transaction. Every balance computation starts from a row read through
// this method, never from a value read outside the transaction.
func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, balance, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}
