package store

import (
	"context"
	"time"
)

type ReceivingAccountStore struct {
	db DB
}

// ReceivingAccount is an admin-configured bank account eligible to
// receive user top-ups. Transfers are matched against Suffix and
// ReceiverName; AccountNumber is stored for reference only.
type ReceivingAccount struct {
	ID            string    `db:"id"`
	Suffix        string    `db:"suffix"`
	AccountNumber string    `db:"account_number"`
	ReceiverName  string    `db:"receiver_name"`
	DisplayName   string    `db:"display_name"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
}

type ReceivingAccountInput struct {
	ID            string
	Suffix        string
	AccountNumber string
	ReceiverName  string
	DisplayName   string
}

func NewReceivingAccountStore(db DB) *ReceivingAccountStore {
	return &ReceivingAccountStore{db: db}
}

func (s *ReceivingAccountStore) Create(ctx context.Context, tx Execer, input ReceivingAccountInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO receiving_accounts (id, suffix, account_number, receiver_name, display_name, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, input.ID, input.Suffix, input.AccountNumber, input.ReceiverName, input.DisplayName)
	return err
}

func (s *ReceivingAccountStore) ListActive(ctx context.Context) ([]ReceivingAccount, error) {
	var rows []ReceivingAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, suffix, account_number, receiver_name, display_name, is_active, created_at
		FROM receiving_accounts
		WHERE is_active = TRUE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReceivingAccountStore) ListAll(ctx context.Context) ([]ReceivingAccount, error) {
	var rows []ReceivingAccount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, suffix, account_number, receiver_name, display_name, is_active, created_at
		FROM receiving_accounts
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReceivingAccountStore) Deactivate(ctx context.Context, tx Execer, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE receiving_accounts
		SET is_active = FALSE
		WHERE id = $1
	`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
