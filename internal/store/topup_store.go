package store

import (
	"context"
	"time"
)

type TopupStore struct {
	db DB
}

// Topup is the audit record of one successful balance credit from any
// source. It is written in the same transaction as the credit itself.
type Topup struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Amount    int64     `db:"amount"`
	Method    string    `db:"method"`
	TransRef  string    `db:"trans_ref"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TopupMethodSlip      = "bank_slip"
	TopupMethodPromptPay = "promptpay"
)

type TopupInput struct {
	ID        string
	AccountID string
	Amount    int64
	Method    string
	TransRef  string
}

func NewTopupStore(db DB) *TopupStore {
	return &TopupStore{db: db}
}

func (s *TopupStore) Create(ctx context.Context, tx Execer, input TopupInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO topups (id, account_id, amount, method, trans_ref, status)
		VALUES ($1, $2, $3, $4, $5, 'completed')
	`, input.ID, input.AccountID, input.Amount, input.Method, input.TransRef)
	return err
}

func (s *TopupStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Topup, error) {
	var rows []Topup
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, method, trans_ref, status, created_at
		FROM topups
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TopupStore) ListAll(ctx context.Context, limit, offset int) ([]Topup, error) {
	var rows []Topup
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, method, trans_ref, status, created_at
		FROM topups
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
