package store

import (
	"context"
	"database/sql"
	"time"
)

type SubscriptionStore struct {
	db DB
}

type Subscription struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Plan      string    `db:"plan"`
	Price     int64     `db:"price"`
	Status    string    `db:"status"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Cancelled is representable but no user-facing path produces it;
// subscriptions run to expiry unless an operator intervenes directly.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

type SubscriptionInput struct {
	ID        string
	AccountID string
	Plan      string
	Price     int64
	ExpiresAt time.Time
}

func NewSubscriptionStore(db DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Create(ctx context.Context, tx Execer, input SubscriptionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (id, account_id, plan, price, status, expires_at)
		VALUES ($1, $2, $3, $4, 'active', $5)
	`, input.ID, input.AccountID, input.Plan, input.Price, input.ExpiresAt)
	return err
}

// HasActive reports whether the account currently holds an active
// subscription. Called inside the purchase transaction, after the
// account row is locked, so two concurrent purchases serialize.
func (s *SubscriptionStore) HasActive(ctx context.Context, tx Getter, accountID string) (bool, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		SELECT id
		FROM subscriptions
		WHERE account_id = $1 AND status = 'active'
		LIMIT 1
	`, accountID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SubscriptionStore) ListByAccount(ctx context.Context, accountID string) ([]Subscription, error) {
	var rows []Subscription
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, plan, price, status, expires_at, created_at
		FROM subscriptions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpireDue flips active subscriptions past their expiry to expired.
// Run periodically; no money moves here.
func (s *SubscriptionStore) ExpireDue(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
