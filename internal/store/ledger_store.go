package store

import (
	"context"
	"time"
)

type LedgerStore struct {
	db DB
}

// LedgerEntry is one row of the append-only audit trail. Positive
// amounts are credits, negative are debits. Entries are written in the
// same transaction as the balance mutation they describe and are never
// updated or deleted.
type LedgerEntry struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Amount    int64     `db:"amount"`
	Reason    string    `db:"reason"`
	Reference string    `db:"reference"`
	CreatedAt time.Time `db:"created_at"`
}

type LedgerEntryInput struct {
	ID        string
	AccountID string
	Amount    int64
	Reason    string
	Reference string
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) InsertEntry(ctx context.Context, tx Execer, entry LedgerEntryInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, amount, reason, reference)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.AccountID, entry.Amount, entry.Reason, entry.Reference)
	return err
}

func (s *LedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]LedgerEntry, error) {
	var rows []LedgerEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, reason, reference, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	return sum, err
}
