package store

import (
	"context"
	"time"
)

type TransferStore struct {
	db DB
}

// VerifiedTransfer is the durable record of one externally verified bank
// transfer. TransRef carries a unique constraint; it is the idempotency
// key for the whole topup path. Rows transition pending -> verified
// exactly once and are never deleted.
type VerifiedTransfer struct {
	ID              string     `db:"id"`
	TransRef        string     `db:"trans_ref"`
	Discriminator   *string    `db:"discriminator"`
	Valid           bool       `db:"valid"`
	Amount          int64      `db:"amount"`
	SenderName      string     `db:"sender_name"`
	SenderSuffix    string     `db:"sender_suffix"`
	ReceiverName    string     `db:"receiver_name"`
	ReceiverDisplay string     `db:"receiver_display"`
	ReceiverSuffix  string     `db:"receiver_suffix"`
	TransferDate    string     `db:"transfer_date"`
	TransferTime    string     `db:"transfer_time"`
	RawPayload      []byte     `db:"raw_payload"`
	AccountID       *string    `db:"account_id"`
	Status          string     `db:"status"`
	CreatedAt       time.Time  `db:"created_at"`
	VerifiedAt      *time.Time `db:"verified_at"`
}

const (
	TransferStatusPending  = "pending"
	TransferStatusVerified = "verified"
)

type VerifiedTransferInput struct {
	ID              string
	TransRef        string
	Discriminator   *string
	Valid           bool
	Amount          int64
	SenderName      string
	SenderSuffix    string
	ReceiverName    string
	ReceiverDisplay string
	ReceiverSuffix  string
	TransferDate    string
	TransferTime    string
	RawPayload      []byte
}

func NewTransferStore(db DB) *TransferStore {
	return &TransferStore{db: db}
}

// Create inserts a pending transfer row. The unique constraint on
// trans_ref makes concurrent inserts for the same reference fail with a
// unique violation, which callers map to a duplicate-transaction error.
func (s *TransferStore) Create(ctx context.Context, tx Execer, input VerifiedTransferInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO verified_transfers
			(id, trans_ref, discriminator, valid, amount, sender_name, sender_suffix,
			 receiver_name, receiver_display, receiver_suffix, transfer_date, transfer_time,
			 raw_payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'pending')
	`, input.ID, input.TransRef, input.Discriminator, input.Valid, input.Amount,
		input.SenderName, input.SenderSuffix, input.ReceiverName, input.ReceiverDisplay,
		input.ReceiverSuffix, input.TransferDate, input.TransferTime, input.RawPayload)
	return err
}

func (s *TransferStore) GetByRef(ctx context.Context, transRef string) (VerifiedTransfer, error) {
	var row VerifiedTransfer
	err := s.db.GetContext(ctx, &row, `
		SELECT id, trans_ref, discriminator, valid, amount, sender_name, sender_suffix,
		       receiver_name, receiver_display, receiver_suffix, transfer_date, transfer_time,
		       raw_payload, account_id, status, created_at, verified_at
		FROM verified_transfers
		WHERE trans_ref = $1
	`, transRef)
	if err != nil {
		return VerifiedTransfer{}, err
	}
	return row, nil
}

// GetByRefForUpdate locks the transfer row so the pending -> verified
// transition and the balance credit commit or roll back together.
func (s *TransferStore) GetByRefForUpdate(ctx context.Context, tx Getter, transRef string) (VerifiedTransfer, error) {
	var row VerifiedTransfer
	err := tx.GetContext(ctx, &row, `
		SELECT id, trans_ref, discriminator, valid, amount, sender_name, sender_suffix,
		       receiver_name, receiver_display, receiver_suffix, transfer_date, transfer_time,
		       raw_payload, account_id, status, created_at, verified_at
		FROM verified_transfers
		WHERE trans_ref = $1
		FOR UPDATE
	`, transRef)
	if err != nil {
		return VerifiedTransfer{}, err
	}
	return row, nil
}

func (s *TransferStore) MarkVerified(ctx context.Context, tx Execer, transRef, accountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE verified_transfers
		SET status = 'verified', account_id = $1, verified_at = NOW()
		WHERE trans_ref = $2 AND status = 'pending'
	`, accountID, transRef)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TransferStore) ListAll(ctx context.Context, limit, offset int) ([]VerifiedTransfer, error) {
	var rows []VerifiedTransfer
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, trans_ref, discriminator, valid, amount, sender_name, sender_suffix,
		       receiver_name, receiver_display, receiver_suffix, transfer_date, transfer_time,
		       raw_payload, account_id, status, created_at, verified_at
		FROM verified_transfers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
