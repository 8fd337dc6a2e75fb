package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/db"
	"storefront/internal/money"
	"storefront/internal/slipverify"
	"storefront/internal/store"
	"storefront/internal/websocket"
)

type TransferStore interface {
	Create(ctx context.Context, tx store.Execer, input store.VerifiedTransferInput) error
	GetByRef(ctx context.Context, transRef string) (store.VerifiedTransfer, error)
	GetByRefForUpdate(ctx context.Context, tx store.Getter, transRef string) (store.VerifiedTransfer, error)
	MarkVerified(ctx context.Context, tx store.Execer, transRef, accountID string) (int64, error)
}

type TopupStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TopupInput) error
}

type AppConfigStore interface {
	Get(ctx context.Context) (store.AppConfig, error)
}

type Matcher interface {
	Match(ctx context.Context, receiverSuffix, receiverName string) (store.ReceivingAccount, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// TopupService coordinates both funding paths: bank-slip confirmation
// and PromptPay QR confirmation. Both share the idempotency guard (the
// unique trans_ref constraint) and the executor; only the slip path runs
// the account matcher.
type TopupService struct {
	txRunner  db.TxRunner
	executor  *Executor
	transfers TransferStore
	topups    TopupStore
	appConfig AppConfigStore
	matcher   Matcher
	hub       BalanceHub
	logger    *slog.Logger
}

func NewTopupService(txRunner db.TxRunner, executor *Executor, transfers TransferStore, topups TopupStore, appConfig AppConfigStore, matcher Matcher, hub BalanceHub, logger *slog.Logger) *TopupService {
	return &TopupService{
		txRunner:  txRunner,
		executor:  executor,
		transfers: transfers,
		topups:    topups,
		appConfig: appConfig,
		matcher:   matcher,
		hub:       hub,
		logger:    logger,
	}
}

type ConfirmSlipRequest struct {
	AccountID       string
	ReceiverAccount string
	ReceiverName    string
	AmountMinor     int64
	TransRef        string
	SlipPayload     []byte
}

type TopupResult struct {
	AmountAdded int64
	NewBalance  int64
	TransRef    string
}

// ConfirmSlip credits the account for an externally verified bank
// transfer. Guard, matcher, credit, and the pending -> verified
// transition all run in one transaction; a concurrent confirm of the
// same reference loses on the unique constraint or the status check and
// observes ErrDuplicateTransaction without touching the balance.
func (s *TopupService) ConfirmSlip(ctx context.Context, req ConfirmSlipRequest) (TopupResult, error) {
	if req.TransRef == "" {
		return TopupResult{}, ErrMissingReference
	}
	if req.AmountMinor <= 0 {
		return TopupResult{}, ErrInvalidAmount
	}
	var account store.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.transfers.GetByRefForUpdate(ctx, tx, req.TransRef)
		switch {
		case err == sql.ErrNoRows:
			if err := s.transfers.Create(ctx, tx, store.VerifiedTransferInput{
				ID:             uuid.NewString(),
				TransRef:       req.TransRef,
				Valid:          true,
				Amount:         req.AmountMinor,
				ReceiverName:   req.ReceiverName,
				ReceiverSuffix: lastFour(req.ReceiverAccount),
				RawPayload:     req.SlipPayload,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Status == store.TransferStatusVerified:
			return ErrDuplicateTransaction
		}

		if _, err := s.matcher.Match(ctx, lastFour(req.ReceiverAccount), req.ReceiverName); err != nil {
			return err
		}

		account, err = s.executor.CreditTx(ctx, tx, req.AccountID, req.AmountMinor, "slip-topup", req.TransRef)
		if err != nil {
			return err
		}

		claimed, err := s.transfers.MarkVerified(ctx, tx, req.TransRef, req.AccountID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return ErrDuplicateTransaction
		}
		return s.topups.Create(ctx, tx, store.TopupInput{
			ID:        uuid.NewString(),
			AccountID: req.AccountID,
			Amount:    req.AmountMinor,
			Method:    store.TopupMethodSlip,
			TransRef:  req.TransRef,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return TopupResult{}, ErrDuplicateTransaction
		}
		if isExpectedTopupError(err) {
			return TopupResult{}, err
		}
		s.logger.Error("slip topup failed", "trans_ref", req.TransRef, "account_id", req.AccountID, "error", err)
		return TopupResult{}, err
	}
	s.hub.BroadcastBalance(account.UserID, websocket.BalanceUpdate{
		AccountID: account.ID,
		Balance:   money.FormatMinor(account.Balance),
		Reason:    "slip-topup",
	})
	return TopupResult{
		AmountAdded: req.AmountMinor,
		NewBalance:  account.Balance,
		TransRef:    req.TransRef,
	}, nil
}

// ConfirmPromptPay credits a PromptPay QR topup. The receiving account
// is fixed by configuration and pre-validated, so there is no matcher
// step; the QR record id serves as the idempotency reference. The
// configured bonus percentage, if any, is credited on top.
func (s *TopupService) ConfirmPromptPay(ctx context.Context, accountID, qrRecordID string, amountMinor int64) (TopupResult, error) {
	if qrRecordID == "" {
		return TopupResult{}, ErrMissingReference
	}
	if amountMinor <= 0 {
		return TopupResult{}, ErrInvalidAmount
	}
	cfg, err := s.appConfig.Get(ctx)
	if err != nil {
		return TopupResult{}, err
	}
	credit := amountMinor + bonusMinor(amountMinor, cfg.BonusPercent)

	var account store.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.transfers.GetByRefForUpdate(ctx, tx, qrRecordID)
		switch {
		case err == sql.ErrNoRows:
			if err := s.transfers.Create(ctx, tx, store.VerifiedTransferInput{
				ID:              uuid.NewString(),
				TransRef:        qrRecordID,
				Valid:           true,
				Amount:          amountMinor,
				ReceiverDisplay: cfg.PromptPayID,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Status == store.TransferStatusVerified:
			return ErrDuplicateTransaction
		}

		account, err = s.executor.CreditTx(ctx, tx, accountID, credit, "promptpay-topup", qrRecordID)
		if err != nil {
			return err
		}

		claimed, err := s.transfers.MarkVerified(ctx, tx, qrRecordID, accountID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return ErrDuplicateTransaction
		}
		return s.topups.Create(ctx, tx, store.TopupInput{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Amount:    credit,
			Method:    store.TopupMethodPromptPay,
			TransRef:  qrRecordID,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return TopupResult{}, ErrDuplicateTransaction
		}
		if isExpectedTopupError(err) {
			return TopupResult{}, err
		}
		s.logger.Error("promptpay topup failed", "qr_record_id", qrRecordID, "account_id", accountID, "error", err)
		return TopupResult{}, err
	}
	s.hub.BroadcastBalance(account.UserID, websocket.BalanceUpdate{
		AccountID: account.ID,
		Balance:   money.FormatMinor(account.Balance),
		Reason:    "promptpay-topup",
	})
	return TopupResult{
		AmountAdded: credit,
		NewBalance:  account.Balance,
		TransRef:    qrRecordID,
	}, nil
}

// RecordInquiry persists the pending transfer row the first time a
// reference is seen, returning the provider result untouched. Races with
// a concurrent confirm are benign: the row already existing is fine.
func (s *TopupService) RecordInquiry(ctx context.Context, result slipverify.Result) error {
	if result.TransRef == "" {
		return ErrMissingReference
	}
	_, err := s.transfers.GetByRef(ctx, result.TransRef)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	var discriminator *string
	if result.Discriminator != "" {
		discriminator = &result.Discriminator
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.transfers.Create(ctx, tx, store.VerifiedTransferInput{
			ID:              uuid.NewString(),
			TransRef:        result.TransRef,
			Discriminator:   discriminator,
			Valid:           result.Valid,
			Amount:          result.AmountMinor,
			SenderName:      result.SenderName,
			SenderSuffix:    result.SenderSuffix,
			ReceiverName:    result.ReceiverName,
			ReceiverDisplay: result.ReceiverDisplay,
			ReceiverSuffix:  result.ReceiverSuffix,
			TransferDate:    result.TransferDate,
			TransferTime:    result.TransferTime,
			RawPayload:      result.Raw,
		})
	})
	if db.IsUniqueViolation(err) {
		return nil
	}
	return err
}

func isExpectedTopupError(err error) bool {
	return errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrAccountMismatch) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidAmount)
}

func bonusMinor(amountMinor int64, percent string) int64 {
	if percent == "" {
		return 0
	}
	rate, err := decimal.NewFromString(percent)
	if err != nil || rate.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountMinor).Mul(rate).Div(decimal.NewFromInt(100)).RoundBank(0).IntPart()
}

func lastFour(accountNumber string) string {
	digits := make([]byte, 0, len(accountNumber))
	for i := 0; i < len(accountNumber); i++ {
		if accountNumber[i] >= '0' && accountNumber[i] <= '9' {
			digits = append(digits, accountNumber[i])
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
