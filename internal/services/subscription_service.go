package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/db"
	"storefront/internal/money"
	"storefront/internal/store"
	"storefront/internal/websocket"
)

type SubscriptionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.SubscriptionInput) error
	HasActive(ctx context.Context, tx store.Getter, accountID string) (bool, error)
	ExpireDue(ctx context.Context) (int64, error)
}

type planSpec struct {
	price  int64
	extend func(time.Time) time.Time
}

// Plan prices are fixed in minor units. Subscriptions are immutable once
// purchased; the only lifecycle transition is system-driven expiry.
var plans = map[string]planSpec{
	"monthly": {
		price:  5900,
		extend: func(now time.Time) time.Time { return now.AddDate(0, 1, 0) },
	},
	"yearly": {
		price:  59900,
		extend: func(now time.Time) time.Time { return now.AddDate(1, 0, 0) },
	},
}

type SubscriptionService struct {
	txRunner      db.TxRunner
	executor      *Executor
	accounts      AccountStore
	subscriptions SubscriptionStore
	hub           BalanceHub
	logger        *slog.Logger
	now           func() time.Time
}

func NewSubscriptionService(txRunner db.TxRunner, executor *Executor, accounts AccountStore, subscriptions SubscriptionStore, hub BalanceHub, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		txRunner:      txRunner,
		executor:      executor,
		accounts:      accounts,
		subscriptions: subscriptions,
		hub:           hub,
		logger:        logger,
		now:           time.Now,
	}
}

type PurchaseResult struct {
	Subscription     store.Subscription
	AmountDeducted   int64
	RemainingBalance int64
}

// Purchase debits the plan price and creates the subscription row in one
// transaction. The account row is locked before the active-subscription
// check so two concurrent purchases for the same account serialize.
func (s *SubscriptionService) Purchase(ctx context.Context, accountID, plan string) (PurchaseResult, error) {
	spec, ok := plans[plan]
	if !ok {
		return PurchaseResult{}, ErrUnknownPlan
	}
	subscriptionID := uuid.NewString()
	expiresAt := spec.extend(s.now().UTC())

	var account store.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.accounts.GetForUpdate(ctx, tx, accountID); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		active, err := s.subscriptions.HasActive(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if active {
			return ErrSubscriptionActive
		}
		account, err = s.executor.DebitTx(ctx, tx, accountID, spec.price, "subscription-purchase", subscriptionID)
		if err != nil {
			return err
		}
		return s.subscriptions.Create(ctx, tx, store.SubscriptionInput{
			ID:        subscriptionID,
			AccountID: accountID,
			Plan:      plan,
			Price:     spec.price,
			ExpiresAt: expiresAt,
		})
	})
	if err != nil {
		if errors.Is(err, ErrSubscriptionActive) || errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrNotFound) {
			return PurchaseResult{}, err
		}
		s.logger.Error("subscription purchase failed", "account_id", accountID, "plan", plan, "error", err)
		return PurchaseResult{}, err
	}
	s.hub.BroadcastBalance(account.UserID, websocket.BalanceUpdate{
		AccountID: account.ID,
		Balance:   money.FormatMinor(account.Balance),
		Reason:    "subscription-purchase",
	})
	return PurchaseResult{
		Subscription: store.Subscription{
			ID:        subscriptionID,
			AccountID: accountID,
			Plan:      plan,
			Price:     spec.price,
			Status:    store.SubscriptionStatusActive,
			ExpiresAt: expiresAt,
		},
		AmountDeducted:   spec.price,
		RemainingBalance: account.Balance,
	}, nil
}

// ExpireDue marks active subscriptions past their expiry as expired.
// Invoked by the cron sweeper; moves no money.
func (s *SubscriptionService) ExpireDue(ctx context.Context) error {
	expired, err := s.subscriptions.ExpireDue(ctx)
	if err != nil {
		s.logger.Error("subscription expiry sweep failed", "error", err)
		return err
	}
	if expired > 0 {
		s.logger.Info("expired subscriptions", "count", expired)
	}
	return nil
}
