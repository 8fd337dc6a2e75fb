package handlers

import (
	"context"
	"io"

	"storefront/internal/services"
	"storefront/internal/slipverify"
	"storefront/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID string) error
	GetByID(ctx context.Context, accountID string) (store.Account, error)
	GetByUser(ctx context.Context, userID string) (store.Account, error)
}

type LedgerStore interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error)
	SumByAccount(ctx context.Context, accountID string) (int64, error)
}

type TopupStore interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Topup, error)
	ListAll(ctx context.Context, limit, offset int) ([]store.Topup, error)
}

type TransferStore interface {
	ListAll(ctx context.Context, limit, offset int) ([]store.VerifiedTransfer, error)
}

type ReceivingAccountStore interface {
	Create(ctx context.Context, tx store.Execer, input store.ReceivingAccountInput) error
	ListAll(ctx context.Context) ([]store.ReceivingAccount, error)
	Deactivate(ctx context.Context, tx store.Execer, id string) (int64, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (store.Order, error)
	ListItems(ctx context.Context, orderID string) ([]store.OrderItem, error)
}

type SubscriptionStore interface {
	ListByAccount(ctx context.Context, accountID string) ([]store.Subscription, error)
}

type AppConfigStore interface {
	Get(ctx context.Context) (store.AppConfig, error)
	Update(ctx context.Context, tx store.Execer, cfg store.AppConfig) error
}

type SlipVerifier interface {
	VerifyPayload(ctx context.Context, payload string) (slipverify.Result, error)
	VerifyImage(ctx context.Context, filename string, image io.Reader) (slipverify.Result, error)
	VerifyRaw(ctx context.Context, data []byte) (slipverify.Result, error)
}

type TopupService interface {
	ConfirmSlip(ctx context.Context, req services.ConfirmSlipRequest) (services.TopupResult, error)
	ConfirmPromptPay(ctx context.Context, accountID, qrRecordID string, amountMinor int64) (services.TopupResult, error)
	RecordInquiry(ctx context.Context, result slipverify.Result) error
}

type OrderService interface {
	Create(ctx context.Context, req services.CreateOrderRequest) (store.Order, error)
	Delete(ctx context.Context, orderID string) (services.DeleteOrderResult, error)
}

type SubscriptionService interface {
	Purchase(ctx context.Context, accountID, plan string) (services.PurchaseResult, error)
}
