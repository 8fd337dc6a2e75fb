package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"storefront/internal/store"
	"storefront/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	getForUpdateFn  func(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, accountID string, balance int64) error
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error) {
	return s.getForUpdateFn(ctx, tx, accountID)
}

func (s stubAccountStore) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, accountID, balance)
}

type stubLedgerStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error
}

func (s stubLedgerStore) InsertEntry(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entry)
}

type stubTransferStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.VerifiedTransferInput) error
	getByRefFn     func(ctx context.Context, transRef string) (store.VerifiedTransfer, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, transRef string) (store.VerifiedTransfer, error)
	markVerifiedFn func(ctx context.Context, tx store.Execer, transRef, accountID string) (int64, error)
}

func (s stubTransferStore) Create(ctx context.Context, tx store.Execer, input store.VerifiedTransferInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransferStore) GetByRef(ctx context.Context, transRef string) (store.VerifiedTransfer, error) {
	return s.getByRefFn(ctx, transRef)
}

func (s stubTransferStore) GetByRefForUpdate(ctx context.Context, tx store.Getter, transRef string) (store.VerifiedTransfer, error) {
	return s.getForUpdateFn(ctx, tx, transRef)
}

func (s stubTransferStore) MarkVerified(ctx context.Context, tx store.Execer, transRef, accountID string) (int64, error) {
	if s.markVerifiedFn == nil {
		return 1, nil
	}
	return s.markVerifiedFn(ctx, tx, transRef, accountID)
}

type stubTopupStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TopupInput) error
}

func (s stubTopupStore) Create(ctx context.Context, tx store.Execer, input store.TopupInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubAppConfigStore struct {
	cfg store.AppConfig
	err error
}

func (s stubAppConfigStore) Get(ctx context.Context) (store.AppConfig, error) {
	return s.cfg, s.err
}

type stubMatcher struct {
	matchFn func(ctx context.Context, receiverSuffix, receiverName string) (store.ReceivingAccount, error)
}

func (s stubMatcher) Match(ctx context.Context, receiverSuffix, receiverName string) (store.ReceivingAccount, error) {
	if s.matchFn == nil {
		return store.ReceivingAccount{}, nil
	}
	return s.matchFn(ctx, receiverSuffix, receiverName)
}

type stubOrderStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.OrderInput) error
	createItemFn   func(ctx context.Context, tx store.Execer, input store.OrderItemInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, orderID string) (store.Order, error)
	deleteItemsFn  func(ctx context.Context, tx store.Execer, orderID string) error
	deleteFn       func(ctx context.Context, tx store.Execer, orderID string) (int64, error)
}

func (s stubOrderStore) Create(ctx context.Context, tx store.Execer, input store.OrderInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubOrderStore) CreateItem(ctx context.Context, tx store.Execer, input store.OrderItemInput) error {
	if s.createItemFn == nil {
		return nil
	}
	return s.createItemFn(ctx, tx, input)
}

func (s stubOrderStore) GetForUpdate(ctx context.Context, tx store.Getter, orderID string) (store.Order, error) {
	return s.getForUpdateFn(ctx, tx, orderID)
}

func (s stubOrderStore) DeleteItems(ctx context.Context, tx store.Execer, orderID string) error {
	if s.deleteItemsFn == nil {
		return nil
	}
	return s.deleteItemsFn(ctx, tx, orderID)
}

func (s stubOrderStore) Delete(ctx context.Context, tx store.Execer, orderID string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, orderID)
}

type stubSubscriptionStore struct {
	createFn    func(ctx context.Context, tx store.Execer, input store.SubscriptionInput) error
	hasActiveFn func(ctx context.Context, tx store.Getter, accountID string) (bool, error)
	expireDueFn func(ctx context.Context) (int64, error)
}

func (s stubSubscriptionStore) Create(ctx context.Context, tx store.Execer, input store.SubscriptionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubSubscriptionStore) HasActive(ctx context.Context, tx store.Getter, accountID string) (bool, error) {
	if s.hasActiveFn == nil {
		return false, nil
	}
	return s.hasActiveFn(ctx, tx, accountID)
}

func (s stubSubscriptionStore) ExpireDue(ctx context.Context) (int64, error) {
	if s.expireDueFn == nil {
		return 0, nil
	}
	return s.expireDueFn(ctx)
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inMemoryAccount keeps a single balance so a test can watch it move.
type inMemoryAccount struct {
	account store.Account
}

func (m *inMemoryAccount) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (store.Account, error) {
	if accountID != m.account.ID {
		return store.Account{}, sql.ErrNoRows
	}
	return m.account, nil
}

func (m *inMemoryAccount) UpdateBalance(_ context.Context, _ store.Execer, accountID string, balance int64) error {
	m.account.Balance = balance
	return nil
}
