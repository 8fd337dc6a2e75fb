package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/slipverify"
	"storefront/internal/store"
	"storefront/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (store.User, error)
	getByIDFn    func(ctx context.Context, userID string) (store.User, error)
	isAdminFn    func(ctx context.Context, userID string) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return false, nil
	}
	return s.isAdminFn(ctx, userID)
}

type stubAccountStore struct {
	createFn    func(ctx context.Context, tx store.Execer, id, userID string) error
	getByIDFn   func(ctx context.Context, accountID string) (store.Account, error)
	getByUserFn func(ctx context.Context, userID string) (store.Account, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, id, userID string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID string) (store.Account, error) {
	if s.getByIDFn == nil {
		return store.Account{}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccountStore) GetByUser(ctx context.Context, userID string) (store.Account, error) {
	if s.getByUserFn == nil {
		return store.Account{ID: "acc-1", UserID: userID}, nil
	}
	return s.getByUserFn(ctx, userID)
}

type stubLedgerStore struct {
	listFn func(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error)
	sumFn  func(ctx context.Context, accountID string) (int64, error)
}

func (s stubLedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.LedgerEntry, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, accountID, limit, offset)
}

func (s stubLedgerStore) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	if s.sumFn == nil {
		return 0, nil
	}
	return s.sumFn(ctx, accountID)
}

type stubTopupStore struct {
	listByAccountFn func(ctx context.Context, accountID string, limit, offset int) ([]store.Topup, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]store.Topup, error)
}

func (s stubTopupStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]store.Topup, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, accountID, limit, offset)
}

func (s stubTopupStore) ListAll(ctx context.Context, limit, offset int) ([]store.Topup, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubTransferStore struct {
	listAllFn func(ctx context.Context, limit, offset int) ([]store.VerifiedTransfer, error)
}

func (s stubTransferStore) ListAll(ctx context.Context, limit, offset int) ([]store.VerifiedTransfer, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubReceivingStore struct {
	createFn     func(ctx context.Context, tx store.Execer, input store.ReceivingAccountInput) error
	listAllFn    func(ctx context.Context) ([]store.ReceivingAccount, error)
	deactivateFn func(ctx context.Context, tx store.Execer, id string) (int64, error)
}

func (s stubReceivingStore) Create(ctx context.Context, tx store.Execer, input store.ReceivingAccountInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubReceivingStore) ListAll(ctx context.Context) ([]store.ReceivingAccount, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

func (s stubReceivingStore) Deactivate(ctx context.Context, tx store.Execer, id string) (int64, error) {
	if s.deactivateFn == nil {
		return 1, nil
	}
	return s.deactivateFn(ctx, tx, id)
}

type stubOrderStore struct {
	getByIDFn   func(ctx context.Context, orderID string) (store.Order, error)
	listItemsFn func(ctx context.Context, orderID string) ([]store.OrderItem, error)
}

func (s stubOrderStore) GetByID(ctx context.Context, orderID string) (store.Order, error) {
	if s.getByIDFn == nil {
		return store.Order{}, nil
	}
	return s.getByIDFn(ctx, orderID)
}

func (s stubOrderStore) ListItems(ctx context.Context, orderID string) ([]store.OrderItem, error) {
	if s.listItemsFn == nil {
		return nil, nil
	}
	return s.listItemsFn(ctx, orderID)
}

type stubSubscriptionStore struct {
	listFn func(ctx context.Context, accountID string) ([]store.Subscription, error)
}

func (s stubSubscriptionStore) ListByAccount(ctx context.Context, accountID string) ([]store.Subscription, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, accountID)
}

type stubAppConfigStore struct {
	getFn    func(ctx context.Context) (store.AppConfig, error)
	updateFn func(ctx context.Context, tx store.Execer, cfg store.AppConfig) error
}

func (s stubAppConfigStore) Get(ctx context.Context) (store.AppConfig, error) {
	if s.getFn == nil {
		return store.AppConfig{}, nil
	}
	return s.getFn(ctx)
}

func (s stubAppConfigStore) Update(ctx context.Context, tx store.Execer, cfg store.AppConfig) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, cfg)
}

type stubVerifier struct {
	verifyPayloadFn func(ctx context.Context, payload string) (slipverify.Result, error)
	verifyImageFn   func(ctx context.Context, filename string, image io.Reader) (slipverify.Result, error)
	verifyRawFn     func(ctx context.Context, data []byte) (slipverify.Result, error)
}

func (s stubVerifier) VerifyPayload(ctx context.Context, payload string) (slipverify.Result, error) {
	if s.verifyPayloadFn == nil {
		return slipverify.Result{}, nil
	}
	return s.verifyPayloadFn(ctx, payload)
}

func (s stubVerifier) VerifyImage(ctx context.Context, filename string, image io.Reader) (slipverify.Result, error) {
	if s.verifyImageFn == nil {
		return slipverify.Result{}, nil
	}
	return s.verifyImageFn(ctx, filename, image)
}

func (s stubVerifier) VerifyRaw(ctx context.Context, data []byte) (slipverify.Result, error) {
	if s.verifyRawFn == nil {
		return slipverify.Result{}, nil
	}
	return s.verifyRawFn(ctx, data)
}

type stubTopupService struct {
	confirmSlipFn      func(ctx context.Context, req services.ConfirmSlipRequest) (services.TopupResult, error)
	confirmPromptPayFn func(ctx context.Context, accountID, qrRecordID string, amountMinor int64) (services.TopupResult, error)
	recordInquiryFn    func(ctx context.Context, result slipverify.Result) error
}

func (s stubTopupService) ConfirmSlip(ctx context.Context, req services.ConfirmSlipRequest) (services.TopupResult, error) {
	if s.confirmSlipFn == nil {
		return services.TopupResult{}, nil
	}
	return s.confirmSlipFn(ctx, req)
}

func (s stubTopupService) ConfirmPromptPay(ctx context.Context, accountID, qrRecordID string, amountMinor int64) (services.TopupResult, error) {
	if s.confirmPromptPayFn == nil {
		return services.TopupResult{}, nil
	}
	return s.confirmPromptPayFn(ctx, accountID, qrRecordID, amountMinor)
}

func (s stubTopupService) RecordInquiry(ctx context.Context, result slipverify.Result) error {
	if s.recordInquiryFn == nil {
		return nil
	}
	return s.recordInquiryFn(ctx, result)
}

type stubOrderService struct {
	createFn func(ctx context.Context, req services.CreateOrderRequest) (store.Order, error)
	deleteFn func(ctx context.Context, orderID string) (services.DeleteOrderResult, error)
}

func (s stubOrderService) Create(ctx context.Context, req services.CreateOrderRequest) (store.Order, error) {
	if s.createFn == nil {
		return store.Order{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubOrderService) Delete(ctx context.Context, orderID string) (services.DeleteOrderResult, error) {
	if s.deleteFn == nil {
		return services.DeleteOrderResult{}, nil
	}
	return s.deleteFn(ctx, orderID)
}

type stubSubscriptionService struct {
	purchaseFn func(ctx context.Context, accountID, plan string) (services.PurchaseResult, error)
}

func (s stubSubscriptionService) Purchase(ctx context.Context, accountID, plan string) (services.PurchaseResult, error) {
	if s.purchaseFn == nil {
		return services.PurchaseResult{}, nil
	}
	return s.purchaseFn(ctx, accountID, plan)
}

// testDeps bundles handler dependencies so tests only fill in the stubs
// they care about.
type testDeps struct {
	txRunner      fakeTxRunner
	users         stubUserStore
	accounts      stubAccountStore
	ledger        stubLedgerStore
	topups        stubTopupStore
	transfers     stubTransferStore
	receiving     stubReceivingStore
	orders        stubOrderStore
	subscriptions stubSubscriptionStore
	appConfig     stubAppConfigStore
	verifier      stubVerifier
	topupService  stubTopupService
	orderService  stubOrderService
	subService    stubSubscriptionService
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(deps.txRunner, cfg, deps.users, deps.accounts, deps.ledger, deps.topups, deps.transfers, deps.receiving, deps.orders, deps.subscriptions, deps.appConfig, deps.verifier, deps.topupService, deps.orderService, deps.subService, websocket.NewHub(), logger)
}

func authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serveAuthed(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func serveAuthedAdmin(handler http.HandlerFunc, checker middleware.AdminChecker, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(middleware.RequireAdmin(checker)(handler)).ServeHTTP(rr, req)
	return rr
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
