package handlers

import (
	"log/slog"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/middleware"
	"storefront/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner      db.TxRunner
	cfg           config.Config
	users         UserStore
	accounts      AccountStore
	ledger        LedgerStore
	topups        TopupStore
	transfers     TransferStore
	receiving     ReceivingAccountStore
	orders        OrderStore
	subscriptions SubscriptionStore
	appConfig     AppConfigStore
	verifier      SlipVerifier
	topupService  TopupService
	orderService  OrderService
	subService    SubscriptionService
	hub           *websocket.Hub
	logger        *slog.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, ledger LedgerStore, topups TopupStore, transfers TransferStore, receiving ReceivingAccountStore, orders OrderStore, subscriptions SubscriptionStore, appConfig AppConfigStore, verifier SlipVerifier, topupService TopupService, orderService OrderService, subService SubscriptionService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		txRunner:      txRunner,
		cfg:           cfg,
		users:         users,
		accounts:      accounts,
		ledger:        ledger,
		topups:        topups,
		transfers:     transfers,
		receiving:     receiving,
		orders:        orders,
		subscriptions: subscriptions,
		appConfig:     appConfig,
		verifier:      verifier,
		topupService:  topupService,
		orderService:  orderService,
		subService:    subService,
		hub:           hub,
		logger:        logger,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/account", h.GetAccount)
		r.Get("/account/ledger", h.ListLedger)
		r.Post("/topups/slip/verify", h.VerifySlip)
		r.Post("/topups/slip/confirm", h.ConfirmSlip)
		r.Post("/topups/promptpay/confirm", h.ConfirmPromptPay)
		r.Get("/topups", h.ListTopups)
		r.Get("/config/promptpay", h.GetPromptPayConfig)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Delete("/orders/{id}", h.DeleteOrder)
		r.Post("/subscriptions", h.PurchaseSubscription)
		r.Get("/subscriptions", h.ListSubscriptions)
	})

	router.Get("/ws/balance", h.WSBalance)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.users))
		r.Post("/receiving-accounts", h.CreateReceivingAccount)
		r.Get("/receiving-accounts", h.ListReceivingAccounts)
		r.Delete("/receiving-accounts/{id}", h.DeactivateReceivingAccount)
		r.Get("/transfers", h.ListTransfers)
		r.Get("/topups", h.AdminListTopups)
		r.Put("/config", h.UpdateAppConfig)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
