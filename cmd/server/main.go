package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handlers"
	"storefront/internal/services"
	"storefront/internal/slipverify"
	"storefront/internal/store"
	"storefront/internal/websocket"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	accounts := store.NewAccountStore(database)
	ledger := store.NewLedgerStore(database)
	transfers := store.NewTransferStore(database)
	receiving := store.NewReceivingAccountStore(database)
	topups := store.NewTopupStore(database)
	subscriptions := store.NewSubscriptionStore(database)
	orders := store.NewOrderStore(database)
	appConfig := store.NewAppConfigStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	executor := services.NewExecutor(accounts, ledger)
	matcher := services.NewAccountMatcher(receiving)
	topupService := services.NewTopupService(txRunner, executor, transfers, topups, appConfig, matcher, hub, logger)
	orderService := services.NewOrderService(txRunner, executor, orders, hub, logger)
	subService := services.NewSubscriptionService(txRunner, executor, accounts, subscriptions, hub, logger)
	verifier := slipverify.New(cfg.SlipVerifyURL, cfg.SlipVerifyKey, cfg.SlipVerifyTimeout)

	handler := handlers.New(txRunner, cfg, users, accounts, ledger, topups, transfers, receiving, orders, subscriptions, appConfig, verifier, topupService, orderService, subService, hub, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		if err := subService.ExpireDue(context.Background()); err != nil {
			logger.Error("subscription expiry sweep failed", "error", err)
		}
	}); err != nil {
		logger.Error("failed to schedule expiry sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
