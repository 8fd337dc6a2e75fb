package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/db"
	"storefront/internal/money"
	"storefront/internal/store"
	"storefront/internal/websocket"
)

type OrderStore interface {
	Create(ctx context.Context, tx store.Execer, input store.OrderInput) error
	CreateItem(ctx context.Context, tx store.Execer, input store.OrderItemInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, orderID string) (store.Order, error)
	DeleteItems(ctx context.Context, tx store.Execer, orderID string) error
	Delete(ctx context.Context, tx store.Execer, orderID string) (int64, error)
}

// OrderService owns order creation and the refund-on-delete path.
type OrderService struct {
	txRunner db.TxRunner
	executor *Executor
	orders   OrderStore
	hub      BalanceHub
	logger   *slog.Logger
}

func NewOrderService(txRunner db.TxRunner, executor *Executor, orders OrderStore, hub BalanceHub, logger *slog.Logger) *OrderService {
	return &OrderService{
		txRunner: txRunner,
		executor: executor,
		orders:   orders,
		hub:      hub,
		logger:   logger,
	}
}

type OrderItemRequest struct {
	Product    string
	Quantity   int
	PriceMinor int64
}

type CreateOrderRequest struct {
	AccountID *string
	Items     []OrderItemRequest
}

func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (store.Order, error) {
	if len(req.Items) == 0 {
		return store.Order{}, ErrInvalidAmount
	}
	var total int64
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.PriceMinor < 0 {
			return store.Order{}, ErrInvalidAmount
		}
		total += int64(item.Quantity) * item.PriceMinor
	}
	orderID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.Create(ctx, tx, store.OrderInput{
			ID:        orderID,
			AccountID: req.AccountID,
			Total:     total,
			Status:    store.OrderStatusPending,
		}); err != nil {
			return err
		}
		for _, item := range req.Items {
			if err := s.orders.CreateItem(ctx, tx, store.OrderItemInput{
				ID:        uuid.NewString(),
				OrderID:   orderID,
				Product:   item.Product,
				Quantity:  item.Quantity,
				UnitPrice: item.PriceMinor,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.Order{}, err
	}
	return store.Order{
		ID:        orderID,
		AccountID: req.AccountID,
		Total:     total,
		Status:    store.OrderStatusPending,
	}, nil
}

type DeleteOrderResult struct {
	OrderID       string
	RefundedMinor int64
	NewBalance    int64
}

// Delete removes an order and its line items, crediting the associated
// account with the order total first. All three steps share one
// transaction: an order is never gone while its refund is only partially
// applied, and a failed delete rolls the refund back.
func (s *OrderService) Delete(ctx context.Context, orderID string) (DeleteOrderResult, error) {
	var refunded int64
	var account store.Account
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		if order.AccountID != nil && order.Total > 0 {
			account, err = s.executor.CreditTx(ctx, tx, *order.AccountID, order.Total, "order-refund", order.ID)
			if err != nil {
				return err
			}
			refunded = order.Total
		}
		if err := s.orders.DeleteItems(ctx, tx, orderID); err != nil {
			return err
		}
		deleted, err := s.orders.Delete(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return errors.New("order vanished during delete")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DeleteOrderResult{}, err
		}
		s.logger.Error("order delete failed", "order_id", orderID, "error", err)
		return DeleteOrderResult{}, err
	}
	if refunded > 0 {
		s.hub.BroadcastBalance(account.UserID, websocket.BalanceUpdate{
			AccountID: account.ID,
			Balance:   money.FormatMinor(account.Balance),
			Reason:    "order-refund",
		})
	}
	return DeleteOrderResult{
		OrderID:       orderID,
		RefundedMinor: refunded,
		NewBalance:    account.Balance,
	}, nil
}
