package store

import (
	"context"
	"time"
)

type OrderStore struct {
	db DB
}

// Order is a purchase with a monetary total. AccountID is nil for
// anonymous purchases; those are deleted without a refund.
type Order struct {
	ID        string    `db:"id"`
	AccountID *string   `db:"account_id"`
	Total     int64     `db:"total"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type OrderItem struct {
	ID        string `db:"id"`
	OrderID   string `db:"order_id"`
	Product   string `db:"product"`
	Quantity  int    `db:"quantity"`
	UnitPrice int64  `db:"unit_price"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

type OrderInput struct {
	ID        string
	AccountID *string
	Total     int64
	Status    string
}

type OrderItemInput struct {
	ID        string
	OrderID   string
	Product   string
	Quantity  int
	UnitPrice int64
}

func NewOrderStore(db DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, tx Execer, input OrderInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, total, status)
		VALUES ($1, $2, $3, $4)
	`, input.ID, input.AccountID, input.Total, input.Status)
	return err
}

func (s *OrderStore) CreateItem(ctx context.Context, tx Execer, input OrderItemInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, product, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`, input.ID, input.OrderID, input.Product, input.Quantity, input.UnitPrice)
	return err
}

func (s *OrderStore) GetByID(ctx context.Context, orderID string) (Order, error) {
	var row Order
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, total, status, created_at
		FROM orders
		WHERE id = $1
	`, orderID)
	if err != nil {
		return Order{}, err
	}
	return row, nil
}

// GetForUpdate locks the order row so the refund credit and the delete
// commit or roll back as one unit.
func (s *OrderStore) GetForUpdate(ctx context.Context, tx Getter, orderID string) (Order, error) {
	var row Order
	err := tx.GetContext(ctx, &row, `
		SELECT id, account_id, total, status, created_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	if err != nil {
		return Order{}, err
	}
	return row, nil
}

func (s *OrderStore) ListItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	var rows []OrderItem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, order_id, product, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *OrderStore) DeleteItems(ctx context.Context, tx Execer, orderID string) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM order_items
		WHERE order_id = $1
	`, orderID)
	return err
}

func (s *OrderStore) Delete(ctx context.Context, tx Execer, orderID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM orders
		WHERE id = $1
	`, orderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
