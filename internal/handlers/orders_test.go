package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"storefront/internal/services"
	"storefront/internal/store"
)

func TestCreateOrderSuccess(t *testing.T) {
	handler := newTestHandler(testDeps{
		orderService: stubOrderService{
			createFn: func(_ context.Context, req services.CreateOrderRequest) (store.Order, error) {
				if req.AccountID == nil || *req.AccountID != "acc-1" {
					t.Fatalf("unexpected account: %v", req.AccountID)
				}
				if len(req.Items) != 2 {
					t.Fatalf("expected 2 items, got %d", len(req.Items))
				}
				return store.Order{ID: "order-1", AccountID: req.AccountID, Total: 7000, Status: store.OrderStatusPending}, nil
			},
		},
	})
	body := []byte(`{"items":[{"product":"widget","quantity":2,"unit_price":1500},{"product":"gadget","quantity":1,"unit_price":4000}]}`)
	req := authedRequest(t, http.MethodPost, "/orders", bytes.NewReader(body))
	rr := serveAuthed(handler.CreateOrder, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateOrderInvalidItems(t *testing.T) {
	handler := newTestHandler(testDeps{
		orderService: stubOrderService{
			createFn: func(context.Context, services.CreateOrderRequest) (store.Order, error) {
				return store.Order{}, services.ErrInvalidAmount
			},
		},
	})
	body := []byte(`{"items":[{"product":"widget","quantity":0,"unit_price":1500}]}`)
	req := authedRequest(t, http.MethodPost, "/orders", bytes.NewReader(body))
	rr := serveAuthed(handler.CreateOrder, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ordersOwnedBy returns an order store whose single order belongs to
// the given account.
func ordersOwnedBy(accountID, orderID string) stubOrderStore {
	return stubOrderStore{
		getByIDFn: func(_ context.Context, id string) (store.Order, error) {
			if id != orderID {
				return store.Order{}, sql.ErrNoRows
			}
			return store.Order{ID: orderID, AccountID: &accountID, Total: 2500, Status: store.OrderStatusPending}, nil
		},
	}
}

func TestDeleteOrderReturnsRefund(t *testing.T) {
	handler := newTestHandler(testDeps{
		orders: ordersOwnedBy("acc-1", "order-1"),
		orderService: stubOrderService{
			deleteFn: func(_ context.Context, orderID string) (services.DeleteOrderResult, error) {
				return services.DeleteOrderResult{OrderID: orderID, RefundedMinor: 2500, NewBalance: 3500}, nil
			},
		},
	})
	req := authedRequest(t, http.MethodDelete, "/orders/order-1", nil)
	req = withURLParam(req, "id", "order-1")
	rr := serveAuthed(handler.DeleteOrder, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Refunded int64  `json:"refunded"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Data.ID != "order-1" || resp.Data.Refunded != 2500 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDeleteOrderNotFound(t *testing.T) {
	handler := newTestHandler(testDeps{
		orders: stubOrderStore{
			getByIDFn: func(context.Context, string) (store.Order, error) {
				return store.Order{}, sql.ErrNoRows
			},
		},
	})
	req := authedRequest(t, http.MethodDelete, "/orders/missing", nil)
	req = withURLParam(req, "id", "missing")
	rr := serveAuthed(handler.DeleteOrder, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteOrderRejectsNonOwner(t *testing.T) {
	// Caller resolves to acc-1 but the order belongs to acc-2 and the
	// caller is not an admin; the refund must never be triggered.
	handler := newTestHandler(testDeps{
		orders: ordersOwnedBy("acc-2", "order-1"),
		orderService: stubOrderService{
			deleteFn: func(context.Context, string) (services.DeleteOrderResult, error) {
				t.Fatalf("delete should not be invoked for a non-owner")
				return services.DeleteOrderResult{}, nil
			},
		},
	})
	req := authedRequest(t, http.MethodDelete, "/orders/order-1", nil)
	req = withURLParam(req, "id", "order-1")
	rr := serveAuthed(handler.DeleteOrder, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteOrderAllowsAdminForOtherAccount(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			isAdminFn: func(context.Context, string) (bool, error) { return true, nil },
		},
		orders: ordersOwnedBy("acc-2", "order-1"),
		orderService: stubOrderService{
			deleteFn: func(_ context.Context, orderID string) (services.DeleteOrderResult, error) {
				return services.DeleteOrderResult{OrderID: orderID, RefundedMinor: 2500, NewBalance: 0}, nil
			},
		},
	})
	req := authedRequest(t, http.MethodDelete, "/orders/order-1", nil)
	req = withURLParam(req, "id", "order-1")
	rr := serveAuthed(handler.DeleteOrder, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetOrderRejectsNonOwner(t *testing.T) {
	handler := newTestHandler(testDeps{
		orders: ordersOwnedBy("acc-2", "order-1"),
	})
	req := authedRequest(t, http.MethodGet, "/orders/order-1", nil)
	req = withURLParam(req, "id", "order-1")
	rr := serveAuthed(handler.GetOrder, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetOrderReturnsOwnOrder(t *testing.T) {
	handler := newTestHandler(testDeps{
		orders: ordersOwnedBy("acc-1", "order-1"),
	})
	req := authedRequest(t, http.MethodGet, "/orders/order-1", nil)
	req = withURLParam(req, "id", "order-1")
	rr := serveAuthed(handler.GetOrder, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
