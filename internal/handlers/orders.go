package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/services"
	"storefront/internal/store"

	"github.com/go-chi/chi/v5"
)

type orderItemRequest struct {
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	items := make([]services.OrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemRequest{
			Product:    item.Product,
			Quantity:   item.Quantity,
			PriceMinor: item.UnitPrice,
		})
	}
	accountID := account.ID
	order, err := h.orderService.Create(r.Context(), services.CreateOrderRequest{
		AccountID: &accountID,
		Items:     items,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, codeInvalidAmount, "order items must have positive quantity and price")
			return
		}
		h.logger.Error("failed to create order", "error", err)
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create order")
		return
	}
	respondSuccess(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	order, ok := h.requireOrderAccess(w, r, orderID)
	if !ok {
		return
	}
	items, err := h.orders.ListItems(r.Context(), orderID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load order items")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"order": order,
		"items": items,
	})
}

// DeleteOrder cancels an order. When the order was paid from an account
// the paid total is credited back in the same transaction that removes
// the order, so a failed delete never leaves a refund behind. Only the
// paying account's owner or an admin may trigger the refund.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if _, ok := h.requireOrderAccess(w, r, orderID); !ok {
		return
	}
	result, err := h.orderService.Delete(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "order not found")
			return
		}
		h.logger.Error("failed to delete order", "order_id", orderID, "error", err)
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to delete order")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"message":  "order deleted",
		"id":       result.OrderID,
		"refunded": result.RefundedMinor,
	})
}

// requireOrderAccess loads the order and checks the caller may act on
// it: the paying account's owner, or an admin. Everyone else sees 404
// so order ids cannot be probed. Anonymous orders are admin-only.
func (h *Handler) requireOrderAccess(w http.ResponseWriter, r *http.Request, orderID string) (store.Order, bool) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return store.Order{}, false
	}
	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, codeNotFound, "order not found")
			return store.Order{}, false
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load order")
		return store.Order{}, false
	}
	if order.AccountID != nil && *order.AccountID == account.ID {
		return order, true
	}
	isAdmin, err := h.users.IsAdmin(r.Context(), account.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load order")
		return store.Order{}, false
	}
	if !isAdmin {
		respondError(w, http.StatusNotFound, codeNotFound, "order not found")
		return store.Order{}, false
	}
	return order, true
}
