package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/services"
)

type purchaseSubscriptionRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) PurchaseSubscription(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	var req purchaseSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	result, err := h.subService.Purchase(r.Context(), account.ID, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownPlan):
			respondError(w, http.StatusBadRequest, codeUnknownPlan, "unknown subscription plan")
		case errors.Is(err, services.ErrSubscriptionActive):
			respondError(w, http.StatusConflict, codeSubscriptionActive, "account already has an active subscription")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusBadRequest, codeInsufficientFunds, "insufficient balance")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
		default:
			h.logger.Error("subscription purchase failed", "account_id", account.ID, "error", err)
			respondError(w, http.StatusInternalServerError, codeInternal, "purchase failed")
		}
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]any{
		"subscription":      result.Subscription,
		"amount_deducted":   result.AmountDeducted,
		"remaining_balance": result.RemainingBalance,
	})
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	subs, err := h.subscriptions.ListByAccount(r.Context(), account.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load subscriptions")
		return
	}
	respondSuccess(w, http.StatusOK, subs)
}
