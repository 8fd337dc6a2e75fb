package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"storefront/internal/services"
	"storefront/internal/store"
)

func TestPurchaseSubscriptionSuccess(t *testing.T) {
	handler := newTestHandler(testDeps{
		subService: stubSubscriptionService{
			purchaseFn: func(_ context.Context, accountID, plan string) (services.PurchaseResult, error) {
				if accountID != "acc-1" || plan != "monthly" {
					t.Fatalf("unexpected args: %s %s", accountID, plan)
				}
				return services.PurchaseResult{
					Subscription:     store.Subscription{ID: "sub-1", Plan: "monthly", Price: 5900},
					AmountDeducted:   5900,
					RemainingBalance: 4100,
				}, nil
			},
		},
	})
	body := []byte(`{"plan":"monthly"}`)
	req := authedRequest(t, http.MethodPost, "/subscriptions", bytes.NewReader(body))
	rr := serveAuthed(handler.PurchaseSubscription, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			AmountDeducted   int64 `json:"amount_deducted"`
			RemainingBalance int64 `json:"remaining_balance"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Data.AmountDeducted != 5900 || resp.Data.RemainingBalance != 4100 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPurchaseSubscriptionAlreadyActive(t *testing.T) {
	handler := newTestHandler(testDeps{
		subService: stubSubscriptionService{
			purchaseFn: func(context.Context, string, string) (services.PurchaseResult, error) {
				return services.PurchaseResult{}, services.ErrSubscriptionActive
			},
		},
	})
	body := []byte(`{"plan":"monthly"}`)
	req := authedRequest(t, http.MethodPost, "/subscriptions", bytes.NewReader(body))
	rr := serveAuthed(handler.PurchaseSubscription, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Code != "SUBSCRIPTION_ACTIVE" {
		t.Fatalf("unexpected error code: %s", resp.Code)
	}
}

func TestPurchaseSubscriptionInsufficientFunds(t *testing.T) {
	handler := newTestHandler(testDeps{
		subService: stubSubscriptionService{
			purchaseFn: func(context.Context, string, string) (services.PurchaseResult, error) {
				return services.PurchaseResult{}, services.ErrInsufficientFunds
			},
		},
	})
	body := []byte(`{"plan":"yearly"}`)
	req := authedRequest(t, http.MethodPost, "/subscriptions", bytes.NewReader(body))
	rr := serveAuthed(handler.PurchaseSubscription, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("unexpected error code: %s", resp.Code)
	}
}

func TestPurchaseSubscriptionUnknownPlan(t *testing.T) {
	handler := newTestHandler(testDeps{
		subService: stubSubscriptionService{
			purchaseFn: func(context.Context, string, string) (services.PurchaseResult, error) {
				return services.PurchaseResult{}, services.ErrUnknownPlan
			},
		},
	})
	body := []byte(`{"plan":"weekly"}`)
	req := authedRequest(t, http.MethodPost, "/subscriptions", bytes.NewReader(body))
	rr := serveAuthed(handler.PurchaseSubscription, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
