package handlers

import (
	"encoding/json"
	"net/http"
)

// Every mutation path answers with either a success payload carrying the
// new balance, or a structured error with a stable machine-readable
// code. Raw storage errors never reach a caller.

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondSuccess(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
		"code":   code,
	})
}

const (
	codeInvalidPayload     = "INVALID_PAYLOAD"
	codeInvalidAmount      = "INVALID_AMOUNT"
	codeNotFound           = "NOT_FOUND"
	codeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	codeAccountMismatch    = "ACCOUNT_MISMATCH"
	codeDuplicateTransRef  = "DUPLICATE_TRANS_REF"
	codeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	codeSubscriptionActive = "SUBSCRIPTION_ACTIVE"
	codeUnknownPlan        = "UNKNOWN_PLAN"
	codeUpstreamError      = "UPSTREAM_ERROR"
	codeInternal           = "INTERNAL"
	codeUnauthorized       = "UNAUTHORIZED"
)
