package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/money"
	"storefront/internal/websocket"
)

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByUser(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load account")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"account_id":        account.ID,
		"balance":           account.Balance,
		"balance_formatted": money.FormatMinor(account.Balance),
	})
}

func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	account, err := h.accounts.GetByUser(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load account")
		return
	}
	limit, offset := pagination(r)
	entries, err := h.ledger.ListByAccount(r.Context(), account.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load ledger")
		return
	}
	respondSuccess(w, http.StatusOK, entries)
}

// WSBalance accepts the token as a query parameter because browser
// websocket clients cannot set an Authorization header.
func (h *Handler) WSBalance(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
