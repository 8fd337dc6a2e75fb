package handlers

import (
	"encoding/json"
	"net/http"

	"storefront/internal/db"
	"storefront/internal/store"
	"storefront/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type createReceivingAccountRequest struct {
	Suffix        string `json:"suffix"`
	AccountNumber string `json:"account_number"`
	ReceiverName  string `json:"receiver_name"`
	DisplayName   string `json:"display_name"`
}

func (h *Handler) CreateReceivingAccount(w http.ResponseWriter, r *http.Request) {
	var req createReceivingAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	if err := validator.ValidateAccountSuffix(req.Suffix); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, err.Error())
		return
	}
	if req.ReceiverName == "" && req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "receiver_name or display_name is required")
		return
	}
	id := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.receiving.Create(r.Context(), tx, store.ReceivingAccountInput{
			ID:            id,
			Suffix:        req.Suffix,
			AccountNumber: req.AccountNumber,
			ReceiverName:  req.ReceiverName,
			DisplayName:   req.DisplayName,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, codeInvalidPayload, "receiving account already exists")
			return
		}
		h.logger.Error("failed to create receiving account", "error", err)
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create receiving account")
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListReceivingAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.receiving.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load receiving accounts")
		return
	}
	respondSuccess(w, http.StatusOK, accounts)
}

func (h *Handler) DeactivateReceivingAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var affected int64
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		var txErr error
		affected, txErr = h.receiving.Deactivate(r.Context(), tx, id)
		return txErr
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to deactivate receiving account")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, codeNotFound, "receiving account not found")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	transfers, err := h.transfers.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load transfers")
		return
	}
	respondSuccess(w, http.StatusOK, transfers)
}

func (h *Handler) AdminListTopups(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	topups, err := h.topups.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load topups")
		return
	}
	respondSuccess(w, http.StatusOK, topups)
}

type updateAppConfigRequest struct {
	PromptPayID  string `json:"promptpay_id"`
	BonusPercent string `json:"bonus_percent"`
}

func (h *Handler) UpdateAppConfig(w http.ResponseWriter, r *http.Request) {
	var req updateAppConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	if req.BonusPercent != "" {
		percent, err := decimal.NewFromString(req.BonusPercent)
		if err != nil || percent.IsNegative() {
			respondError(w, http.StatusBadRequest, codeInvalidPayload, "bonus_percent must be a non-negative decimal")
			return
		}
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.appConfig.Update(r.Context(), tx, store.AppConfig{
			PromptPayID:  req.PromptPayID,
			BonusPercent: req.BonusPercent,
		})
	})
	if err != nil {
		h.logger.Error("failed to update app config", "error", err)
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to update config")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "updated"})
}
