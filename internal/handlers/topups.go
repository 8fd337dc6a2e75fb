package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/slipverify"
)

type verifySlipRequest struct {
	Payload string `json:"payload"`
}

// VerifySlip runs a slip through the verification provider without
// touching any balance. The provider's answer is persisted as a pending
// transfer so a later confirm can claim it.
func (h *Handler) VerifySlip(w http.ResponseWriter, r *http.Request) {
	var result slipverify.Result
	var err error
	contentType := r.Header.Get("Content-Type")
	switch {
	case contentType == "application/json":
		var req verifySlipRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || req.Payload == "" {
			respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
			return
		}
		result, err = h.verifier.VerifyPayload(r.Context(), req.Payload)
	default:
		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			respondError(w, http.StatusBadRequest, codeInvalidPayload, "missing slip file")
			return
		}
		defer file.Close()
		result, err = h.verifier.VerifyImage(r.Context(), header.Filename, file)
	}
	if err != nil {
		h.respondVerifyError(w, err)
		return
	}
	if err := h.topupService.RecordInquiry(r.Context(), result); err != nil {
		h.logger.Error("failed to record slip inquiry", "trans_ref", result.TransRef, "error", err)
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"valid":            result.Valid,
		"trans_ref":        result.TransRef,
		"amount":           result.AmountMinor,
		"sender_name":      result.SenderDisplay,
		"receiver_name":    result.ReceiverDisplay,
		"receiver_account": result.ReceiverSuffix,
		"transfer_date":    result.TransferDate,
		"transfer_time":    result.TransferTime,
	})
}

func (h *Handler) respondVerifyError(w http.ResponseWriter, err error) {
	var provErr *slipverify.ProviderError
	if errors.As(err, &provErr) {
		if provErr.ClientSide() {
			respondError(w, http.StatusBadRequest, codeInvalidPayload, provErr.Message)
			return
		}
		respondError(w, http.StatusBadGateway, codeUpstreamError, provErr.Message)
		return
	}
	if errors.Is(err, slipverify.ErrMalformedResponse) {
		respondError(w, http.StatusBadGateway, codeUpstreamError, "verification provider unavailable")
		return
	}
	h.logger.Error("slip verification failed", "error", err)
	respondError(w, http.StatusBadGateway, codeUpstreamError, "verification failed")
}

type confirmSlipRequest struct {
	ReceiverAccount string          `json:"receiver_account"`
	ReceiverName    string          `json:"receiver_name"`
	Amount          int64           `json:"amount"`
	TransRef        string          `json:"trans_ref"`
	SlipPayload     json.RawMessage `json:"slip_payload"`
}

func (h *Handler) ConfirmSlip(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	var req confirmSlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	result, err := h.topupService.ConfirmSlip(r.Context(), services.ConfirmSlipRequest{
		AccountID:       account.ID,
		ReceiverAccount: req.ReceiverAccount,
		ReceiverName:    req.ReceiverName,
		AmountMinor:     req.Amount,
		TransRef:        req.TransRef,
		SlipPayload:     req.SlipPayload,
	})
	if err != nil {
		h.respondTopupError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"amount_added": result.AmountAdded,
		"new_balance":  result.NewBalance,
		"trans_ref":    result.TransRef,
	})
}

type confirmPromptPayRequest struct {
	QRRecordID string `json:"qr_record_id"`
	Amount     int64  `json:"amount"`
}

func (h *Handler) ConfirmPromptPay(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	var req confirmPromptPayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "invalid payload")
		return
	}
	result, err := h.topupService.ConfirmPromptPay(r.Context(), account.ID, req.QRRecordID, req.Amount)
	if err != nil {
		h.respondTopupError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"amount_added": result.AmountAdded,
		"new_balance":  result.NewBalance,
		"trans_ref":    result.TransRef,
	})
}

func (h *Handler) respondTopupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateTransaction):
		respondError(w, http.StatusConflict, codeDuplicateTransRef, "transfer already used")
	case errors.Is(err, services.ErrAccountMismatch):
		respondError(w, http.StatusBadRequest, codeAccountMismatch, "transfer does not match any receiving account")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, codeInvalidAmount, "amount must be positive")
	case errors.Is(err, services.ErrMissingReference):
		respondError(w, http.StatusBadRequest, codeInvalidPayload, "missing transaction reference")
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, "topup failed")
	}
}

func (h *Handler) ListTopups(w http.ResponseWriter, r *http.Request) {
	account, ok := h.requireAccount(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	topups, err := h.topups.ListByAccount(r.Context(), account.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load topups")
		return
	}
	respondSuccess(w, http.StatusOK, topups)
}

func (h *Handler) GetPromptPayConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.appConfig.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load config")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{
		"promptpay_id":  cfg.PromptPayID,
		"bonus_percent": cfg.BonusPercent,
	})
}

// requireAccount resolves the authenticated user's account or writes the
// appropriate error response.
func (h *Handler) requireAccount(w http.ResponseWriter, r *http.Request) (account accountView, ok bool) {
	userID, found := middleware.UserIDFromContext(r.Context())
	if !found {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return accountView{}, false
	}
	acct, err := h.accounts.GetByUser(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, codeAccountNotFound, "account not found")
			return accountView{}, false
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load account")
		return accountView{}, false
	}
	return accountView{ID: acct.ID, UserID: acct.UserID, Balance: acct.Balance}, true
}

type accountView struct {
	ID      string
	UserID  string
	Balance int64
}
