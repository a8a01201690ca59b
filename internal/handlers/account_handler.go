package handlers

import (
	"net/http"

	"github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/services"
)

type AccountHandler struct {
	ledgers   *services.LedgerService
	validator *ValidationHelper
}

func NewAccountHandler(ledgers *services.LedgerService) *AccountHandler {
	return &AccountHandler{ledgers: ledgers, validator: NewValidationHelper()}
}

type createAccountRequest struct {
	LedgerID string `json:"ledger_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidInput(w, "invalid request body")
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		writeInvalidInput(w, "invalid account request")
		return
	}

	account, err := h.ledgers.CreateAccount(r.Context(), auth.TenantID, req.LedgerID, req.Name, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(*account))
}
