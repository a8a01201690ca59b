package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/services"
)

type LedgerHandler struct {
	ledgers   *services.LedgerService
	reads     *services.ReadService
	validator *ValidationHelper
}

func NewLedgerHandler(ledgers *services.LedgerService, reads *services.ReadService) *LedgerHandler {
	return &LedgerHandler{ledgers: ledgers, reads: reads, validator: NewValidationHelper()}
}

type createLedgerRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *LedgerHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req createLedgerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidInput(w, "invalid request body")
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		writeInvalidInput(w, "name is required")
		return
	}

	ledger, err := h.ledgers.CreateLedger(r.Context(), auth.TenantID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerResponse(*ledger))
}

func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	ledgers, err := h.ledgers.GetLedgersByTenant(r.Context(), auth.TenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ledgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toLedgerResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	ledgerID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(ledgerID); err != nil {
		writeInvalidInput(w, "ledger id must be a UUID")
		return
	}

	ledger, err := h.ledgers.GetLedgerByID(r.Context(), auth.TenantID, ledgerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerResponse(*ledger))
}

func (h *LedgerHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	ledgerID := chi.URLParam(r, "ledger_id")
	if _, err := uuid.Parse(ledgerID); err != nil {
		writeInvalidInput(w, "ledger id must be a UUID")
		return
	}

	tb, err := h.reads.TrialBalance(r.Context(), auth.TenantID, ledgerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrialBalanceResponse(tb))
}
