package handlers

import (
	"net/http"
	"strconv"

	"github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/services"
)

type PostingHandler struct {
	postings  *services.PostingService
	validator *ValidationHelper
}

func NewPostingHandler(postings *services.PostingService) *PostingHandler {
	return &PostingHandler{postings: postings, validator: NewValidationHelper()}
}

// Amounts arrive as decimal strings for the same reason they leave as
// decimal strings.
type postEntryRequest struct {
	AccountID   string `json:"account_id" validate:"required,uuid"`
	Direction   string `json:"direction" validate:"required,oneof=DEBIT CREDIT"`
	AmountMinor string `json:"amount_minor" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
}

type postTransactionRequest struct {
	LedgerID  string             `json:"ledger_id" validate:"required,uuid"`
	Reference string             `json:"reference" validate:"required"`
	Currency  string             `json:"currency" validate:"required,len=3"`
	Entries   []postEntryRequest `json:"entries" validate:"required,min=2,dive"`
}

type postTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Created       bool   `json:"created"`
}

func (h *PostingHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req postTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidInput(w, "invalid request body")
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		writeInvalidInput(w, "invalid posting request")
		return
	}

	input := models.PostTransactionInput{
		TenantID:  auth.TenantID,
		LedgerID:  req.LedgerID,
		Reference: req.Reference,
		Currency:  req.Currency,
		Entries:   make([]models.NewEntry, 0, len(req.Entries)),
	}
	for _, e := range req.Entries {
		amount, err := strconv.ParseInt(e.AmountMinor, 10, 64)
		if err != nil {
			writeInvalidInput(w, "amount_minor must be a decimal integer string")
			return
		}
		input.Entries = append(input.Entries, models.NewEntry{
			AccountID:   e.AccountID,
			Direction:   e.Direction,
			AmountMinor: amount,
			Currency:    e.Currency,
		})
	}

	result, err := h.postings.PostTransaction(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, postTransactionResponse{TransactionID: result.TransactionID, Created: result.Created})
}
