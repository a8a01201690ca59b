package handlers

import (
	"net/http"
	"strconv"

	"github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/services"
)

// ReadHandler serves the three cursor listings.
type ReadHandler struct {
	reads *services.ReadService
}

func NewReadHandler(reads *services.ReadService) *ReadHandler {
	return &ReadHandler{reads: reads}
}

// parseListQuery reads limit and cursor from the query string. The
// limit defaults to 50 and must parse as an integer; a cursor param
// that is present but empty is rejected.
func parseListQuery(r *http.Request, tenantID string) (models.ListQuery, string, bool) {
	q := models.ListQuery{TenantID: tenantID, Limit: services.ListLimitDefault}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, "limit must be an integer", false
		}
		q.Limit = limit
	}

	if values, ok := r.URL.Query()["cursor"]; ok {
		if len(values) == 0 || values[0] == "" {
			return q, "cursor must not be empty", false
		}
		q.Cursor = values[0]
	}

	return q, "", true
}

func (h *ReadHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	q, msg, ok := parseListQuery(r, auth.TenantID)
	if !ok {
		writeInvalidInput(w, msg)
		return
	}

	page, err := h.reads.ListAccounts(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toAccountResponse))
}

func (h *ReadHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	q, msg, ok := parseListQuery(r, auth.TenantID)
	if !ok {
		writeInvalidInput(w, msg)
		return
	}

	page, err := h.reads.ListTransactions(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toTransactionResponse))
}

func (h *ReadHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	q, msg, ok := parseListQuery(r, auth.TenantID)
	if !ok {
		writeInvalidInput(w, msg)
		return
	}

	page, err := h.reads.ListEntries(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toEntryResponse))
}
