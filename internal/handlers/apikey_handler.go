package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerlink/backend/internal/middleware"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/services"
)

type ApiKeyHandler struct {
	keys      *services.ApiKeyService
	validator *ValidationHelper
}

func NewApiKeyHandler(keys *services.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{keys: keys, validator: NewValidationHelper()}
}

type createApiKeyRequest struct {
	Name string `json:"name" validate:"required"`
	Role string `json:"role" validate:"required,oneof=ADMIN SERVICE"`
}

type createdApiKeyResponse struct {
	ApiKey string         `json:"api_key"`
	Key    apiKeyResponse `json:"key"`
}

func (h *ApiKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req createApiKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidInput(w, "invalid request body")
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		writeInvalidInput(w, "name and a valid role are required")
		return
	}

	created, err := h.keys.CreateApiKey(r.Context(), auth, models.CreateApiKeyInput{
		TenantID: auth.TenantID,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdApiKeyResponse{
		ApiKey: created.ApiKey,
		Key:    toApiKeyResponse(created.Key),
	})
}

func (h *ApiKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	keys, err := h.keys.ListApiKeys(r.Context(), auth)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toApiKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ApiKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFrom(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	apiKeyID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(apiKeyID); err != nil {
		writeInvalidInput(w, "api key id must be a UUID")
		return
	}

	if err := h.keys.RevokeApiKey(r.Context(), auth, apiKeyID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
