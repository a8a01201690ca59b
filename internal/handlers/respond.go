package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerlink/backend/internal/apperr"
)

// ErrorBody is the error response shape on every non-2xx status.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationHelper wraps a shared validator instance for request DTOs.
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{validator: validator.New()}
}

func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeInvalidInput reports a schema-validation failure at the edge.
func writeInvalidInput(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "INVALID_INPUT", Message: message})
}

// writeError maps domain errors to status codes. Repository causes are
// never leaked.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "INTERNAL_ERROR", Message: "Internal server error"})
		return
	}

	switch domainErr.Code {
	case apperr.CodeInvariantViolation:
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: string(domainErr.Code), Message: domainErr.Message})
	case apperr.CodeUnauthorized:
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: string(domainErr.Code), Message: domainErr.Message})
	case apperr.CodeForbidden:
		writeJSON(w, http.StatusForbidden, ErrorBody{Error: string(domainErr.Code), Message: domainErr.Message})
	case apperr.CodeLedgerNotFound:
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: string(domainErr.Code), Message: domainErr.Message})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: string(apperr.CodeRepositoryError), Message: "Internal server error"})
	}
}

// errUnauthenticated covers handlers reached without the auth
// middleware having run; it should not happen on mounted routes.
func errUnauthenticated() error {
	return apperr.Unauthorized("API key is required")
}

// decodeJSON decodes a request body strictly: unknown fields and
// trailing content are rejected, bodies are capped at 1 MB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
