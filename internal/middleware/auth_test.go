package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
)

type fakeAuthenticator struct {
	validKey string
	auth     models.AuthContext
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, rawKey string) (*models.AuthContext, error) {
	if rawKey == f.validKey {
		auth := f.auth
		return &auth, nil
	}
	return nil, apperr.Unauthorized("Invalid API key")
}

func authedHandler(t *testing.T, want models.AuthContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := AuthFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, want, auth)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	keys := &fakeAuthenticator{
		validKey: "llk_valid",
		auth:     models.AuthContext{ApiKeyID: "key-1", TenantID: "tenant-1", Role: models.RoleService},
	}

	t.Run("accepts X-Api-Key", func(t *testing.T) {
		handler := Auth(keys)(authedHandler(t, keys.auth))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("X-Api-Key", "llk_valid")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("falls back to bearer token", func(t *testing.T) {
		handler := Auth(keys)(authedHandler(t, keys.auth))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer llk_valid")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("X-Api-Key wins over Authorization", func(t *testing.T) {
		handler := Auth(keys)(authedHandler(t, keys.auth))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("X-Api-Key", "llk_valid")
		req.Header.Set("Authorization", "Bearer llk_other")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing credential is 401", func(t *testing.T) {
		handler := Auth(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"UNAUTHORIZED","message":"API key is required"}`, rec.Body.String())
	})

	t.Run("invalid credential is 401", func(t *testing.T) {
		handler := Auth(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("X-Api-Key", "llk_wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"UNAUTHORIZED","message":"Invalid API key"}`, rec.Body.String())
	})

	t.Run("malformed Authorization scheme is 401", func(t *testing.T) {
		handler := Auth(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("Authorization", "Basic llk_valid")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/api-keys", nil)
		req = req.WithContext(WithAuth(req.Context(), models.AuthContext{TenantID: "tenant-1", Role: models.RoleAdmin}))
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("service role is 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/api-keys", nil)
		req = req.WithContext(WithAuth(req.Context(), models.AuthContext{TenantID: "tenant-1", Role: models.RoleService}))
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"FORBIDDEN","message":"admin role is required"}`, rec.Body.String())
	})

	t.Run("no auth context is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/api-keys", nil)
		rec := httptest.NewRecorder()
		RequireAdmin(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("echoes the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", "req-42")
		rec := httptest.NewRecorder()
		RequestID(echo).ServeHTTP(rec, req)

		assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	})

	t.Run("mints a uuid when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		RequestID(echo).ServeHTTP(rec, req)

		id := rec.Header().Get("X-Request-Id")
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	})
}
