package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/repository"
)

// Raw keys are "llk_" followed by 64 hex characters (32 random bytes).
// Only the SHA-256 hex digest is ever stored.
const keyPrefix = "llk_"

// ApiKeyService issues, authenticates and revokes API keys, and
// provisions the initial admin credential on an empty database.
type ApiKeyService struct {
	repo   repository.ApiKeyRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewApiKeyService(repo repository.ApiKeyRepository, logger zerolog.Logger) *ApiKeyService {
	return &ApiKeyService{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("component", "apikey_service").Logger(),
	}
}

func generateRawKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return keyPrefix + hex.EncodeToString(buf), nil
}

// HashKey is the stored form of a raw key.
func HashKey(rawKey string) string {
	digest := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(digest[:])
}

// Authenticate resolves a raw key to the identity it represents.
// Unknown and revoked keys are indistinguishable to the caller.
func (s *ApiKeyService) Authenticate(ctx context.Context, rawKey string) (*models.AuthContext, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, apperr.Unauthorized("API key is required")
	}

	key, err := s.repo.GetApiKeyByHash(ctx, HashKey(rawKey))
	if err != nil {
		return nil, err
	}
	if key == nil || key.RevokedAt != nil {
		return nil, apperr.Unauthorized("Invalid API key")
	}

	return &models.AuthContext{ApiKeyID: key.ID, TenantID: key.TenantID, Role: key.Role}, nil
}

// CreateApiKey issues a key for the actor's own tenant. The raw value
// is returned exactly once and never persisted.
func (s *ApiKeyService) CreateApiKey(ctx context.Context, actor models.AuthContext, input models.CreateApiKeyInput) (*models.CreatedApiKey, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin role is required to manage API keys")
	}
	if input.TenantID != actor.TenantID {
		return nil, apperr.Forbidden("cannot issue API keys for another tenant")
	}
	if input.Name == "" {
		return nil, apperr.InvariantViolation("API key name is required")
	}
	if !models.ValidRole(input.Role) {
		return nil, apperr.InvariantViolation("role must be ADMIN or SERVICE")
	}

	rawKey, err := generateRawKey()
	if err != nil {
		return nil, apperr.RepositoryError("key generation failed", err)
	}

	key := models.ApiKey{
		ID:        uuid.NewString(),
		TenantID:  input.TenantID,
		Name:      input.Name,
		Role:      input.Role,
		KeyHash:   HashKey(rawKey),
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertApiKey(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info().Str("tenant_id", key.TenantID).Str("api_key_id", key.ID).Str("role", key.Role).Msg("api key created")
	return &models.CreatedApiKey{ApiKey: rawKey, Key: key}, nil
}

func (s *ApiKeyService) ListApiKeys(ctx context.Context, actor models.AuthContext) ([]models.ApiKey, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin role is required to manage API keys")
	}
	return s.repo.ListApiKeys(ctx, actor.TenantID)
}

// RevokeApiKey marks a tenant-owned active key revoked. Missing,
// foreign and already-revoked keys all report the same way.
func (s *ApiKeyService) RevokeApiKey(ctx context.Context, actor models.AuthContext, apiKeyID string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role is required to manage API keys")
	}
	if apiKeyID == "" {
		return apperr.InvariantViolation("API key id is required")
	}

	revoked, err := s.repo.RevokeApiKey(ctx, actor.TenantID, apiKeyID, s.now())
	if err != nil {
		return err
	}
	if !revoked {
		return apperr.InvariantViolation("API key not found")
	}

	s.logger.Info().Str("tenant_id", actor.TenantID).Str("api_key_id", apiKeyID).Msg("api key revoked")
	return nil
}

// BootstrapInitialAdmin creates a tenant and one ADMIN key from the
// operator-supplied raw value when no key exists yet. Any existing key
// makes it a no-op, so running it on every startup is safe.
func (s *ApiKeyService) BootstrapInitialAdmin(ctx context.Context, input models.BootstrapInput) (*models.BootstrapResult, error) {
	if input.TenantName == "" || input.KeyName == "" || input.RawApiKey == "" {
		return nil, apperr.InvariantViolation("tenant name, key name and API key are required for bootstrap")
	}

	key := models.ApiKey{
		ID:        uuid.NewString(),
		Name:      input.KeyName,
		Role:      models.RoleAdmin,
		KeyHash:   HashKey(input.RawApiKey),
		CreatedAt: s.now(),
	}
	return s.repo.Bootstrap(ctx, input.TenantName, key)
}
