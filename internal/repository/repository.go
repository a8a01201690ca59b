package repository

import (
	"context"
	"time"

	"github.com/ledgerlink/backend/internal/models"
)

// LedgerRepository is the write side of the ledger: ledger and account
// creation plus the atomic posting path.
type LedgerRepository interface {
	CreateLedger(ctx context.Context, tenantID, name string) (*models.Ledger, error)
	CreateAccount(ctx context.Context, tenantID, ledgerID, name, currency string) (*models.Account, error)
	PostTransaction(ctx context.Context, input models.PostTransactionInput) (*models.PostTransactionResult, error)
}

// LedgerReadRepository serves lookups, cursor listings and the
// trial-balance account scan.
type LedgerReadRepository interface {
	GetLedgerByID(ctx context.Context, tenantID, ledgerID string) (*models.Ledger, error)
	GetLedgersByTenant(ctx context.Context, tenantID string) ([]models.Ledger, error)
	ListAccounts(ctx context.Context, q models.ListQuery) (*models.Page[models.Account], error)
	ListTransactions(ctx context.Context, q models.ListQuery) (*models.Page[models.Transaction], error)
	ListEntries(ctx context.Context, q models.ListQuery) (*models.Page[models.Entry], error)
	GetLedgerAccounts(ctx context.Context, tenantID, ledgerID string) ([]models.Account, error)
}

// ApiKeyRepository persists credentials and the bootstrap tenant.
type ApiKeyRepository interface {
	InsertApiKey(ctx context.Context, key models.ApiKey) error
	GetApiKeyByHash(ctx context.Context, keyHash string) (*models.ApiKey, error)
	ListApiKeys(ctx context.Context, tenantID string) ([]models.ApiKey, error)
	RevokeApiKey(ctx context.Context, tenantID, apiKeyID string, revokedAt time.Time) (bool, error)
	Bootstrap(ctx context.Context, tenantName string, key models.ApiKey) (*models.BootstrapResult, error)
}
