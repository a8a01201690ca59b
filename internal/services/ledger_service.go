package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/repository"
)

// LedgerService covers tenant-scoped ledger and account management.
type LedgerService struct {
	writes repository.LedgerRepository
	reads  repository.LedgerReadRepository
	logger zerolog.Logger
}

func NewLedgerService(writes repository.LedgerRepository, reads repository.LedgerReadRepository, logger zerolog.Logger) *LedgerService {
	return &LedgerService{
		writes: writes,
		reads:  reads,
		logger: logger.With().Str("component", "ledger_service").Logger(),
	}
}

func (s *LedgerService) CreateLedger(ctx context.Context, tenantID, name string) (*models.Ledger, error) {
	if tenantID == "" {
		return nil, apperr.InvariantViolation("tenant id is required")
	}
	if name == "" {
		return nil, apperr.InvariantViolation("ledger name is required")
	}

	ledger, err := s.writes.CreateLedger(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant_id", tenantID).Str("ledger_id", ledger.ID).Msg("ledger created")
	return ledger, nil
}

func (s *LedgerService) GetLedgerByID(ctx context.Context, tenantID, ledgerID string) (*models.Ledger, error) {
	if tenantID == "" {
		return nil, apperr.InvariantViolation("tenant id is required")
	}
	if ledgerID == "" {
		return nil, apperr.InvariantViolation("ledger id is required")
	}
	return s.reads.GetLedgerByID(ctx, tenantID, ledgerID)
}

func (s *LedgerService) GetLedgersByTenant(ctx context.Context, tenantID string) ([]models.Ledger, error) {
	if tenantID == "" {
		return nil, apperr.InvariantViolation("tenant id is required")
	}
	return s.reads.GetLedgersByTenant(ctx, tenantID)
}

// CreateAccount opens a balance-bearing account in a ledger. The
// ledger must exist for the tenant and the currency is fixed for the
// account's lifetime.
func (s *LedgerService) CreateAccount(ctx context.Context, tenantID, ledgerID, name, currency string) (*models.Account, error) {
	if tenantID == "" {
		return nil, apperr.InvariantViolation("tenant id is required")
	}
	if ledgerID == "" {
		return nil, apperr.InvariantViolation("ledger id is required")
	}
	if name == "" {
		return nil, apperr.InvariantViolation("account name is required")
	}
	if len(currency) != 3 {
		return nil, apperr.InvariantViolation("currency must be a 3-letter code")
	}

	account, err := s.writes.CreateAccount(ctx, tenantID, ledgerID, name, currency)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant_id", tenantID).Str("account_id", account.ID).Msg("account created")
	return account, nil
}
