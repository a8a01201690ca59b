package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/repository"
)

const (
	// ListLimitDefault applies when the caller supplies no limit.
	ListLimitDefault = 50
	// ListLimitMax bounds a single page.
	ListLimitMax = 200
)

// ReadService validates list queries and the trial-balance request,
// delegating the data access to the read repository.
type ReadService struct {
	repo   repository.LedgerReadRepository
	logger zerolog.Logger
}

func NewReadService(repo repository.LedgerReadRepository, logger zerolog.Logger) *ReadService {
	return &ReadService{repo: repo, logger: logger.With().Str("component", "read_service").Logger()}
}

func validateListQuery(q models.ListQuery) error {
	if q.TenantID == "" {
		return apperr.InvariantViolation("tenant id is required")
	}
	if q.Limit < 1 || q.Limit > ListLimitMax {
		return apperr.InvariantViolation("limit must be between 1 and 200")
	}
	return nil
}

func (s *ReadService) ListAccounts(ctx context.Context, q models.ListQuery) (*models.Page[models.Account], error) {
	if err := validateListQuery(q); err != nil {
		return nil, err
	}
	return s.repo.ListAccounts(ctx, q)
}

func (s *ReadService) ListTransactions(ctx context.Context, q models.ListQuery) (*models.Page[models.Transaction], error) {
	if err := validateListQuery(q); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, q)
}

func (s *ReadService) ListEntries(ctx context.Context, q models.ListQuery) (*models.Page[models.Entry], error) {
	if err := validateListQuery(q); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, q)
}

// TrialBalance classifies every account of the ledger and sums both
// sides. A balance <= 0 reports as DEBIT normal; this mirrors the
// stored sign convention, it is not derived from an account type.
func (s *ReadService) TrialBalance(ctx context.Context, tenantID, ledgerID string) (*models.TrialBalance, error) {
	if tenantID == "" {
		return nil, apperr.InvariantViolation("tenant id is required")
	}
	if ledgerID == "" {
		return nil, apperr.InvariantViolation("ledger id is required")
	}

	if _, err := s.repo.GetLedgerByID(ctx, tenantID, ledgerID); err != nil {
		return nil, err
	}

	accounts, err := s.repo.GetLedgerAccounts(ctx, tenantID, ledgerID)
	if err != nil {
		return nil, err
	}

	tb := &models.TrialBalance{LedgerID: ledgerID, Rows: make([]models.TrialBalanceRow, 0, len(accounts))}
	for _, a := range accounts {
		row := models.TrialBalanceRow{
			AccountID:    a.ID,
			Code:         a.ID,
			Name:         a.Name,
			Currency:     a.Currency,
			BalanceMinor: a.BalanceMinor,
		}
		if a.BalanceMinor <= 0 {
			row.Side = models.SideDebit
			row.AbsoluteMinor = -a.BalanceMinor
			tb.TotalDebitsMinor += row.AbsoluteMinor
		} else {
			row.Side = models.SideCredit
			row.AbsoluteMinor = a.BalanceMinor
			tb.TotalCreditsMinor += row.AbsoluteMinor
		}
		tb.Rows = append(tb.Rows, row)
	}

	if tb.TotalDebitsMinor != tb.TotalCreditsMinor {
		s.logger.Error().
			Str("ledger_id", ledgerID).
			Int64("total_debits_minor", tb.TotalDebitsMinor).
			Int64("total_credits_minor", tb.TotalCreditsMinor).
			Msg("trial balance totals diverge")
		return nil, apperr.RepositoryError("trial balance totals diverge", nil)
	}
	return tb, nil
}
