package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
	"github.com/ledgerlink/backend/internal/repository"
)

// PostingService checks the balancing invariants of a posting and
// hands the write to the repository.
type PostingService struct {
	repo   repository.LedgerRepository
	logger zerolog.Logger
}

func NewPostingService(repo repository.LedgerRepository, logger zerolog.Logger) *PostingService {
	return &PostingService{repo: repo, logger: logger.With().Str("component", "posting_service").Logger()}
}

// PostTransaction validates the posting outside the database
// transaction, then runs the atomic write path. Retrying with the same
// reference returns the same transaction id with Created=false.
func (s *PostingService) PostTransaction(ctx context.Context, input models.PostTransactionInput) (*models.PostTransactionResult, error) {
	if err := validatePosting(input); err != nil {
		return nil, err
	}

	result, err := s.repo.PostTransaction(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("transaction_id", result.TransactionID).
		Str("reference", input.Reference).
		Bool("created", result.Created).
		Msg("transaction posted")
	return result, nil
}

func validatePosting(input models.PostTransactionInput) error {
	if input.TenantID == "" {
		return apperr.InvariantViolation("tenant id is required")
	}
	if input.LedgerID == "" {
		return apperr.InvariantViolation("ledger id is required")
	}
	if input.Reference == "" {
		return apperr.InvariantViolation("reference is required")
	}
	if input.Currency == "" {
		return apperr.InvariantViolation("currency is required")
	}
	if len(input.Entries) < 2 {
		return apperr.InvariantViolation("transaction requires at least two entries")
	}

	var debits, credits int64
	for _, e := range input.Entries {
		if e.AccountID == "" {
			return apperr.InvariantViolation("entry account id is required")
		}
		if !models.ValidDirection(e.Direction) {
			return apperr.InvariantViolation("entry direction must be DEBIT or CREDIT")
		}
		if e.AmountMinor <= 0 {
			return apperr.InvariantViolation("entry amount must be positive")
		}
		if e.Currency != input.Currency {
			return apperr.InvariantViolation("entry currency does not match transaction currency")
		}
		if e.Direction == models.DirectionDebit {
			debits += e.AmountMinor
		} else {
			credits += e.AmountMinor
		}
	}

	if debits != credits {
		return apperr.InvariantViolation("transaction entries are not balanced")
	}
	return nil
}
