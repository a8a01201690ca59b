package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ledgerlink/backend/internal/apperr"
)

// Constraint classes the database reports for bad input. These become
// INVARIANT_VIOLATION; anything else is a repository failure whose
// cause stays attached but is never exposed to clients. Numeric range
// overflow (22003) is deliberately absent: on the balance-update path
// it signals an int64 overflow, not bad caller input.
var constraintCodes = map[pq.ErrorCode]string{
	"23502": "required column missing",
	"23503": "referenced row does not exist",
	"23505": "duplicate value violates a unique constraint",
	"23514": "value violates a check constraint",
	"22P02": "invalid value for column type",
}

func translateDBError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if msg, ok := constraintCodes[pqErr.Code]; ok {
			return apperr.InvariantViolation(msg)
		}
	}
	return apperr.RepositoryError(fmt.Sprintf("%s failed", op), err)
}
