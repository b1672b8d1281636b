package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"service-parcel-platform/internal/apperr"
)

// SQLSTATE codes
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return ""
}

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsContention reports a deadlock or serialization failure between concurrent transactions.
func IsContention(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// asConflict turns lock contention into apperr.ErrConflict so callers retry with fresh reads.
func asConflict(err error) error {
	if err != nil && IsContention(err) && !errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("%w: %w", apperr.ErrConflict, err)
	}
	return err
}
