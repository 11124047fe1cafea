package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("conflicting write")
	ErrTimeout           = errors.New("store operation timed out")
	ErrSequenceExhausted = errors.New("case sequence exhausted for filing year")
	ErrLimitReached      = errors.New("user limit reached")
	ErrReferenced        = errors.New("record is still referenced")
)

// Postgres SQLSTATE codes mapError recognizes.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqQueryCanceled        = "57014"
)

// mapError turns driver errors into the package's sentinel errors.
// Errors it does not recognize are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenced, pqErr.Message)
		case pqQueryCanceled:
			return fmt.Errorf("%w: %s", ErrTimeout, pqErr.Message)
		}
	}
	return err
}
