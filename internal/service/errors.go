package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAllocationExhausted = errors.New("no case identifiers left for this filing year")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserLimitExceeded   = errors.New("user limit reached")
	ErrLastAdminProtected  = errors.New("at least one active admin must remain")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrUserHasRecords      = errors.New("user has authored records; deactivate instead")
	ErrConflict            = errors.New("concurrent update, please retry")
	ErrTimeout             = errors.New("store did not respond in time")
	ErrInvalidInput        = errors.New("invalid input")

	ErrInvalidTransition = models.ErrInvalidTransition
	ErrUnauthenticated   = models.ErrUnauthenticated
	ErrForbidden         = models.ErrForbidden
)

// TransitionError carries the current and requested status of a rejected transition.
type TransitionError = models.TransitionError

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translate maps repository errors onto the service's error set.
// Anything unrecognized is returned unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, repository.ErrSequenceExhausted):
		return ErrAllocationExhausted
	case errors.Is(err, repository.ErrLimitReached):
		return ErrUserLimitExceeded
	}
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
