// Package errs defines the error taxonomy shared by all store
// components. Store-level failures are translated into one of these
// kinds at the component boundary; raw driver errors never reach
// callers.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound: the referenced account/character/item/offer does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraint: a uniqueness constraint was breached (duplicate
	// username, duplicate offer).
	ErrConstraint = errors.New("constraint violation")
	// ErrConflict: an optimistic race was lost, e.g. the offer was
	// consumed by a concurrent exchange. Recoverable; retry or report.
	ErrConflict = errors.New("conflict")
	// ErrValidation: the request references state the caller does not
	// hold, e.g. exchanging with an item the requester does not own.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable: the backing store cannot be reached. Fatal
	// for the request, not for the process.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FromStore translates a raw gorm/driver error into a taxonomy error.
// The original driver message is retained for logs but callers match
// with errors.Is against the sentinels above.
func FromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// IsUniqueViolation detects duplicate-key errors from common database drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
