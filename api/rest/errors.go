package rest

import (
	"errors"
	"net/http"

	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/game/account"
)

// httpStatus maps a taxonomy error to the HTTP status presented to
// the session layer. Conflicts and constraint breaches are expected
// outcomes, not server faults.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrConstraint), errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errBody hides internals for 5xx responses and surfaces the
// translated message otherwise.
func errBody(err error) string {
	if httpStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
