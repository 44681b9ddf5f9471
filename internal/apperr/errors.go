// Package apperr holds the error kinds shared by the identity and article
// components. Callers wrap them with context and test with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// Kind returns the sentinel that err wraps, or nil when err is not one of
// the known kinds.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrForbidden,
		ErrUnauthorized,
		ErrInvalidState,
		ErrInvalidArgument,
		ErrConflict,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
