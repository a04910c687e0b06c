// Package apperr holds the error categories shared by the service packages.
// Services wrap these with fmt.Errorf("%w: ...") and handlers classify them
// with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

var categories = []error{ErrNotFound, ErrForbidden, ErrValidation, ErrConflict}

// Validation returns a validation error with a user-facing message
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error naming the missing thing
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Forbidden returns an authorization error with a user-facing message
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// IsUserError reports whether err belongs to one of the known categories.
// Anything else is a system fault.
func IsUserError(err error) bool {
	for _, c := range categories {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// Message strips the category prefix for display
func Message(err error) string {
	msg := err.Error()
	for _, c := range categories {
		if rest, ok := strings.CutPrefix(msg, c.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
