// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an absent conversation, message, user, or notification.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates a non-member or non-owner action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument indicates a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict indicates a uniqueness race. Callers recover by retrying as update.
	ErrConflict = errors.New("conflict")

	// ErrUpstreamUnavailable indicates a collaborator failure. Never surfaced to senders.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFound wraps ErrNotFound with a subject.
func NotFound(subject string) error {
	return fmt.Errorf("%s: %w", subject, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// InvalidArgument wraps ErrInvalidArgument with a reason.
func InvalidArgument(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidArgument)
}

// IsNotFound reports whether err classifies as ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsForbidden reports whether err classifies as ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsInvalidArgument reports whether err classifies as ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsConflict reports whether err classifies as ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
