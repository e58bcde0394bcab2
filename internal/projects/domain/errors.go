package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorage          = errors.New("storage error")

	// ErrNotAMember and ErrInsufficientRole are both authorization failures,
	// so errors.Is(err, ErrForbidden) holds for them too.
	ErrNotAMember       = fmt.Errorf("%w: not a member of this project", ErrForbidden)
	ErrInsufficientRole = fmt.Errorf("%w: insufficient role", ErrForbidden)
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsDomainError reports whether err belongs to the caller-recoverable taxonomy.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrNotFound, ErrForbidden, ErrConflict,
		ErrInvalidState, ErrInvalidOperation, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Storage wraps an unclassified persistence failure.
func Storage(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
