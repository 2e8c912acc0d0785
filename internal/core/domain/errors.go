package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers every outward-visible login failure:
	// unknown username, wrong password, and disabled account all collapse
	// into this one error so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidRefreshToken covers every refresh failure: wrong token kind,
	// bad signature, expiration, and unknown subject.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrPasswordMismatch is returned by password change when the supplied
	// current password does not verify.
	ErrPasswordMismatch = errors.New("current password is incorrect")

	// ErrUserDisabled marks a disabled account internally; it is never
	// surfaced outward (login collapses it into ErrInvalidCredentials).
	ErrUserDisabled = errors.New("user account is disabled")

	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
)

// ConflictError reports a registration or user-creation collision on a
// uniquely-indexed field. Field names the colliding attribute ("username",
// "email", "employeeId").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// NewConflict builds a ConflictError for the given field.
func NewConflict(field string) *ConflictError {
	return &ConflictError{Field: field}
}
