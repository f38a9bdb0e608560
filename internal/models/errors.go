package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSlotUnavailable = fmt.Errorf("%w: slot is not available", ErrConflict)
	ErrAlreadyPaid     = fmt.Errorf("%w: booking already paid", ErrConflict)
	ErrInvalidState    = fmt.Errorf("%w: booking is not in a valid state for this action", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrAlreadyVerified    = fmt.Errorf("%w: email already verified", ErrConflict)
	ErrOTPInvalid         = errors.New("invalid OTP, please check and try again")
	ErrOTPExpired         = errors.New("OTP has expired, please request a new one")
	ErrResetTokenInvalid  = errors.New("password reset link is invalid or has expired")
	ErrRoleAlreadyChosen  = fmt.Errorf("%w: role already chosen", ErrConflict)
)

// ValidationError is a field-level rejection raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// SuspendedError carries the stored suspension reason back to the caller.
type SuspendedError struct {
	Reason string
}

func (e *SuspendedError) Error() string {
	if e.Reason == "" {
		return "account suspended"
	}
	return "account suspended: " + e.Reason
}

// NotFound maps gorm's missing-row error onto ErrNotFound and leaves others untouched.
func NotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation recognises duplicate key errors from postgres and sqlite,
// translated or not.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
