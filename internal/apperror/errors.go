// Package apperror provides domain-specific error types for Gatehouse.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 400, 401, 429, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "account_locked").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// LockUntil, when set, tells a well-behaved caller how long to back
	// off. Only populated on throttle errors.
	LockUntil *time.Time `json:"lock_until,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors, one per domain error kind ---

// NewValidation creates a 400 error for missing or malformed input fields.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "validation_error",
		Message: message,
	}
}

// NewDuplicateEmail creates a 400 error for registration with a taken email.
func NewDuplicateEmail() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "duplicate_email",
		Message: "Email already in use",
	}
}

// NewNotFound creates a 400 error for reset flows on an unknown email.
// The reset endpoints intentionally reveal whether the email exists, which
// the login endpoint does not. Preserved as-is from the original behavior.
func NewNotFound() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "not_found",
		Message: "Email not found",
	}
}

// NewInvalidCredentials creates a 400 error for login failures. The same
// message covers unknown email and wrong password to resist enumeration.
func NewInvalidCredentials() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "invalid_credentials",
		Message: "Invalid email or password",
	}
}

// NewAccountLocked creates a 429 error for a login-throttled account.
// Covers both "just hit the limit" and "already locked".
func NewAccountLocked(until time.Time) *AppError {
	return &AppError{
		Code:      http.StatusTooManyRequests,
		Type:      "account_locked",
		Message:   "Account locked. Try later.",
		LockUntil: &until,
	}
}

// NewCodeExpired creates a 400 error for an expired reset code.
func NewCodeExpired() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "code_expired",
		Message: "OTP has expired",
	}
}

// NewMalformedCode creates a 400 error when the encrypted OTP cannot be
// decrypted or decrypts to nothing.
func NewMalformedCode() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "malformed_code",
		Message: "Invalid OTP format",
	}
}

// NewIncorrectCode creates a 400 error for a wrong (but well-formed) OTP.
func NewIncorrectCode() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "incorrect_code",
		Message: "Incorrect OTP",
	}
}

// NewTooManyAttempts creates a 429 error for an OTP-throttled account.
func NewTooManyAttempts(until time.Time) *AppError {
	return &AppError{
		Code:      http.StatusTooManyRequests,
		Type:      "too_many_attempts",
		Message:   "Too many incorrect attempts. Try again later.",
		LockUntil: &until,
	}
}

// NewInvalidOrExpiredCode creates a 400 error for the final reset step when
// the email/code pair does not match an unexpired code.
func NewInvalidOrExpiredCode() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "invalid_or_expired_code",
		Message: "Invalid or expired OTP",
	}
}

// NewInvalidToken creates a 401 error for a token that fails signature or
// expiry checks.
func NewInvalidToken() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "invalid_token",
		Message: "Not authorized, token invalid",
	}
}

// NewStaleSession creates a 401 error for a valid token whose account no
// longer exists.
func NewStaleSession() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "stale_session",
		Message: "User no longer exists",
	}
}

// NewSessionRevoked creates a 401 error for a valid token that is no longer
// the account's current session marker (logged in elsewhere).
func NewSessionRevoked() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "session_revoked",
		Message: "Session expired",
	}
}

// NewNotification creates a 500 error for outbound mail failures. The
// stored reset code remains valid; the caller should retry.
func NewNotification(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "notification_error",
		Message:  "Could not send the email. Please try again.",
		Internal: err,
	}
}

// NewPersistence creates a 500 error for storage failures. The real error
// is stored in Internal for logging but the client sees a generic message.
func NewPersistence(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "persistence_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// NewConfiguration creates a 500 error for missing server configuration,
// such as an absent OTP secret. Verification must fail closed rather than
// skip the check.
func NewConfiguration(message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    "configuration_error",
		Message: message,
	}
}

// NewInternal creates a 500 error for anything else unexpected.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field. For any other error type,
// returns a generic message to prevent leaking internal details.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
