// Package account implements the account security manager: registration,
// credential login with lockout, OTP-based password reset, and session
// verification. The throttle state machine lives on the Account entity;
// the service orchestrates lookups, persistence, and collaborators.
package account

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Throttle limits. A fifth consecutive failed login locks the account for
// five minutes; a third wrong reset code locks the reset flow for five
// minutes; a reset code is valid for three minutes.
const (
	maxLoginAttempts  = 5
	loginLockDuration = 5 * time.Minute

	maxResetAttempts  = 3
	resetLockDuration = 5 * time.Minute

	resetCodeTTL = 3 * time.Minute
)

// Account is the sole entity of the auth subsystem. Credential, session
// marker, and throttle state are never exposed in JSON responses.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	// Email is unique across accounts and stored case-sensitively.
	Email string `json:"email"`

	PasswordHash string `json:"-"`

	// SessionToken is the last-issued session token. It is the sole basis
	// for token validity: a cryptographically valid token that no longer
	// equals this marker has been revoked by a newer login.
	SessionToken string `json:"-"`

	// Login throttle state.
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`

	// Reset throttle state.
	ResetCode        *string    `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`
	ResetAttempts    int        `json:"-"`
	ResetLockUntil   *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Login throttle ---

// IsLoginLocked reports whether a login lock is active at the given instant.
// An elapsed lock is not active; the success path clears it.
func (a *Account) IsLoginLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// RecordFailedLogin increments the attempt counter and, on reaching the
// limit, sets a lock. Returns true when this failure triggered the lock.
// Counting halts while locked because the lock check runs before compare.
func (a *Account) RecordFailedLogin(now time.Time) bool {
	a.LoginAttempts++
	if a.LoginAttempts >= maxLoginAttempts {
		until := now.Add(loginLockDuration)
		a.LockUntil = &until
		return true
	}
	return false
}

// RecordSuccessfulLogin resets the login throttle and overwrites the session
// marker, revoking every previously issued token. Issuing a new session also
// clears any pending reset code: the code is single-use and a fresh session
// supersedes the recovery flow.
func (a *Account) RecordSuccessfulLogin(token string) {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.SessionToken = token
	a.ClearResetCode()
}

// --- Reset code lifecycle ---

// SetResetCode stores a fresh one-time code with its expiry, superseding any
// earlier code. Only the latest code verifies.
func (a *Account) SetResetCode(code string, now time.Time) {
	expires := now.Add(resetCodeTTL)
	a.ResetCode = &code
	a.ResetCodeExpires = &expires
}

// ResetCodeExpired reports whether a stored code's expiry has passed. An
// account with no pending code is not "expired" -- verification then falls
// through to the mismatch path, which throttles probing just the same.
func (a *Account) ResetCodeExpired(now time.Time) bool {
	return a.ResetCodeExpires != nil && !a.ResetCodeExpires.After(now)
}

// MatchesResetCode reports whether the given plaintext equals the stored
// pending code and the code has not expired.
func (a *Account) MatchesResetCode(code string, now time.Time) bool {
	return a.ResetCode != nil && *a.ResetCode == code &&
		a.ResetCodeExpires != nil && a.ResetCodeExpires.After(now)
}

// ClearResetCode unsets the pending code and its expiry.
func (a *Account) ClearResetCode() {
	a.ResetCode = nil
	a.ResetCodeExpires = nil
}

// --- Reset attempt throttle ---

// IsResetLocked reports whether a code-lock is active at the given instant.
func (a *Account) IsResetLocked(now time.Time) bool {
	return a.ResetLockUntil != nil && a.ResetLockUntil.After(now)
}

// ClearElapsedResetLock resets the attempt counter and clears the lock if
// the lock exists but has elapsed. Returns true if state changed, so the
// caller knows to persist before continuing.
func (a *Account) ClearElapsedResetLock(now time.Time) bool {
	if a.ResetLockUntil != nil && !a.ResetLockUntil.After(now) {
		a.ResetAttempts = 0
		a.ResetLockUntil = nil
		return true
	}
	return false
}

// RecordFailedResetAttempt increments the code-attempt counter and, on
// reaching the limit, sets a code-lock. Returns true when this attempt
// triggered the lock.
func (a *Account) RecordFailedResetAttempt(now time.Time) bool {
	a.ResetAttempts++
	if a.ResetAttempts >= maxResetAttempts {
		until := now.Add(resetLockDuration)
		a.ResetLockUntil = &until
		return true
	}
	return false
}

// RecordSuccessfulResetVerify resets the attempt throttle. The code itself
// is intentionally retained so verification can be re-checked idempotently
// before the final reset step consumes it.
func (a *Account) RecordSuccessfulResetVerify() {
	a.ResetAttempts = 0
	a.ResetLockUntil = nil
}

// --- Helpers ---

// generateID creates a new v4 UUID string using crypto/rand.
// Format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
func generateID() string {
	uuid := make([]byte, 16)
	_, _ = rand.Read(uuid)

	// Set version (4) and variant (RFC 4122) bits.
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the registration payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest holds the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest holds the reset-request payload.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest holds the code-verification payload. OTP carries the
// code encrypted with the shared secret, base64-encoded.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// ResetPasswordRequest holds the final reset payload. Token is the original
// plaintext one-time code.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=128"`
}

// --- Service input DTOs ---

// RegisterInput is the validated input for creating a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput is the validated input for authenticating an account.
type LoginInput struct {
	Email    string
	Password string
}
