package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/venslow/gatehouse/internal/apperror"
	"github.com/venslow/gatehouse/internal/mailer"
	"github.com/venslow/gatehouse/internal/otp"
	"github.com/venslow/gatehouse/internal/token"
)

// Service defines the business logic contract of the account security
// manager. Handlers call these methods -- they never touch the repository
// directly. Every method performs at most one read and one write round-trip
// per state transition; cancellation is the caller's via ctx.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Account, string, error)
	Authenticate(ctx context.Context, input LoginInput) (*Account, string, error)
	RequestReset(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, encryptedCode string) error
	ConsumeReset(ctx context.Context, email, code, newPassword string) error
	VerifySession(ctx context.Context, tokenString string) (*Account, error)
}

// accountService implements Service with bcrypt hashing, JWT session
// tokens, and an AES-GCM OTP cipher.
type accountService struct {
	repo      Repository
	tokens    *token.Issuer
	mail      mailer.Sender
	otpSecret string

	// now is the single clock source for a given evaluation: each operation
	// reads it once so a lock check and a lock set within the same call
	// cannot skew. Injectable for the lockout tests.
	now func() time.Time
}

// NewService creates the account service with its collaborators. otpSecret
// may be empty; code verification then fails closed with a configuration
// error instead of skipping the check.
func NewService(repo Repository, tokens *token.Issuer, mail mailer.Sender, otpSecret string) Service {
	return &accountService{
		repo:      repo,
		tokens:    tokens,
		mail:      mail,
		otpSecret: otpSecret,
		now:       time.Now,
	}
}

// Register creates a new account, hashes the password, and immediately
// issues a session token stored as the session marker. Email uniqueness is
// enforced by the database at creation.
func (s *accountService) Register(ctx context.Context, input RegisterInput) (*Account, string, error) {
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := s.now()
	acct := &Account{
		ID:           generateID(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", apperror.NewDuplicateEmail()
		}
		return nil, "", apperror.NewPersistence(fmt.Errorf("creating account: %w", err))
	}

	tok, err := s.tokens.Issue(acct.ID)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	acct.SessionToken = tok
	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, "", apperror.NewPersistence(fmt.Errorf("storing session marker: %w", err))
	}

	slog.Info("account registered",
		slog.String("account_id", acct.ID),
		slog.String("email", acct.Email),
	)

	return acct, tok, nil
}

// Authenticate verifies credentials under the login throttle. Unknown email
// and wrong password produce the same error to resist enumeration. Five
// consecutive failures lock the account for five minutes; a success resets
// the counter and rotates the session marker.
func (s *accountService) Authenticate(ctx context.Context, input LoginInput) (*Account, string, error) {
	acct, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", apperror.NewInvalidCredentials()
		}
		return nil, "", apperror.NewPersistence(fmt.Errorf("finding account: %w", err))
	}

	now := s.now()

	if acct.IsLoginLocked(now) {
		return nil, "", apperror.NewAccountLocked(*acct.LockUntil)
	}

	if !verifyPassword(input.Password, acct.PasswordHash) {
		locked := acct.RecordFailedLogin(now)
		if err := s.repo.Update(ctx, acct); err != nil {
			return nil, "", apperror.NewPersistence(fmt.Errorf("recording failed login: %w", err))
		}

		slog.Warn("failed login attempt",
			slog.String("account_id", acct.ID),
			slog.Int("attempts", acct.LoginAttempts),
			slog.Bool("locked", locked),
		)

		// Hitting the limit and being already locked render the same way.
		if locked {
			return nil, "", apperror.NewAccountLocked(*acct.LockUntil)
		}
		return nil, "", apperror.NewInvalidCredentials()
	}

	tok, err := s.tokens.Issue(acct.ID)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	acct.RecordSuccessfulLogin(tok)
	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, "", apperror.NewPersistence(fmt.Errorf("recording login: %w", err))
	}

	slog.Info("account logged in", slog.String("account_id", acct.ID))

	return acct, tok, nil
}

// RequestReset generates a fresh one-time code with a three-minute expiry,
// persists it, then dispatches it by email. The code is stored before the
// send so a delivery failure leaves it valid for a retry; the failure still
// surfaces as a notification error.
func (s *accountService) RequestReset(ctx context.Context, email string) error {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NewNotFound()
		}
		return apperror.NewPersistence(fmt.Errorf("finding account: %w", err))
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset code: %w", err))
	}

	acct.SetResetCode(code, s.now())
	if err := s.repo.Update(ctx, acct); err != nil {
		return apperror.NewPersistence(fmt.Errorf("storing reset code: %w", err))
	}

	body := fmt.Sprintf("Your OTP: %s\nExpires in 3 minutes.", code)
	if err := s.mail.Send(ctx, acct.Email, "Your Password Reset OTP", body); err != nil {
		slog.Error("reset code dispatch failed",
			slog.String("account_id", acct.ID),
			slog.Any("error", err),
		)
		return apperror.NewNotification(err)
	}

	slog.Info("reset code sent", slog.String("account_id", acct.ID))

	return nil
}

// VerifyResetCode checks an encrypted one-time code under the code-attempt
// throttle. Requires the shared OTP secret: without it the check fails
// closed. A matching code is intentionally left intact so verification can
// be repeated idempotently before ConsumeReset commits the new password.
func (s *accountService) VerifyResetCode(ctx context.Context, email, encryptedCode string) error {
	if s.otpSecret == "" {
		return apperror.NewConfiguration("Server misconfiguration: OTP secret missing")
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NewNotFound()
		}
		return apperror.NewPersistence(fmt.Errorf("finding account: %w", err))
	}

	now := s.now()

	// An elapsed code-lock resets the attempt counter before anything else.
	if acct.ClearElapsedResetLock(now) {
		if err := s.repo.Update(ctx, acct); err != nil {
			return apperror.NewPersistence(fmt.Errorf("clearing elapsed code lock: %w", err))
		}
	}

	if acct.IsResetLocked(now) {
		return apperror.NewTooManyAttempts(*acct.ResetLockUntil)
	}

	if acct.ResetCodeExpired(now) {
		return apperror.NewCodeExpired()
	}

	plain, err := otp.Decrypt(encryptedCode, s.otpSecret)
	if err != nil || plain == "" {
		return apperror.NewMalformedCode()
	}

	if acct.ResetCode == nil || *acct.ResetCode != plain {
		locked := acct.RecordFailedResetAttempt(now)
		if err := s.repo.Update(ctx, acct); err != nil {
			return apperror.NewPersistence(fmt.Errorf("recording failed code attempt: %w", err))
		}

		slog.Warn("incorrect reset code",
			slog.String("account_id", acct.ID),
			slog.Int("attempts", acct.ResetAttempts),
			slog.Bool("locked", locked),
		)

		if locked {
			return apperror.NewTooManyAttempts(*acct.ResetLockUntil)
		}
		return apperror.NewIncorrectCode()
	}

	acct.RecordSuccessfulResetVerify()
	if err := s.repo.Update(ctx, acct); err != nil {
		return apperror.NewPersistence(fmt.Errorf("recording code verification: %w", err))
	}

	return nil
}

// ConsumeReset sets a new password if the plaintext code matches an
// unexpired pending code. Validated independently of VerifyResetCode --
// this step does not require the verify endpoint to have run first. The
// code and expiry are cleared on success (single use).
//
// Deliberately leaves the login throttle and the session marker untouched,
// matching the observed behavior of the original flow.
func (s *accountService) ConsumeReset(ctx context.Context, email, code, newPassword string) error {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// No hint whether the email or the code was wrong here.
			return apperror.NewInvalidOrExpiredCode()
		}
		return apperror.NewPersistence(fmt.Errorf("finding account: %w", err))
	}

	if !acct.MatchesResetCode(code, s.now()) {
		return apperror.NewInvalidOrExpiredCode()
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	acct.PasswordHash = hash
	acct.ClearResetCode()
	if err := s.repo.Update(ctx, acct); err != nil {
		return apperror.NewPersistence(fmt.Errorf("storing new password: %w", err))
	}

	slog.Info("password reset", slog.String("account_id", acct.ID))

	return nil
}

// VerifySession validates a bearer token and returns its account. A token
// must pass signature and expiry checks AND equal the account's current
// session marker -- logging in elsewhere revokes old tokens without any
// explicit revoke call.
func (s *accountService) VerifySession(ctx context.Context, tokenString string) (*Account, error) {
	subject, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperror.NewInvalidToken()
	}

	acct, err := s.repo.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NewStaleSession()
		}
		return nil, apperror.NewPersistence(fmt.Errorf("finding account: %w", err))
	}

	if acct.SessionToken != tokenString {
		return nil, apperror.NewSessionRevoked()
	}

	return acct, nil
}
