package account

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/apperror"
)

// Handler handles HTTP requests for the auth endpoints. Handlers are thin:
// they bind and validate the request, call the service, and render the
// {message, ...} envelope. No business logic lives here.
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// tokenResponse is the envelope for operations that issue a session token.
type tokenResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    *Account `json:"user"`
}

// messageResponse is the envelope for operations that only acknowledge.
type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account and returns it with a session token
// (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, tok, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Message: "Registration successful",
		Token:   tok,
		User:    acct,
	})
}

// Login authenticates credentials and rotates the session token
// (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acct, tok, err := h.service.Authenticate(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Message: "Login successful",
		Token:   tok,
		User:    acct,
	})
}

// ForgotPassword generates and emails a one-time reset code
// (POST /api/auth/forgot-password).
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.RequestReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "OTP sent to your email"})
}

// VerifyOTP checks an encrypted one-time code (POST /api/auth/verify-otp).
func (h *Handler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.VerifyResetCode(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "OTP verified successfully!"})
}

// ResetPassword consumes a one-time code and sets the new password
// (POST /api/auth/reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ConsumeReset(c.Request().Context(), req.Email, req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}

// Me returns the authenticated account (GET /api/auth/me, protected).
func (h *Handler) Me(c echo.Context) error {
	acct := GetAccount(c)
	if acct == nil {
		// RequireSession wasn't applied to this route; a wiring bug.
		return apperror.NewInternal(nil)
	}

	return c.JSON(http.StatusOK, map[string]*Account{"user": acct})
}

// bindAndValidate binds the JSON body into req and runs struct validation,
// mapping both failure modes to a 400 validation error.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperror.NewValidation(validationMessage(err))
	}
	return nil
}

// validationMessage turns a validator error into a short client-safe
// message naming the first offending field.
func validationMessage(err error) string {
	msg := err.Error()
	// validator.ValidationErrors stringify verbosely; keep only the first
	// failed field and its rule.
	if i := strings.Index(msg, "Error:"); i >= 0 {
		msg = msg[i+len("Error:"):]
	}
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}
