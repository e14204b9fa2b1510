package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/apperror"
	"github.com/venslow/gatehouse/internal/config"
)

// newTestApp builds an App without real infrastructure; only the Echo
// instance and error handler are exercised.
func newTestApp() *App {
	cfg := &config.Config{
		Env:            "development",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	return New(cfg, nil, nil)
}

func serve(a *App, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	a.Echo.GET("/test", handler)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestErrorHandler_AppError(t *testing.T) {
	a := newTestApp()
	rec := serve(a, func(c echo.Context) error {
		return apperror.NewInvalidCredentials()
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "Invalid email or password" {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if body["type"] != "invalid_credentials" {
		t.Errorf("unexpected type: %v", body["type"])
	}
	if _, present := body["lock_until"]; present {
		t.Error("lock_until must only appear on throttle errors")
	}
}

func TestErrorHandler_ThrottleErrorCarriesLockUntil(t *testing.T) {
	until := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)
	a := newTestApp()
	rec := serve(a, func(c echo.Context) error {
		return apperror.NewAccountLocked(until)
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["type"] != "account_locked" {
		t.Errorf("unexpected type: %v", body["type"])
	}
	raw, ok := body["lock_until"].(string)
	if !ok {
		t.Fatalf("expected lock_until timestamp, got %v", body["lock_until"])
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil || !parsed.Equal(until) {
		t.Errorf("expected lock_until %v, got %q (%v)", until, raw, err)
	}
}

func TestErrorHandler_InternalCauseNeverLeaks(t *testing.T) {
	a := newTestApp()
	rec := serve(a, func(c echo.Context) error {
		return apperror.NewPersistence(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "An unexpected error occurred. Please try again." {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if s := rec.Body.String(); strings.Contains(s, "dial tcp") || strings.Contains(s, "3306") {
		t.Error("internal cause leaked into the response")
	}
}

func TestErrorHandler_UnknownRouteIs404Envelope(t *testing.T) {
	a := newTestApp()
	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] == nil {
		t.Error("expected a message in the 404 envelope")
	}
}

func TestErrorHandler_PlainErrorIsGeneric500(t *testing.T) {
	a := newTestApp()
	rec := serve(a, func(c echo.Context) error {
		return errors.New("something exploded")
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "An unexpected error occurred. Please try again." {
		t.Errorf("unexpected message: %v", body["message"])
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("raw error text leaked into the response")
	}
}

func TestValidator_IsWired(t *testing.T) {
	a := newTestApp()

	type payload struct {
		Email string `validate:"required,email"`
	}
	if err := a.Echo.Validator.Validate(&payload{Email: "not-an-email"}); err == nil {
		t.Error("expected the wired validator to reject a bad email")
	}
	if err := a.Echo.Validator.Validate(&payload{Email: "a@x.com"}); err != nil {
		t.Errorf("expected a valid payload to pass, got %v", err)
	}
}
