package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/apperror"
)

// newAuthContext builds a GET context with an optional Authorization header.
func newAuthContext(authorization string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireSession_Success(t *testing.T) {
	acct := &Account{ID: "id-1", Email: "a@x.com"}
	svc := &mockService{
		verifySessionFn: func(ctx context.Context, tokenString string) (*Account, error) {
			if tokenString != "valid-token" {
				t.Errorf("expected middleware to pass the raw token, got %q", tokenString)
			}
			return acct, nil
		},
	}

	var nextCalled bool
	mw := RequireSession(svc)
	next := func(c echo.Context) error {
		nextCalled = true
		if got := GetAccount(c); got != acct {
			t.Error("expected the verified account in the request context")
		}
		return nil
	}

	c := newAuthContext("Bearer valid-token")
	if err := mw(next)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nextCalled {
		t.Fatal("expected the next handler to run")
	}
}

func TestRequireSession_MissingOrMalformedHeader(t *testing.T) {
	svc := &mockService{
		verifySessionFn: func(ctx context.Context, tokenString string) (*Account, error) {
			t.Fatal("service must not be called without a bearer token")
			return nil, nil
		},
	}
	mw := RequireSession(svc)
	next := func(c echo.Context) error { return nil }

	for name, header := range map[string]string{
		"no header":    "",
		"wrong scheme": "Basic dXNlcjpwYXNz",
		"bare token":   "some-token-without-scheme",
		"empty bearer": "Bearer ",
	} {
		err := mw(next)(newAuthContext(header))
		if err == nil {
			t.Errorf("%s: expected an error", name)
			continue
		}
		assertAppError(t, err, 401, "invalid_token")
	}
}

func TestRequireSession_ServiceErrorPassesThrough(t *testing.T) {
	svc := &mockService{
		verifySessionFn: func(ctx context.Context, tokenString string) (*Account, error) {
			return nil, apperror.NewSessionRevoked()
		},
	}
	mw := RequireSession(svc)
	next := func(c echo.Context) error {
		t.Fatal("next must not run on verification failure")
		return nil
	}

	err := mw(next)(newAuthContext("Bearer stale-token"))
	assertAppError(t, err, 401, "session_revoked")
}

func TestGetAccount_WithoutMiddleware(t *testing.T) {
	if got := GetAccount(newAuthContext("")); got != nil {
		t.Errorf("expected nil without RequireSession, got %v", got)
	}
}
