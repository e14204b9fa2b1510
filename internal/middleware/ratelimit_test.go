package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func doRequest(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsUpToLimit(t *testing.T) {
	_, rdb := newTestRedis(t)

	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(rdb, 3, time.Minute))

	for i := 1; i <= 3; i++ {
		if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := doRequest(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", rec.Code)
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	_, rdb := newTestRedis(t)

	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(rdb, 1, time.Minute))

	if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first IP: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("first IP second hit: expected 429, got %d", rec.Code)
	}

	// A different client is unaffected.
	if rec := doRequest(e, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("second IP: expected 200, got %d", rec.Code)
	}
}

func TestRateLimit_WindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)

	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(rdb, 1, time.Minute))

	doRequest(e, "10.0.0.1")
	if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rec.Code)
	}

	mr.FastForward(time.Minute + time.Second)

	if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected a fresh window after expiry, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(rdb, 1, time.Minute))

	// With Redis unreachable, every request passes through.
	for i := 1; i <= 3; i++ {
		if rec := doRequest(e, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected fail-open 200, got %d", i, rec.Code)
		}
	}
}
