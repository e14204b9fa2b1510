// Package middleware provides the HTTP middleware for the Gatehouse Echo
// server: request logging, panic recovery, security headers, CORS, trusted
// proxy resolution, and the per-IP rate limiter. Global middleware is
// registered in internal/app; the rate limiter is attached per route.
package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/apperror"
)

// RequestLogger returns middleware that emits one structured log line per
// request after it completes. 4xx responses log at warn and 5xx at error so
// failed logins and throttle hits stand out without grepping.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := responseStatus(c, err)

			slog.LogAttrs(req.Context(), levelFor(status), "request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			)

			return err
		}
	}
}

// responseStatus resolves the status the client will see. The error handler
// runs after the middleware chain unwinds, so on an error path the response
// status is not committed yet and must come from the error itself.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	return apperror.SafeCode(err)
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
