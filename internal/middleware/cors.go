package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds the cross-origin policy for the browser-facing frontend.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to call the API from a browser,
	// loaded from ALLOWED_ORIGINS. "*" allows everything.
	AllowedOrigins []string

	// AllowCredentials lets the browser attach cookies and Authorization
	// headers to cross-origin requests.
	AllowCredentials bool
}

// allowMethods and allowHeaders cover the whole API surface: JSON POSTs
// plus the bearer-authenticated GET.
const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type, Authorization"
)

// CORS returns middleware implementing an origin allowlist. Requests with
// no Origin header (same-origin, curl, server-to-server) pass untouched.
// Origins outside the list get no CORS headers and the browser blocks the
// response on its side; the server still processes the request.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := false
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	// A wildcard origin combined with credentials would let any site make
	// authenticated calls. Keep the wildcard, drop the credentials.
	if wildcard && cfg.AllowCredentials {
		slog.Warn("CORS: wildcard origin with credentials is insecure; credentials disabled, set explicit ALLOWED_ORIGINS")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if origin == "" {
				return next(c)
			}

			if !wildcard && !allowed[origin] {
				slog.Warn("CORS origin rejected", slog.String("origin", origin))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if c.Request().Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				// Preflight results are cacheable for an hour.
				h.Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
