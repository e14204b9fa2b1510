// ratelimit.go implements a per-IP rate limiter using a fixed window counter
// stored in Redis, so the limit holds across multiple server instances.
// Designed for the public auth endpoints (login, register, forgot-password).
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration. Returns 429 when exceeded.
//
// The counter key is scoped by route path so limits on different endpoints
// don't interfere. Redis errors fail open: an unreachable Redis must not
// take the login endpoint down with it.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", c.Path(), c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limit check failed, allowing request",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			// First hit in a window starts the window clock.
			if count == 1 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					slog.Warn("rate limit expire failed",
						slog.String("key", key),
						slog.Any("error", err),
					)
				}
			}

			if count > int64(maxRequests) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message": "Rate limit exceeded. Please try again later.",
				})
			}

			return next(c)
		}
	}
}
