package account

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/venslow/gatehouse/internal/middleware"
)

// RegisterRoutes sets up the auth endpoints under /api/auth.
//
// The public POST endpoints are rate-limited per IP to blunt brute-force
// and credential stuffing before the per-account throttles even engage:
// 10 attempts per minute for login and the code endpoints, 5 for register
// and forgot-password (which cost a bcrypt hash or an outbound email).
func RegisterRoutes(e *echo.Echo, h *Handler, service Service, rdb *redis.Client) {
	g := e.Group("/api/auth")

	g.POST("/register", h.Register, middleware.RateLimit(rdb, 5, time.Minute))
	g.POST("/login", h.Login, middleware.RateLimit(rdb, 10, time.Minute))
	g.POST("/forgot-password", h.ForgotPassword, middleware.RateLimit(rdb, 5, time.Minute))
	g.POST("/verify-otp", h.VerifyOTP, middleware.RateLimit(rdb, 10, time.Minute))
	g.POST("/reset-password", h.ResetPassword, middleware.RateLimit(rdb, 10, time.Minute))

	g.GET("/me", h.Me, RequireSession(service))
}
