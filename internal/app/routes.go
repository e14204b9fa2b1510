package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/account"
	"github.com/venslow/gatehouse/internal/mailer"
	"github.com/venslow/gatehouse/internal/token"
)

// RegisterRoutes sets up all application routes: the public liveness
// endpoints and the auth module. This is the single place where routes
// are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Landing route, useful as a cheap liveness probe.
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "API is running...")
	})

	// Health check endpoint for Docker health monitoring. Pings both
	// backing stores so a dead dependency flips the probe.
	e.GET("/healthz", a.healthz)

	// --- Auth module ---
	issuer := token.NewIssuer(a.Config.Auth.SecretKey, a.Config.Auth.TokenTTL)
	sender := mailer.NewSMTPSender(a.Config.SMTP)
	repo := account.NewRepository(a.DB)
	service := account.NewService(repo, issuer, sender, a.Config.Auth.OTPSecret)
	handler := account.NewHandler(service)

	account.RegisterRoutes(e, handler, service, a.Redis)
}

// healthz reports whether the server and its backing stores are reachable.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"database": "ok", "redis": "ok"}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, checks)
}
