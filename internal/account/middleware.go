package account

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venslow/gatehouse/internal/apperror"
)

// contextKeyAccount is the Echo context key holding the authenticated account.
const contextKeyAccount = "auth_account"

// RequireSession returns middleware that verifies the bearer token against
// the account's current session marker and injects the account into the
// request context. Missing or malformed headers fail exactly like invalid
// tokens; revoked and stale sessions get their own error kinds.
func RequireSession(service Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := bearerToken(c)
			if tok == "" {
				return apperror.NewInvalidToken()
			}

			acct, err := service.VerifySession(c.Request().Context(), tok)
			if err != nil {
				return err
			}

			c.Set(contextKeyAccount, acct)

			return next(c)
		}
	}
}

// GetAccount retrieves the authenticated account from the Echo context.
// Returns nil if RequireSession was not applied to the route.
func GetAccount(c echo.Context) *Account {
	acct, _ := c.Get(contextKeyAccount).(*Account)
	return acct
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
