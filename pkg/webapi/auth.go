package webapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type TokenAuthConfig struct {
	Skipper middleware.Skipper
	// Token is the shared secret peers and CLIs send as a bearer token. An
	// empty Token turns the check off.
	Token string
}

// TokenAuth rejects requests that do not carry the configured token, either
// as "Authorization: Bearer <token>" or as the auth_token query param.
func TokenAuth(config TokenAuthConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = middleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Token == "" || config.Skipper(c) {
				return next(c)
			}

			token := tokenFromRequest(c)
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(config.Token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing auth token")
			}

			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, found := strings.CutPrefix(auth, "Bearer "); found {
			return token
		}
	}

	return c.QueryParam("auth_token")
}

// SkipMetrics leaves the prometheus endpoint open.
func SkipMetrics(c echo.Context) bool {
	return c.Path() == "/metrics"
}
