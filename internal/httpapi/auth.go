package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/collate/internal/auth"
)

// requireAuth gates a route group behind the configured bearer token. When no
// token hash is configured the middleware passes every request through.
func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hash := strings.TrimSpace(s.opts.APITokenHash)
			if hash == "" {
				return next(c)
			}

			token, found := bearerToken(c)
			if !found {
				return unauthorizedResponse(c)
			}
			if !auth.VerifyToken(token, hash) {
				return unauthorizedResponse(c)
			}

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	if c == nil {
		return "", false
	}

	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", false
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorizedResponse(c echo.Context) error {
	if c == nil {
		return fmt.Errorf("authentication required")
	}
	return fail(c, http.StatusUnauthorized, "Authentication required", nil)
}
