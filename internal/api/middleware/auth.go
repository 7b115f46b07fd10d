package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
)

// Identity headers resolved by the platform's front proxy. Session and
// role management live outside this service; by the time a request
// reaches us the user is already authenticated.
const (
	HeaderUserID        = "X-User-ID"
	HeaderUserFirstName = "X-User-First-Name"
	HeaderUserLastName  = "X-User-Last-Name"
	HeaderUserEmail     = "X-User-Email"
	HeaderCSRFToken     = "X-CSRF-Token"
)

// Context keys for the resolved identity
const (
	ContextUserID        = "user_id"
	ContextUserFirstName = "user_first_name"
	ContextUserLastName  = "user_last_name"
	ContextUserEmail     = "user_email"
)

// UserIdentity extracts the caller's identity from proxy headers and
// rejects requests that carry none.
func UserIdentity(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if userID == "" {
				if logger != nil {
					logger.Warn("missing user identity",
						slog.String("ip", c.RealIP()),
						slog.String("path", c.Path()))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing user identity",
					"code":  "UNAUTHORIZED",
				})
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserFirstName, c.Request().Header.Get(HeaderUserFirstName))
			c.Set(ContextUserLastName, c.Request().Header.Get(HeaderUserLastName))
			c.Set(ContextUserEmail, c.Request().Header.Get(HeaderUserEmail))

			return next(c)
		}
	}
}

// UserID returns the authenticated user ID stored by UserIdentity
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// UserDisplay returns the caller's denormalized display identity
func UserDisplay(c echo.Context) (firstName, lastName, email string) {
	firstName, _ = c.Get(ContextUserFirstName).(string)
	lastName, _ = c.Get(ContextUserLastName).(string)
	email, _ = c.Get(ContextUserEmail).(string)
	return firstName, lastName, email
}

// AntiForgery rejects mutating requests that lack an anti-forgery token.
// Reads are exempt.
func AntiForgery(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case echo.GET, echo.HEAD, echo.OPTIONS:
				return next(c)
			}

			token := strings.TrimSpace(c.Request().Header.Get(HeaderCSRFToken))
			if token == "" {
				if logger != nil {
					logger.Warn("missing anti-forgery token",
						slog.String("ip", c.RealIP()),
						slog.String("path", c.Path()))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing anti-forgery token",
					"code":  "MISSING_TOKEN",
				})
			}

			return next(c)
		}
	}
}
