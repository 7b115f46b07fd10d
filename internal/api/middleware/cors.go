package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SecureCORS returns CORS middleware restricted to the given origins.
// Wildcard origins are rejected at config validation time in production;
// an empty list falls back to the local development frontend.
func SecureCORS(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			HeaderUserID, HeaderUserFirstName, HeaderUserLastName, HeaderUserEmail, HeaderCSRFToken},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
