package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass session authentication: health checks and the
// endpoints used before a session exists.
var publicPaths = map[string]bool{
	"/health":                             true,
	"/health/db":                          true,
	"/api/v1/auth/register":               true,
	"/api/v1/auth/login":                  true,
	"/api/v1/auth/password-reset":         true,
	"/api/v1/auth/password-reset/confirm": true,
	"/api/v1/clinic":                      true,
	"/api/v1/clinic/services":             true,
}

// AuthSkipper matches on the registered route path, not the raw URL.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether a route path is served without a session.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
