package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey       contextKey = "user_id"
	UserRolesKey    contextKey = "user_roles"
	SessionClaimKey contextKey = "session_claims"
)

// AccountChecker reports whether a token's owner may still use the app.
type AccountChecker interface {
	ActiveUser(ctx context.Context, userID string) (bool, error)
}

type SessionConfig struct {
	Issuer      *TokenIssuer
	Revocations *TokenRevocationStore
	// Accounts, when set, rejects tokens whose owner is no longer active.
	Accounts AccountChecker
	// Skipper bypasses authentication when it returns true.
	Skipper func(c echo.Context) bool
}

// SessionMiddleware authenticates the bearer token and puts the caller's
// id, roles and claims on the request context.
func SessionMiddleware(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := cfg.Issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if cfg.Revocations != nil && cfg.Revocations.IsRevoked(claims) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session has ended")
			}
			if cfg.Accounts != nil {
				active, err := cfg.Accounts.ActiveUser(c.Request().Context(), claims.Subject)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "could not verify session")
				}
				if !active {
					return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
				}
			}

			c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

// WithClaims stores an authenticated session on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UserRolesKey, claims.Roles)
	return context.WithValue(ctx, SessionClaimKey, claims)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// CurrentUser parses the authenticated subject as a uuid.
func CurrentUser(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// SessionFromContext returns the token id and expiry of the current session.
func SessionFromContext(ctx context.Context) (jti string, expiresAt time.Time, ok bool) {
	claims, _ := ctx.Value(SessionClaimKey).(*Claims)
	if claims == nil || claims.ExpiresAt == nil {
		return "", time.Time{}, false
	}
	return claims.ID, claims.ExpiresAt.Time, true
}
