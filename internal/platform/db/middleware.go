package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// ConnMiddleware acquires one pooled connection per request, carries it on
// the request context under DBConnKey and releases it when the handler
// returns. Repositories and TxManager pick it up through Resolve.
func ConnMiddleware(pool *pgxpool.Pool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			entered := false
			err := WithConn(req.Context(), pool, func(ctx context.Context) error {
				entered = true
				c.SetRequest(req.WithContext(ctx))
				defer c.SetRequest(req)
				return next(c)
			})
			if err != nil && !entered {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			return err
		}
	}
}
