package chat

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicbot/clinic/internal/platform/auth"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 2000

type Handler struct {
	router      *Router
	revocations *auth.TokenRevocationStore
}

func NewHandler(router *Router, revocations *auth.TokenRevocationStore) *Handler {
	return &Handler{router: router, revocations: revocations}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chat", h.Chat)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat answers one message. When the reply asks for a logout the current
// session token is revoked before responding.
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	uid, ok := auth.CurrentUser(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Message) > MaxMessageLength {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message is too long")
	}

	reply := h.router.Handle(ctx, uid, req.Message)
	if reply.Action == ActionLogout && h.revocations != nil {
		if jti, exp, ok := auth.SessionFromContext(ctx); ok {
			h.revocations.Revoke(jti, exp)
		}
	}
	return c.JSON(http.StatusOK, reply)
}
