package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbot/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.POST("/auth/change-password", h.ChangePassword)
	api.POST("/auth/password-reset", h.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", h.ConfirmPasswordReset)
	api.POST("/account/deactivate", h.Deactivate)
	api.GET("/profile", h.GetProfile)
	api.PATCH("/profile", h.UpdateProfile)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type profileUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	uid, ok := auth.CurrentUser(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return uid, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAccountDeactivated):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrInvalidResetToken), errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrInvalidBloodType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "account request failed")
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	session, _, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) Logout(c echo.Context) error {
	jti, exp, ok := auth.SessionFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	h.svc.Logout(jti, exp)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) ChangePassword(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ChangePassword(c.Request().Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password changed successfully. Please log in again."})
}

// RequestPasswordReset answers the same way whether or not the email is known.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "If the address is registered, reset instructions have been sent.",
	})
}

func (h *Handler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password reset successful"})
}

func (h *Handler) Deactivate(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	already, err := h.svc.Deactivate(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	if jti, exp, ok := auth.SessionFromContext(c.Request().Context()); ok {
		h.svc.Logout(jti, exp)
	}
	msg := "Your account has been deactivated."
	if already {
		msg = "Your account is already deactivated."
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": msg, "action": "logout"})
}

func (h *Handler) GetProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.svc.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.UpdateField(ctx, uid, req.Field, req.Value); err != nil {
		return httpError(err)
	}
	view, err := h.svc.GetProfile(ctx, uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}
