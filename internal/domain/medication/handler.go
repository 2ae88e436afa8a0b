package medication

import (
	"errors"
	"net/http"
	"time"

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
	api.GET("/prescriptions", h.List)
	api.POST("/prescriptions/:id/refill", h.RequestRefill)
	api.POST("/prescriptions/:id/reminder", h.ScheduleReminder)
	api.GET("/refills/:id", h.RefillStatus)
}

type reminderRequest struct {
	DaysBefore *int `json:"days_before"`
}

type reminderResponse struct {
	ReminderDate string `json:"reminder_date"`
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
	case errors.Is(err, ErrPrescriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrNoRefillsLeft):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidLeadDays):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "prescription request failed")
}

func pathUserAndID(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	uid, err := currentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uid, id, nil
}

// List returns active prescriptions, or every prescription with ?status=all.
func (h *Handler) List(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var items []*Prescription
	switch {
	case c.QueryParam("status") == "all":
		items, err = h.svc.ListAll(ctx, uid)
	case c.QueryParam("name") != "":
		items, err = h.svc.FindActiveByName(ctx, uid, c.QueryParam("name"))
	default:
		items, err = h.svc.ListActive(ctx, uid)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) RequestRefill(c echo.Context) error {
	uid, id, err := pathUserAndID(c)
	if err != nil {
		return err
	}
	refill, err := h.svc.RequestRefill(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, refill)
}

func (h *Handler) RefillStatus(c echo.Context) error {
	uid, id, err := pathUserAndID(c)
	if err != nil {
		return err
	}
	refill, err := h.svc.RefillStatus(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, refill)
}

func (h *Handler) ScheduleReminder(c echo.Context) error {
	uid, id, err := pathUserAndID(c)
	if err != nil {
		return err
	}
	var req reminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	days := DefaultReminderLeadDays
	if req.DaysBefore != nil {
		days = *req.DaysBefore
	}
	due, err := h.svc.ScheduleRefillReminder(c.Request().Context(), uid, id, days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, reminderResponse{ReminderDate: due.Format(time.DateOnly)})
}
