package scheduling

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbot/clinic/internal/platform/auth"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/slots", h.AvailableSlots)
	api.GET("/slots/next", h.NextAvailable)
	api.GET("/appointments", h.ListAppointments)
	api.POST("/appointments", h.Schedule)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.POST("/appointments/:id/reschedule", h.Reschedule)

	staff := api.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("/doctors", h.CreateDoctor)
	staff.PUT("/doctors/:name/status", h.SetDoctorStatus)
	staff.POST("/appointments/:id/confirm", h.Confirm)
}

type scheduleRequest struct {
	Doctor string `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Type   string `json:"type"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type doctorStatusRequest struct {
	Status string `json:"status"`
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
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDoctorExists), errors.Is(err, ErrDoctorUnavailable),
		errors.Is(err, ErrOutsideWorkingHours):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrOutsideClinicHours), errors.Is(err, ErrPastDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "scheduling request failed")
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.engine.ListDoctors(c.Request().Context(), c.QueryParam("speciality"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.engine.CreateDoctor(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrDoctorExists) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) SetDoctorStatus(c echo.Context) error {
	var req doctorStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.engine.SetDoctorStatus(c.Request().Context(), c.Param("name"), req.Status); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Slot Handlers --

func (h *Handler) AvailableSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = "today"
	}
	slots, err := h.engine.GetAvailableSlots(c.Request().Context(), date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) NextAvailable(c echo.Context) error {
	days := 0
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}
	out, err := h.engine.NextAvailableSlots(c.Request().Context(), days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

// -- Appointment Handlers --

func (h *Handler) ListAppointments(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var items []*Appointment
	if c.QueryParam("upcoming") == "true" {
		items, err = h.engine.ListUpcoming(c.Request().Context(), uid)
	} else {
		items, err = h.engine.ListAppointments(c.Request().Context(), uid)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Schedule(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Doctor == "" || req.Date == "" || req.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor, date and time are required")
	}
	appt, err := h.engine.ScheduleAppointment(c.Request().Context(), uid, req.Doctor, req.Date, req.Type, req.Time)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	appt, err := h.engine.GetAppointment(c.Request().Context(), id, uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Cancel(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.engine.CancelAppointment(c.Request().Context(), id, uid); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reschedule(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.engine.RescheduleAppointment(c.Request().Context(), id, uid, req.Date, req.Time)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.engine.ConfirmAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
