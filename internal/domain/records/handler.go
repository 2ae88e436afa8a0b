package records

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbot/clinic/internal/platform/auth"
	"github.com/clinicbot/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records", h.ListRecords)
	api.GET("/records/summary", h.Summary)
	api.GET("/reminders", h.ListReminders)
	api.POST("/reminders", h.SetReminder)
	api.POST("/reminders/:id/dismiss", h.DismissReminder)
	api.GET("/post-care", h.ListPostCare)

	staff := api.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("/records", h.AddRecord)
	staff.POST("/post-care", h.AddPostCare)
}

type recordRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	RecordType  string    `json:"record_type"`
	RecordDate  string    `json:"record_date"`
	Description *string   `json:"description"`
	Results     *string   `json:"results"`
}

type reminderRequest struct {
	ReminderType      string  `json:"reminder_type"`
	ReminderDate      string  `json:"reminder_date"`
	ReminderTime      *string `json:"reminder_time"`
	Description       string  `json:"description"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrencePattern *string `json:"recurrence_pattern"`
}

type postCareRequest struct {
	UserID          uuid.UUID `json:"user_id"`
	ProcedureType   string    `json:"procedure_type"`
	Instructions    string    `json:"instructions"`
	InstructionDate string    `json:"instruction_date"`
}

// parseDate accepts YYYY-MM-DD. An empty value yields the zero time so the
// service can apply its default.
func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return d, nil
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	uid, ok := auth.CurrentUser(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return uid, nil
}

func (h *Handler) ListRecords(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListHealthRecords(c.Request().Context(), uid, c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load health records")
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) Summary(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	sum, err := h.svc.Summary(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load health summary")
	}
	return c.JSON(http.StatusOK, sum)
}

// AddRecord is used by staff; the patient is named in the body.
func (h *Handler) AddRecord(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate("record_date", req.RecordDate)
	if err != nil {
		return err
	}
	rec := HealthRecord{
		UserID:      req.UserID,
		RecordType:  req.RecordType,
		RecordDate:  date,
		Description: req.Description,
		Results:     req.Results,
	}
	if err := h.svc.AddHealthRecord(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListReminders(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListUpcomingReminders(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load reminders")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SetReminder(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req reminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ReminderDate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reminder_date is required")
	}
	date, err := parseDate("reminder_date", req.ReminderDate)
	if err != nil {
		return err
	}
	r := Reminder{
		UserID:            uid,
		ReminderType:      req.ReminderType,
		ReminderDate:      date,
		ReminderTime:      req.ReminderTime,
		Description:       req.Description,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
	}
	if err := h.svc.SetReminder(c.Request().Context(), &r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) DismissReminder(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DismissReminder(c.Request().Context(), uid, id); err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not dismiss reminder")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPostCare(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListPostCareInstructions(c.Request().Context(), uid, c.QueryParam("procedure"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load post-care instructions")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddPostCare(c echo.Context) error {
	var req postCareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate("instruction_date", req.InstructionDate)
	if err != nil {
		return err
	}
	p := PostCareInstruction{
		UserID:          req.UserID,
		ProcedureType:   req.ProcedureType,
		Instructions:    req.Instructions,
		InstructionDate: date,
	}
	if err := h.svc.AddPostCareInstructions(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}
