package billing

import (
	"errors"
	"net/http"

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
	api.GET("/bills", h.ListBills)
	api.GET("/bills/outstanding", h.ListOutstanding)
	api.POST("/bills/:id/pay", h.Pay)
	api.POST("/bills/:id/plan", h.SetupPlan)
	api.GET("/payments/:id/receipt", h.GetReceipt)
}

type payRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"payment_method"`
}

type planRequest struct {
	Installments int `json:"installments"`
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
	case errors.Is(err, ErrBillNotFound), errors.Is(err, ErrPaymentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBillNotPending), errors.Is(err, ErrPlanExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientAmount), errors.Is(err, ErrInvalidInstallments), errors.Is(err, ErrInvalidMethod):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "billing request failed")
}

func (h *Handler) ListBills(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	bills, err := h.svc.ListBills(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(bills, pagination.FromContext(c)))
}

func (h *Handler) ListOutstanding(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.svc.ListOutstanding(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Pay(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req payRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.svc.ProcessPayment(c.Request().Context(), uid, id, req.Amount, req.Method)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) SetupPlan(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	plan, err := h.svc.SetupPaymentPlan(c.Request().Context(), uid, id, req.Installments)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *Handler) GetReceipt(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	receipt, err := h.svc.GetReceipt(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, receipt)
}
