package clinic

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	dir *Directory
}

func NewHandler(dir *Directory) *Handler {
	return &Handler{dir: dir}
}

// RegisterRoutes mounts the public clinic endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinic", h.GetInfo)
	api.GET("/clinic/services", h.ListServices)
}

func (h *Handler) GetInfo(c echo.Context) error {
	info, err := h.dir.Info(c.Request().Context())
	if err != nil {
		if errors.Is(err, ErrInfoMissing) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load clinic information")
	}
	return c.JSON(http.StatusOK, info)
}

// ListServices filters by ?category= or looks up one service by ?name=.
func (h *Handler) ListServices(c echo.Context) error {
	ctx := c.Request().Context()
	if name := c.QueryParam("name"); name != "" {
		svc, err := h.dir.FindService(ctx, name)
		if errors.Is(err, ErrServiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not load clinic services")
		}
		return c.JSON(http.StatusOK, []*Service{svc})
	}
	items, err := h.dir.ListServices(ctx, c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load clinic services")
	}
	return c.JSON(http.StatusOK, items)
}
