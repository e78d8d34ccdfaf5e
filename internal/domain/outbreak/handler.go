package outbreak

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swasthya/swasthya/internal/platform/auth"
	"github.com/swasthya/swasthya/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the outbreak surface on a session-protected group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/outbreaks", h.Report)
	g.GET("/outbreaks", h.List)
	g.GET("/outbreaks/summary", h.Summary)
	g.GET("/outbreaks/:id", h.Get)
	g.PUT("/outbreaks/:id", h.UpdateCounts)
}

func callerFrom(c echo.Context) Caller {
	ctx := c.Request().Context()
	return Caller{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

type reportRequest struct {
	Disease  string `json:"disease"`
	Region   string `json:"region"`
	District string `json:"district"`
	Cases    int    `json:"cases"`
	Deaths   int    `json:"deaths"`
	Notes    string `json:"notes"`
}

func (h *Handler) Report(c echo.Context) error {
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rep := &Report{
		Disease: req.Disease, Region: req.Region, District: req.District,
		Cases: req.Cases, Deaths: req.Deaths, Notes: req.Notes,
	}
	if err := h.svc.Report(c.Request().Context(), callerFrom(c), rep); err != nil {
		return translateOutbreakError(err)
	}
	return c.JSON(http.StatusCreated, rep)
}

type updateCountsRequest struct {
	Cases  int    `json:"cases"`
	Deaths int    `json:"deaths"`
	Status Status `json:"status"`
}

func (h *Handler) UpdateCounts(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateCountsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rep, err := h.svc.UpdateCounts(c.Request().Context(), callerFrom(c), id, req.Cases, req.Deaths, req.Status)
	if err != nil {
		return translateOutbreakError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return translateOutbreakError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	f := Filter{
		Disease: c.QueryParam("disease"),
		Region:  c.QueryParam("region"),
		Status:  Status(c.QueryParam("status")),
	}
	reports, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return translateOutbreakError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, p.Limit, p.Offset))
}

func (h *Handler) Summary(c echo.Context) error {
	summaries, err := h.svc.Summary(c.Request().Context(), c.QueryParam("disease"))
	if err != nil {
		return translateOutbreakError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func translateOutbreakError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not permitted")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
