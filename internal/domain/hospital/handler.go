package hospital

import (
	"errors"
	"net/http"
	"time"

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

// RegisterRoutes mounts the hospital surface on a session-protected group.
// Mutations are gated per operation inside the service.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/hospitals", h.CreateHospital)
	g.GET("/hospitals", h.ListHospitals)
	g.GET("/hospitals/:id", h.GetHospital)
	g.PUT("/hospitals/:id", h.UpdateHospital)
	g.PUT("/hospitals/:id/resources", h.SetResourceLevel)
	g.GET("/hospitals/:id/resources", h.ListResources)

	g.POST("/camps", h.AnnounceCamp)
	g.GET("/camps", h.ListCamps)
	g.GET("/camps/:id", h.GetCamp)
	g.POST("/camps/:id/attend", h.AttendCamp)
}

func callerFrom(c echo.Context) Caller {
	ctx := c.Request().Context()
	return Caller{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

type hospitalRequest struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	District string `json:"district"`
	State    string `json:"state"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`
}

func (h *Handler) CreateHospital(c echo.Context) error {
	var req hospitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	hosp := &Hospital{
		Name: req.Name, Region: req.Region, District: req.District,
		State: req.State, Address: req.Address, Phone: req.Phone,
	}
	if err := h.svc.CreateHospital(c.Request().Context(), callerFrom(c), hosp); err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) UpdateHospital(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return translateHospitalError(err)
	}

	var req hospitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	existing.Name = req.Name
	existing.Region = req.Region
	existing.District = req.District
	existing.State = req.State
	existing.Address = req.Address
	existing.Phone = req.Phone
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := h.svc.UpdateHospital(c.Request().Context(), callerFrom(c), existing); err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, existing)
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	p := pagination.FromContext(c)
	hospitals, total, err := h.svc.ListHospitals(c.Request().Context(),
		c.QueryParam("region"), c.QueryParam("district"), p.Limit, p.Offset)
	if err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(hospitals, total, p.Limit, p.Offset))
}

type resourceRequest struct {
	Kind      string `json:"kind"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
	Threshold int    `json:"threshold"`
}

func (h *Handler) SetResourceLevel(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req resourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := &Resource{
		HospitalID: hospitalID,
		Kind:       req.Kind,
		Available:  req.Available,
		Capacity:   req.Capacity,
		Threshold:  req.Threshold,
	}
	if err := h.svc.SetResourceLevel(c.Request().Context(), callerFrom(c), res); err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListResources(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	resources, err := h.svc.ListResources(c.Request().Context(), hospitalID)
	if err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, resources)
}

type campRequest struct {
	Name     string    `json:"name"`
	Region   string    `json:"region"`
	District string    `json:"district"`
	Location string    `json:"location"`
	Services string    `json:"services"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (h *Handler) AnnounceCamp(c echo.Context) error {
	var req campRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	camp := &Camp{
		Name: req.Name, Region: req.Region, District: req.District,
		Location: req.Location, Services: req.Services,
		StartsAt: req.StartsAt, EndsAt: req.EndsAt,
	}
	if err := h.svc.AnnounceCamp(c.Request().Context(), callerFrom(c), camp); err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusCreated, camp)
}

func (h *Handler) GetCamp(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	camp, err := h.svc.GetCamp(c.Request().Context(), id)
	if err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, camp)
}

func (h *Handler) ListCamps(c echo.Context) error {
	p := pagination.FromContext(c)
	from, to, err := campWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}
	camps, total, err := h.svc.ListCamps(c.Request().Context(),
		c.QueryParam("region"), from, to, p.Limit, p.Offset)
	if err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(camps, total, p.Limit, p.Offset))
}

func (h *Handler) AttendCamp(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.AttendCamp(c.Request().Context(), callerFrom(c), id); err != nil {
		return translateHospitalError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "registered"})
}

// campWindow parses optional from/to query params as RFC 3339 timestamps.
func campWindow(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		to = t
	}
	return from, to, nil
}

func translateHospitalError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not permitted")
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusBadRequest, "already registered")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
