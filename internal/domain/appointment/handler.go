package appointment

import (
	"context"
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

// RegisterRoutes mounts the appointment surface on a session-protected group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/appointments", h.Book)
	g.GET("/appointments", h.ListMine)
	g.GET("/appointments/:id", h.Get)
	g.POST("/appointments/:id/cancel", h.Cancel)
	g.POST("/appointments/:id/complete", h.Complete)
	g.POST("/appointments/:id/no-show", h.MarkNoShow)
}

func callerFrom(c echo.Context) Caller {
	ctx := c.Request().Context()
	return Caller{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

type bookRequest struct {
	DoctorID   uuid.UUID  `json:"doctor_id"`
	HospitalID *uuid.UUID `json:"hospital_id"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Reason     string     `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a := &Appointment{
		DoctorID:   req.DoctorID,
		HospitalID: req.HospitalID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Reason:     req.Reason,
	}
	if err := h.svc.Book(c.Request().Context(), callerFrom(c), a); err != nil {
		return translateAppointmentError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return translateAppointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListMine(c echo.Context) error {
	p := pagination.FromContext(c)
	appts, total, err := h.svc.ListMine(c.Request().Context(), callerFrom(c), p.Limit, p.Offset)
	if err != nil {
		return translateAppointmentError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, p.Limit, p.Offset))
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	return h.transition(c, h.svc.MarkNoShow)
}

func (h *Handler) transition(c echo.Context, op func(ctx context.Context, caller Caller, id uuid.UUID) (*Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := op(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return translateAppointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func translateAppointmentError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not permitted")
	case errors.Is(err, ErrSlotTaken):
		// Conflicts map to 400 across the platform, not 409.
		return echo.NewHTTPError(http.StatusBadRequest, "doctor is not available in the requested slot")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
