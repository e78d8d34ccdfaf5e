package record

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

// RegisterRoutes mounts the record surface on a session-protected group. Role
// checks are enforced in the service, which knows the consent state.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/records", h.Create)
	g.GET("/records/:id", h.Get)
	g.PUT("/records/:id", h.Update)
	g.GET("/patients/:patient_id/records", h.ListForPatient)

	g.POST("/consents", h.Grant)
	g.DELETE("/consents/:doctor_id", h.Revoke)
	g.GET("/consents", h.List)
}

func callerFrom(c echo.Context) Caller {
	ctx := c.Request().Context()
	return Caller{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

type recordRequest struct {
	PatientID    uuid.UUID `json:"patient_id"`
	RecordType   string    `json:"record_type"`
	Title        string    `json:"title"`
	Details      string    `json:"details"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription string    `json:"prescription"`
}

func (h *Handler) Create(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec := &Record{
		PatientID:    req.PatientID,
		RecordType:   req.RecordType,
		Title:        req.Title,
		Details:      req.Details,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	}
	if err := h.svc.CreateRecord(c.Request().Context(), callerFrom(c), rec); err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec := &Record{
		ID:           id,
		RecordType:   req.RecordType,
		Title:        req.Title,
		Details:      req.Details,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	}
	if err := h.svc.UpdateRecord(c.Request().Context(), callerFrom(c), rec); err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	p := pagination.FromContext(c)
	records, total, err := h.svc.ListPatientRecords(c.Request().Context(), callerFrom(c), patientID, p.Limit, p.Offset)
	if err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p.Limit, p.Offset))
}

type grantRequest struct {
	DoctorID  uuid.UUID  `json:"doctor_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) Grant(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g, err := h.svc.GrantConsent(c.Request().Context(), callerFrom(c), req.DoctorID, req.ExpiresAt)
	if err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) Revoke(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	if err := h.svc.RevokeConsent(c.Request().Context(), callerFrom(c), doctorID); err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "consent revoked"})
}

func (h *Handler) List(c echo.Context) error {
	grants, err := h.svc.ListConsents(c.Request().Context(), callerFrom(c))
	if err != nil {
		return translateRecordError(err)
	}
	return c.JSON(http.StatusOK, grants)
}

func translateRecordError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not permitted")
	case errors.Is(err, ErrNoConsent):
		return echo.NewHTTPError(http.StatusForbidden, "patient has not granted access")
	}
	if errors.Is(err, ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
