package account

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

// RegisterRoutes mounts the auth surface. public carries no session
// middleware; protected requires a valid access token.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/:type/register", h.Register)
	public.POST("/auth/:type/login", h.Login)
	public.POST("/auth/:type/refresh-token", h.Refresh)

	protected.GET("/auth/:type/me", h.Me)
	protected.POST("/auth/:type/logout", h.Logout)

	adminGroup := protected.Group("", auth.RequireRole("admin"))
	adminGroup.GET("/actors/:type", h.List)
	adminGroup.POST("/actors/:type", h.Create)
	adminGroup.POST("/actors/:id/deactivate", h.Deactivate)
	adminGroup.POST("/actors/:id/reactivate", h.Reactivate)
}

// registerRequest is the JSON body for register and admin create.
type registerRequest struct {
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Mobile         string     `json:"mobile"`
	HealthID       string     `json:"health_id"`
	Password       string     `json:"password"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         string     `json:"gender"`
	BloodGroup     string     `json:"blood_group"`
	Specialization string     `json:"specialization"`
	LicenseNumber  string     `json:"license_number"`
	HospitalID     *uuid.UUID `json:"hospital_id"`
	Region         string     `json:"region"`
	District       string     `json:"district"`
	State          string     `json:"state"`
}

func (r *registerRequest) toActor() *Actor {
	return &Actor{
		Name:           r.Name,
		Email:          r.Email,
		Mobile:         r.Mobile,
		HealthID:       r.HealthID,
		DateOfBirth:    r.DateOfBirth,
		Gender:         r.Gender,
		BloodGroup:     r.BloodGroup,
		Specialization: r.Specialization,
		LicenseNumber:  r.LicenseNumber,
		HospitalID:     r.HospitalID,
		Region:         r.Region,
		District:       r.District,
		State:          r.State,
	}
}

// sessionResponse is the envelope returned by register, login, and refresh.
type sessionResponse struct {
	User         *Actor `json:"user,omitempty"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Register(c echo.Context) error {
	actorType, ok := ParseActorType(c.Param("type"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown actor type")
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, pair, err := h.svc.Register(c.Request().Context(), actorType, req.toActor(), req.Password)
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{User: a, Token: pair.Access, RefreshToken: pair.Refresh})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r *loginRequest) identifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	if r.Mobile != "" {
		return r.Mobile
	}
	return r.Email
}

func (h *Handler) Login(c echo.Context) error {
	actorType, ok := ParseActorType(c.Param("type"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown actor type")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.identifier() == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identifier and password are required")
	}

	a, pair, err := h.svc.Login(c.Request().Context(), actorType, req.identifier(), req.Password)
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{User: a, Token: pair.Access, RefreshToken: pair.Refresh})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	pair, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Token: pair.Access, RefreshToken: pair.Refresh})
}

func (h *Handler) Me(c echo.Context) error {
	actorType, ok := ParseActorType(c.Param("type"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown actor type")
	}
	if string(actorType) != auth.ActorTypeFromContext(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	a, err := h.svc.Get(c.Request().Context(), actorType, auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), auth.ActorIDFromContext(c.Request().Context())); err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) List(c echo.Context) error {
	actorType, ok := ParseActorType(c.Param("type"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown actor type")
	}
	p := pagination.FromContext(c)
	actors, total, err := h.svc.List(c.Request().Context(), actorType, p.Limit, p.Offset)
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(actors, total, p.Limit, p.Offset))
}

func (h *Handler) Create(c echo.Context) error {
	actorType, ok := ParseActorType(c.Param("type"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown actor type")
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.CreateByAdmin(c.Request().Context(), actorType, req.toActor(), req.Password)
	if err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account deactivated"})
}

func (h *Handler) Reactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Reactivate(c.Request().Context(), id); err != nil {
		return translateAuthError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account reactivated"})
}

// translateAuthError maps service errors to HTTP status. Uniqueness conflicts
// map to 400, matching the platform-wide error taxonomy. Unclassified errors
// become a generic 500 so internal detail never reaches the client.
func translateAuthError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusBadRequest, "account with these details already exists")
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrInactive):
		return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
	case errors.Is(err, ErrRefreshMismatch):
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token is no longer valid")
	case errors.Is(err, ErrRegistrationClosed):
		return echo.NewHTTPError(http.StatusForbidden, "registration is not open for this actor type")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
