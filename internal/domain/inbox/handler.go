package inbox

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

// RegisterRoutes mounts the inbox surface on a session-protected group. Every
// route operates on the calling actor's own inbox.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/inbox", h.List)
	g.GET("/inbox/unread-count", h.UnreadCount)
	g.POST("/inbox/:id/read", h.MarkRead)
	g.POST("/inbox/read-all", h.MarkAllRead)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	actorID := auth.ActorIDFromContext(c.Request().Context())
	unreadOnly := c.QueryParam("unread") == "true"

	msgs, total, err := h.svc.List(c.Request().Context(), actorID, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(msgs, total, p.Limit, p.Offset))
}

func (h *Handler) UnreadCount(c echo.Context) error {
	actorID := auth.ActorIDFromContext(c.Request().Context())
	n, err := h.svc.UnreadCount(c.Request().Context(), actorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID := auth.ActorIDFromContext(c.Request().Context())
	if err := h.svc.MarkRead(c.Request().Context(), actorID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	actorID := auth.ActorIDFromContext(c.Request().Context())
	n, err := h.svc.MarkAllRead(c.Request().Context(), actorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]int{"marked": n})
}
