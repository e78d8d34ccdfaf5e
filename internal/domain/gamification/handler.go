package gamification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swasthya/swasthya/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the gamification surface on a session-protected group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/gamification/me", h.Me)
	g.GET("/gamification/leaderboard", h.Leaderboard)
}

func (h *Handler) Me(c echo.Context) error {
	actorID := auth.ActorIDFromContext(c.Request().Context())
	summary, err := h.svc.Summary(c.Request().Context(), actorID)
	if err != nil {
		return translateGamificationError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	board, err := h.svc.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return translateGamificationError(err)
	}
	return c.JSON(http.StatusOK, board)
}

func translateGamificationError(err error) error {
	if errors.Is(err, ErrUnknownActivity) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
