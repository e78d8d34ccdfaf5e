// Package auth carries the request-side half of the session lifecycle:
// password hashing, the bearer-token session middleware, and the role gate.
// Token minting lives in internal/platform/token; credential storage lives
// in internal/domain/account.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swasthya/swasthya/internal/platform/token"
)

type contextKey string

const (
	ActorIDKey   contextKey = "actor_id"
	ActorTypeKey contextKey = "actor_type"
	ActorRoleKey contextKey = "actor_role"
)

// SessionActor is the minimal view of an actor record the middleware needs:
// identity, role, and liveness.
type SessionActor struct {
	ID     uuid.UUID
	Type   string
	Role   string
	Active bool
}

// ActorResolver looks up an actor record by its type tag and id. Implemented
// by the account service; the indirection keeps this package free of a
// dependency on domain storage.
type ActorResolver interface {
	ResolveActor(ctx context.Context, actorType string, id uuid.UUID) (*SessionActor, error)
}

// SessionMiddleware resolves the bearer access token on each request to a
// live actor record and attaches identity to the request context.
//
// Per-request state machine: no token → 401; token present → decoded
// (signature+expiry) or 401; decoded → actor looked up by the embedded type
// tag (a token without one never decodes); actor missing → 401; inactive →
// 401; active → proceed with actor id/type/role on the context.
func SessionMiddleware(issuer *token.Issuer, resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.VerifyAccess(parts[1])
			if err != nil {
				if err == token.ErrTokenExpired {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actor, err := resolver.ResolveActor(c.Request().Context(), claims.ActorType, claims.ActorID)
			if err != nil || actor == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "account not found")
			}
			if !actor.Active {
				return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ActorIDKey, actor.ID)
			ctx = context.WithValue(ctx, ActorTypeKey, actor.Type)
			ctx = context.WithValue(ctx, ActorRoleKey, actor.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ActorIDFromContext returns the authenticated actor id, or uuid.Nil.
func ActorIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ActorIDKey).(uuid.UUID)
	return id
}

// ActorTypeFromContext returns the authenticated actor's type tag.
func ActorTypeFromContext(ctx context.Context) string {
	t, _ := ctx.Value(ActorTypeKey).(string)
	return t
}

// RoleFromContext returns the authenticated actor's role.
func RoleFromContext(ctx context.Context) string {
	r, _ := ctx.Value(ActorRoleKey).(string)
	return r
}
