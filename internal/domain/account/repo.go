package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for accounts.
type Repository interface {
	Create(ctx context.Context, a *Actor) error
	GetByID(ctx context.Context, actorType ActorType, id uuid.UUID) (*Actor, error)
	// GetAnyByID looks an account up by id alone, across actor types.
	GetAnyByID(ctx context.Context, id uuid.UUID) (*Actor, error)
	// GetByIdentifier looks an account up by mobile, email, or health id
	// within a single actor type.
	GetByIdentifier(ctx context.Context, actorType ActorType, identifier string) (*Actor, error)
	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// A nil token clears it (logout).
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	// RotateRefreshToken replaces the stored refresh token only when the
	// current value equals old. Returns ErrRefreshMismatch otherwise, so a
	// superseded token can never rotate the session again.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, actorType ActorType, limit, offset int) ([]*Actor, int, error)
}
