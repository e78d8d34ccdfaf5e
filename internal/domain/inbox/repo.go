package inbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists inbox messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	ListByActor(ctx context.Context, actorID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Message, int, error)
	CountUnread(ctx context.Context, actorID uuid.UUID) (int, error)
	// MarkRead flips one message for its owner; a message belonging to a
	// different actor reports ErrNotFound.
	MarkRead(ctx context.Context, actorID, id uuid.UUID) error
	// MarkAllRead returns how many messages were flipped.
	MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error)
}
