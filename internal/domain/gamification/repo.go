package gamification

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the points ledger.
type Repository interface {
	AddEntry(ctx context.Context, e *Entry) error
	// Breakdown returns per-activity point totals for one actor.
	Breakdown(ctx context.Context, actorID uuid.UUID) (map[string]int, error)
	// Leaderboard returns the top actors by total points.
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
}
