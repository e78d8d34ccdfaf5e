package gamification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Award credits the points for one activity to an actor. It satisfies the
// points-awarder hooks the other domains expose.
func (s *Service) Award(ctx context.Context, actorID uuid.UUID, activity string) error {
	points, ok := activityPoints[activity]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActivity, activity)
	}
	e := &Entry{ActorID: actorID, Activity: activity, Points: points}
	if err := s.repo.AddEntry(ctx, e); err != nil {
		return err
	}
	s.logger.Debug().
		Str("actor_id", actorID.String()).
		Str("activity", activity).
		Int("points", points).
		Msg("points credited")
	return nil
}

// Summary returns one actor's total, badge, and per-activity breakdown.
func (s *Service) Summary(ctx context.Context, actorID uuid.UUID) (*Summary, error) {
	breakdown, err := s.repo.Breakdown(ctx, actorID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, points := range breakdown {
		total += points
	}
	return &Summary{
		ActorID:    actorID,
		Points:     total,
		Badge:      BadgeFor(total),
		Activities: breakdown,
	}, nil
}

// Leaderboard returns the top actors by points with ranks assigned.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	board, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i, e := range board {
		e.Rank = i + 1
		e.Badge = BadgeFor(e.Points)
	}
	return board, nil
}
