package gamification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/swasthya/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns the PostgreSQL-backed ledger repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) AddEntry(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO points_entry (id, actor_id, activity, points)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		e.ID, e.ActorID, e.Activity, e.Points,
	).Scan(&e.CreatedAt)
}

func (r *repoPG) Breakdown(ctx context.Context, actorID uuid.UUID) (map[string]int, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT activity, SUM(points) FROM points_entry
		WHERE actor_id = $1 GROUP BY activity`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var activity string
		var points int
		if err := rows.Scan(&activity, &points); err != nil {
			return nil, err
		}
		breakdown[activity] = points
	}
	return breakdown, rows.Err()
}

func (r *repoPG) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT actor_id, SUM(points) AS total FROM points_entry
		GROUP BY actor_id ORDER BY total DESC, actor_id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []*LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ActorID, &e.Points); err != nil {
			return nil, err
		}
		board = append(board, &e)
	}
	return board, rows.Err()
}
