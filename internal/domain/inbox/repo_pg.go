package inbox

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/swasthya/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns the PostgreSQL-backed inbox repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO inbox_message (id, actor_id, kind, title, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.ActorID, m.Kind, m.Title, m.Body,
	).Scan(&m.CreatedAt)
}

func (r *repoPG) ListByActor(ctx context.Context, actorID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Message, int, error) {
	q := db.From(ctx, r.pool)

	where := `actor_id = $1 AND (NOT $2 OR NOT read)`
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM inbox_message WHERE `+where, actorID, unreadOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, actor_id, kind, title, body, read, created_at
		FROM inbox_message WHERE `+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		actorID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ActorID, &m.Kind, &m.Title, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, total, rows.Err()
}

func (r *repoPG) CountUnread(ctx context.Context, actorID uuid.UUID) (int, error) {
	var n int
	err := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM inbox_message WHERE actor_id = $1 AND NOT read`, actorID).Scan(&n)
	return n, err
}

func (r *repoPG) MarkRead(ctx context.Context, actorID, id uuid.UUID) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE inbox_message SET read = TRUE WHERE id = $1 AND actor_id = $2`, id, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error) {
	tag, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE inbox_message SET read = TRUE WHERE actor_id = $1 AND NOT read`, actorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
