package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/swasthya/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns the PostgreSQL-backed account repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const actorColumns = `id, actor_type, name, email, mobile, health_id,
	password_hash, role, active, refresh_token, last_login,
	date_of_birth, gender, blood_group,
	specialization, license_number, hospital_id,
	region, district, state, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Actor) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO account (
			id, actor_type, name, email, mobile, health_id,
			password_hash, role, active,
			date_of_birth, gender, blood_group,
			specialization, license_number, hospital_id,
			region, district, state
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17, $18
		)`,
		a.ID, a.ActorType, a.Name, a.Email, a.Mobile, a.HealthID,
		a.PasswordHash, a.Role, a.Active,
		a.DateOfBirth, a.Gender, a.BloodGroup,
		a.Specialization, a.LicenseNumber, a.HospitalID,
		a.Region, a.District, a.State,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, actorType ActorType, id uuid.UUID) (*Actor, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+actorColumns+` FROM account WHERE id = $1 AND actor_type = $2`, id, actorType)
	return scanActor(row)
}

func (r *repoPG) GetAnyByID(ctx context.Context, id uuid.UUID) (*Actor, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+actorColumns+` FROM account WHERE id = $1`, id)
	return scanActor(row)
}

func (r *repoPG) GetByIdentifier(ctx context.Context, actorType ActorType, identifier string) (*Actor, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT `+actorColumns+` FROM account
		WHERE actor_type = $1 AND (mobile = $2 OR email = $2 OR health_id = $2)`,
		actorType, identifier)
	return scanActor(row)
}

func (r *repoPG) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE account SET refresh_token = $2, updated_at = NOW() WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE account SET refresh_token = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2`, id, old, next)
	if err != nil {
		return err
	}
	// Zero rows means the stored token moved on since this one was issued.
	if tag.RowsAffected() == 0 {
		return ErrRefreshMismatch
	}
	return nil
}

func (r *repoPG) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE account SET last_login = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE account SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, actorType ActorType, limit, offset int) ([]*Actor, int, error) {
	q := db.From(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM account WHERE actor_type = $1`, actorType).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+actorColumns+` FROM account
		WHERE actor_type = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		actorType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var actors []*Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, 0, err
		}
		actors = append(actors, a)
	}
	return actors, total, rows.Err()
}

func scanActor(row pgx.Row) (*Actor, error) {
	var (
		a      Actor
		email  *string
		mobile *string
		health *string
	)
	err := row.Scan(
		&a.ID, &a.ActorType, &a.Name, &email, &mobile, &health,
		&a.PasswordHash, &a.Role, &a.Active, &a.RefreshToken, &a.LastLogin,
		&a.DateOfBirth, &a.Gender, &a.BloodGroup,
		&a.Specialization, &a.LicenseNumber, &a.HospitalID,
		&a.Region, &a.District, &a.State, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if email != nil {
		a.Email = *email
	}
	if mobile != nil {
		a.Mobile = *mobile
	}
	if health != nil {
		a.HealthID = *health
	}
	return &a, nil
}
