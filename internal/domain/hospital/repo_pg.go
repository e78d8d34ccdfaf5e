package hospital

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya/swasthya/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo returns the PostgreSQL-backed hospital repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const hospitalColumns = `id, name, region, district, state, address, phone,
	active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO hospital (id, name, region, district, state, address, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.Name, h.Region, h.District, h.State, h.Address, h.Phone, h.Active,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+hospitalColumns+` FROM hospital WHERE id = $1`, id)
	return scanHospital(row)
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE hospital SET name = $2, region = $3, district = $4, state = $5,
			address = $6, phone = $7, active = $8, updated_at = NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Region, h.District, h.State, h.Address, h.Phone, h.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, region, district string, limit, offset int) ([]*Hospital, int, error) {
	q := db.From(ctx, r.pool)

	where := `($1 = '' OR region = $1) AND ($2 = '' OR district = $2)`
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM hospital WHERE `+where, region, district).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+hospitalColumns+` FROM hospital
		WHERE `+where+` ORDER BY name LIMIT $3 OFFSET $4`,
		region, district, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hospitals []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, total, rows.Err()
}

func (r *repoPG) UpsertResource(ctx context.Context, res *Resource) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	return db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO hospital_resource (id, hospital_id, kind, available, capacity, threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (hospital_id, kind) DO UPDATE SET
			available = EXCLUDED.available,
			capacity = EXCLUDED.capacity,
			threshold = EXCLUDED.threshold,
			updated_at = NOW()
		RETURNING id, updated_at`,
		res.ID, res.HospitalID, res.Kind, res.Available, res.Capacity, res.Threshold,
	).Scan(&res.ID, &res.UpdatedAt)
}

func (r *repoPG) ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, hospital_id, kind, available, capacity, threshold, updated_at
		FROM hospital_resource WHERE hospital_id = $1 ORDER BY kind`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.HospitalID, &res.Kind,
			&res.Available, &res.Capacity, &res.Threshold, &res.UpdatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, &res)
	}
	return resources, rows.Err()
}

const campColumns = `id, name, region, district, location, services,
	starts_at, ends_at, created_by, created_at`

func (r *repoPG) CreateCamp(ctx context.Context, c *Camp) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO health_camp (id, name, region, district, location, services, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Region, c.District, c.Location, c.Services, c.StartsAt, c.EndsAt, c.CreatedBy,
	)
	return err
}

func (r *repoPG) GetCamp(ctx context.Context, id uuid.UUID) (*Camp, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+campColumns+` FROM health_camp WHERE id = $1`, id)
	return scanCamp(row)
}

func (r *repoPG) ListCamps(ctx context.Context, region string, from, to time.Time, limit, offset int) ([]*Camp, int, error) {
	q := db.From(ctx, r.pool)

	where := `($1 = '' OR region = $1) AND ends_at >= $2 AND starts_at <= $3`
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM health_camp WHERE `+where, region, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+campColumns+` FROM health_camp
		WHERE `+where+` ORDER BY starts_at LIMIT $4 OFFSET $5`,
		region, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var camps []*Camp
	for rows.Next() {
		c, err := scanCamp(rows)
		if err != nil {
			return nil, 0, err
		}
		camps = append(camps, c)
	}
	return camps, total, rows.Err()
}

func (r *repoPG) AddAttendee(ctx context.Context, campID, patientID uuid.UUID) error {
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO camp_attendee (camp_id, patient_id) VALUES ($1, $2)`,
		campID, patientID,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) CountAttendees(ctx context.Context, campID uuid.UUID) (int, error) {
	var n int
	err := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM camp_attendee WHERE camp_id = $1`, campID).Scan(&n)
	return n, err
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(
		&h.ID, &h.Name, &h.Region, &h.District, &h.State, &h.Address, &h.Phone,
		&h.Active, &h.CreatedAt, &h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanCamp(row pgx.Row) (*Camp, error) {
	var c Camp
	err := row.Scan(
		&c.ID, &c.Name, &c.Region, &c.District, &c.Location, &c.Services,
		&c.StartsAt, &c.EndsAt, &c.CreatedBy, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
