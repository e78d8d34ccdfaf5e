package appointment

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

// NewRepo returns the PostgreSQL-backed appointment repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, hospital_id,
	starts_at, ends_at, status, reason, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointment (
			id, patient_id, doctor_id, hospital_id, starts_at, ends_at, status, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.StartsAt, a.EndsAt, a.Status, a.Reason,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointment WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	q := db.From(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+` FROM appointment
		WHERE `+column+` = $1 ORDER BY starts_at DESC LIMIT $2 OFFSET $3`,
		id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *repoPG) CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	var n int
	err := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE doctor_id = $1 AND status <> 'cancelled'
		  AND starts_at < $3 AND $2 < ends_at`,
		doctorID, start, end).Scan(&n)
	return n, err
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
