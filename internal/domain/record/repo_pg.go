package record

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

// NewRepo returns the PostgreSQL-backed record repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const recordColumns = `id, patient_id, doctor_id, record_type, title, details,
	diagnosis, prescription, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO medical_record (
			id, patient_id, doctor_id, record_type, title, details,
			diagnosis, prescription
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.RecordType, rec.Title,
		rec.Details, rec.Diagnosis, rec.Prescription,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM medical_record WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE medical_record SET
			record_type = $2, title = $3, details = $4,
			diagnosis = $5, prescription = $6, updated_at = NOW()
		WHERE id = $1`,
		rec.ID, rec.RecordType, rec.Title, rec.Details, rec.Diagnosis, rec.Prescription,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	q := db.From(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_record WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+recordColumns+` FROM medical_record
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.RecordType, &rec.Title,
		&rec.Details, &rec.Diagnosis, &rec.Prescription, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// -- Consent Repository --

type consentRepoPG struct {
	pool *pgxpool.Pool
}

// NewConsentRepo returns the PostgreSQL-backed consent repository.
func NewConsentRepo(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

func (r *consentRepoPG) Upsert(ctx context.Context, g *ConsentGrant) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.Active = true
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO consent_grant (id, patient_id, doctor_id, active, expires_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (patient_id, doctor_id) DO UPDATE
		SET active = TRUE, expires_at = EXCLUDED.expires_at, revoked_at = NULL`,
		g.ID, g.PatientID, g.DoctorID, g.ExpiresAt,
	)
	return err
}

func (r *consentRepoPG) Revoke(ctx context.Context, patientID, doctorID uuid.UUID) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE consent_grant SET active = FALSE, revoked_at = NOW()
		WHERE patient_id = $1 AND doctor_id = $2 AND active`,
		patientID, doctorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *consentRepoPG) ActiveGrant(ctx context.Context, patientID, doctorID uuid.UUID) (*ConsentGrant, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, active, expires_at, created_at, revoked_at
		FROM consent_grant
		WHERE patient_id = $1 AND doctor_id = $2 AND active
		  AND (expires_at IS NULL OR expires_at > NOW())`,
		patientID, doctorID,
	)
	return scanGrant(row)
}

func (r *consentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ConsentGrant, error) {
	return r.list(ctx, `patient_id`, patientID)
}

func (r *consentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ConsentGrant, error) {
	return r.list(ctx, `doctor_id`, doctorID)
}

func (r *consentRepoPG) list(ctx context.Context, column string, id uuid.UUID) ([]*ConsentGrant, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, doctor_id, active, expires_at, created_at, revoked_at
		FROM consent_grant WHERE `+column+` = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*ConsentGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func scanGrant(row pgx.Row) (*ConsentGrant, error) {
	var g ConsentGrant
	err := row.Scan(&g.ID, &g.PatientID, &g.DoctorID, &g.Active, &g.ExpiresAt, &g.CreatedAt, &g.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
