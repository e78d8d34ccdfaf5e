package outbreak

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

// NewRepo returns the PostgreSQL-backed outbreak repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const reportColumns = `id, disease, region, district, cases, deaths, status,
	notes, reported_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := db.From(ctx, r.pool).Exec(ctx, `
		INSERT INTO outbreak_report (id, disease, region, district, cases, deaths, status, notes, reported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rep.ID, rep.Disease, rep.Region, rep.District, rep.Cases, rep.Deaths, rep.Status, rep.Notes, rep.ReportedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx,
		`SELECT `+reportColumns+` FROM outbreak_report WHERE id = $1`, id)
	return scanReport(row)
}

func (r *repoPG) UpdateCounts(ctx context.Context, id uuid.UUID, cases, deaths int, status Status) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE outbreak_report SET cases = $2, deaths = $3, status = $4, updated_at = NOW()
		WHERE id = $1`, id, cases, deaths, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error) {
	q := db.From(ctx, r.pool)

	where := `($1 = '' OR disease = $1) AND ($2 = '' OR region = $2) AND ($3 = '' OR status = $3)`
	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbreak_report WHERE `+where,
		f.Disease, f.Region, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+reportColumns+` FROM outbreak_report
		WHERE `+where+` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		f.Disease, f.Region, string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}

func (r *repoPG) SummaryByRegion(ctx context.Context, disease string) ([]*RegionSummary, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT region, COUNT(*), COALESCE(SUM(cases), 0), COALESCE(SUM(deaths), 0)
		FROM outbreak_report WHERE disease = $1
		GROUP BY region ORDER BY SUM(cases) DESC`, disease)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*RegionSummary
	for rows.Next() {
		var s RegionSummary
		if err := rows.Scan(&s.Region, &s.Reports, &s.Cases, &s.Deaths); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID, &rep.Disease, &rep.Region, &rep.District, &rep.Cases, &rep.Deaths,
		&rep.Status, &rep.Notes, &rep.ReportedBy, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
