package outbreak

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows report listings. Zero values match everything.
type Filter struct {
	Disease string
	Region  string
	Status  Status
}

// Repository persists outbreak reports.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// UpdateCounts rewrites the case and death counts and the status.
	UpdateCounts(ctx context.Context, id uuid.UUID, cases, deaths int, status Status) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error)
	// SummaryByRegion totals cases, deaths, and report counts per region for
	// one disease, ordered by cases descending.
	SummaryByRegion(ctx context.Context, disease string) ([]*RegionSummary, error)
}
