package hospital

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists hospitals, resource levels, and camps.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	List(ctx context.Context, region, district string, limit, offset int) ([]*Hospital, int, error)

	// UpsertResource writes one level row keyed on (hospital_id, kind).
	UpsertResource(ctx context.Context, r *Resource) error
	ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error)

	CreateCamp(ctx context.Context, c *Camp) error
	GetCamp(ctx context.Context, id uuid.UUID) (*Camp, error)
	ListCamps(ctx context.Context, region string, from, to time.Time, limit, offset int) ([]*Camp, int, error)
	// AddAttendee registers a patient for a camp; duplicate registrations
	// return ErrDuplicate.
	AddAttendee(ctx context.Context, campID, patientID uuid.UUID) error
	CountAttendees(ctx context.Context, campID uuid.UUID) (int, error)
}
