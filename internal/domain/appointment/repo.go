package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// CountOverlapping counts the doctor's non-cancelled appointments that
	// intersect the half-open window [start, end).
	CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error)
}
