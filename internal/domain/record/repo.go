package record

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for medical records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error)
}

// ConsentRepository defines persistence for consent grants.
type ConsentRepository interface {
	// Upsert creates the grant or reactivates a revoked one for the same
	// patient/doctor pair.
	Upsert(ctx context.Context, g *ConsentGrant) error
	Revoke(ctx context.Context, patientID, doctorID uuid.UUID) error
	// ActiveGrant returns the current active, unexpired grant, or ErrNotFound.
	ActiveGrant(ctx context.Context, patientID, doctorID uuid.UUID) (*ConsentGrant, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ConsentGrant, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ConsentGrant, error)
}
