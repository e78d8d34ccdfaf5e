package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Caller identifies the authenticated actor performing an operation.
type Caller struct {
	ID   uuid.UUID
	Role string
}

// PointsAwarder credits gamification points for record activity. Optional and
// best-effort.
type PointsAwarder interface {
	Award(ctx context.Context, actorID uuid.UUID, activity string) error
}

type Service struct {
	records  Repository
	consents ConsentRepository
	points   PointsAwarder
	now      func() time.Time
}

func NewService(records Repository, consents ConsentRepository) *Service {
	return &Service{records: records, consents: consents, now: time.Now}
}

// SetPointsAwarder attaches an optional gamification hook.
func (s *Service) SetPointsAwarder(p PointsAwarder) {
	s.points = p
}

// CreateRecord stores a new record. Only a doctor holding an active grant
// from the owning patient may write.
func (s *Service) CreateRecord(ctx context.Context, caller Caller, rec *Record) error {
	if caller.Role != "doctor" {
		return ErrForbidden
	}
	if rec.PatientID == uuid.Nil || rec.Title == "" {
		return fmt.Errorf("%w: patient_id and title are required", ErrValidation)
	}
	if err := s.requireConsent(ctx, rec.PatientID, caller.ID); err != nil {
		return err
	}
	rec.DoctorID = caller.ID
	return s.records.Create(ctx, rec)
}

// UpdateRecord rewrites a record's clinical fields. Only the authoring doctor
// may update, and only while consent is still active.
func (s *Service) UpdateRecord(ctx context.Context, caller Caller, rec *Record) error {
	existing, err := s.records.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	if caller.Role != "doctor" || existing.DoctorID != caller.ID {
		return ErrForbidden
	}
	if err := s.requireConsent(ctx, existing.PatientID, caller.ID); err != nil {
		return err
	}
	rec.PatientID = existing.PatientID
	rec.DoctorID = existing.DoctorID
	return s.records.Update(ctx, rec)
}

// GetRecord returns one record, applying the read policy.
func (s *Service) GetRecord(ctx context.Context, caller Caller, id uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, caller, rec.PatientID); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListPatientRecords returns a page of a patient's records under the read
// policy: patients read their own, doctors read with an active grant.
func (s *Service) ListPatientRecords(ctx context.Context, caller Caller, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	if err := s.authorizeRead(ctx, caller, patientID); err != nil {
		return nil, 0, err
	}
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) authorizeRead(ctx context.Context, caller Caller, patientID uuid.UUID) error {
	switch caller.Role {
	case "patient":
		if caller.ID != patientID {
			return ErrForbidden
		}
		return nil
	case "doctor":
		return s.requireConsent(ctx, patientID, caller.ID)
	default:
		return ErrForbidden
	}
}

func (s *Service) requireConsent(ctx context.Context, patientID, doctorID uuid.UUID) error {
	g, err := s.consents.ActiveGrant(ctx, patientID, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNoConsent
		}
		return err
	}
	if g.Expired(s.now()) {
		return ErrNoConsent
	}
	return nil
}

// GrantConsent lets a patient grant a doctor access to their records.
func (s *Service) GrantConsent(ctx context.Context, caller Caller, doctorID uuid.UUID, expiresAt *time.Time) (*ConsentGrant, error) {
	if caller.Role != "patient" {
		return nil, ErrForbidden
	}
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	g := &ConsentGrant{PatientID: caller.ID, DoctorID: doctorID, ExpiresAt: expiresAt}
	if err := s.consents.Upsert(ctx, g); err != nil {
		return nil, err
	}
	if s.points != nil {
		_ = s.points.Award(ctx, caller.ID, "consent_granted")
	}
	return g, nil
}

// RevokeConsent lets a patient revoke a doctor's access.
func (s *Service) RevokeConsent(ctx context.Context, caller Caller, doctorID uuid.UUID) error {
	if caller.Role != "patient" {
		return ErrForbidden
	}
	return s.consents.Revoke(ctx, caller.ID, doctorID)
}

// ListConsents returns the caller's grants: a patient sees grants they gave,
// a doctor sees grants they hold.
func (s *Service) ListConsents(ctx context.Context, caller Caller) ([]*ConsentGrant, error) {
	switch caller.Role {
	case "patient":
		return s.consents.ListByPatient(ctx, caller.ID)
	case "doctor":
		return s.consents.ListByDoctor(ctx, caller.ID)
	default:
		return nil, ErrForbidden
	}
}
