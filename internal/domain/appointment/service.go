package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Caller identifies the authenticated actor performing an operation.
type Caller struct {
	ID   uuid.UUID
	Role string
}

// Notifier delivers a message to an actor's feed. Implemented by the inbox
// service; failures are logged and swallowed.
type Notifier interface {
	Notify(ctx context.Context, actorID uuid.UUID, kind, title, body string) error
}

// PointsAwarder credits gamification points for kept appointments.
type PointsAwarder interface {
	Award(ctx context.Context, actorID uuid.UUID, activity string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	points   PointsAwarder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetNotifier attaches the optional best-effort notification sink.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetPointsAwarder attaches an optional gamification hook.
func (s *Service) SetPointsAwarder(p PointsAwarder) {
	s.points = p
}

// Book creates an appointment for the calling patient after the conflict
// check: a doctor cannot hold two overlapping non-cancelled appointments.
func (s *Service) Book(ctx context.Context, caller Caller, a *Appointment) error {
	if caller.Role != "patient" {
		return ErrForbidden
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if a.StartsAt.IsZero() || a.EndsAt.IsZero() || !a.StartsAt.Before(a.EndsAt) {
		return fmt.Errorf("%w: starts_at must precede ends_at", ErrValidation)
	}
	if a.StartsAt.Before(s.now()) {
		return fmt.Errorf("%w: cannot book a slot in the past", ErrValidation)
	}

	overlapping, err := s.repo.CountOverlapping(ctx, a.DoctorID, a.StartsAt, a.EndsAt)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return ErrSlotTaken
	}

	a.PatientID = caller.ID
	a.Status = StatusBooked
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}

	s.notify(ctx, a.PatientID, "appointment.booked", "Appointment confirmed",
		fmt.Sprintf("Your appointment on %s has been booked.", a.StartsAt.Format(time.RFC1123)))
	s.notify(ctx, a.DoctorID, "appointment.booked", "New appointment",
		fmt.Sprintf("A patient booked the %s slot.", a.StartsAt.Format(time.RFC1123)))
	return nil
}

// Cancel cancels a booked appointment. The owning patient or the assigned
// doctor may cancel.
func (s *Service) Cancel(ctx context.Context, caller Caller, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParty(caller, a) {
		return nil, ErrForbidden
	}
	if a.Status != StatusBooked {
		return nil, fmt.Errorf("%w: only booked appointments can be cancelled", ErrValidation)
	}
	if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled

	s.notify(ctx, a.PatientID, "appointment.cancelled", "Appointment cancelled",
		fmt.Sprintf("The appointment on %s was cancelled.", a.StartsAt.Format(time.RFC1123)))
	s.notify(ctx, a.DoctorID, "appointment.cancelled", "Appointment cancelled",
		fmt.Sprintf("The appointment on %s was cancelled.", a.StartsAt.Format(time.RFC1123)))
	return a, nil
}

// Complete marks a booked appointment as kept. Only the assigned doctor may
// complete; the patient earns activity points.
func (s *Service) Complete(ctx context.Context, caller Caller, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, caller, id, StatusCompleted)
}

// MarkNoShow marks a booked appointment as missed. Only the assigned doctor.
func (s *Service) MarkNoShow(ctx context.Context, caller Caller, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, caller, id, StatusNoShow)
}

func (s *Service) close(ctx context.Context, caller Caller, id uuid.UUID, status Status) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != "doctor" || caller.ID != a.DoctorID {
		return nil, ErrForbidden
	}
	if a.Status != StatusBooked {
		return nil, fmt.Errorf("%w: only booked appointments can be closed", ErrValidation)
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status

	if status == StatusCompleted && s.points != nil {
		_ = s.points.Award(ctx, a.PatientID, "appointment_kept")
	}
	return a, nil
}

// Get returns one appointment for a party to it.
func (s *Service) Get(ctx context.Context, caller Caller, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParty(caller, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

// ListMine returns the caller's appointments: a patient sees bookings they
// made, a doctor sees their schedule.
func (s *Service) ListMine(ctx context.Context, caller Caller, limit, offset int) ([]*Appointment, int, error) {
	switch caller.Role {
	case "patient":
		return s.repo.ListByPatient(ctx, caller.ID, limit, offset)
	case "doctor":
		return s.repo.ListByDoctor(ctx, caller.ID, limit, offset)
	default:
		return nil, 0, ErrForbidden
	}
}

func (s *Service) isParty(caller Caller, a *Appointment) bool {
	switch caller.Role {
	case "patient":
		return caller.ID == a.PatientID
	case "doctor":
		return caller.ID == a.DoctorID
	default:
		return false
	}
}

// notify publishes best-effort; failure is logged, never propagated.
func (s *Service) notify(ctx context.Context, actorID uuid.UUID, kind, title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, actorID, kind, title, body); err != nil {
		s.logger.Warn().Err(err).
			Str("actor_id", actorID.String()).
			Str("kind", kind).
			Msg("appointment notification failed")
	}
}
