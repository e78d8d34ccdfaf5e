// Package appointment implements booking between patients and doctors with
// slot conflict checks. Notifications on booking and cancellation are
// best-effort; a delivery failure never rolls back the appointment.
package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrForbidden = errors.New("not permitted to modify this appointment")
	// ErrSlotTaken is returned when the doctor already holds a non-cancelled
	// appointment overlapping the requested window.
	ErrSlotTaken = errors.New("doctor is not available in the requested slot")
	// ErrValidation wraps client-input problems the handler maps to 400.
	ErrValidation = errors.New("invalid input")
)

// Appointment is one booked slot between a patient and a doctor.
type Appointment struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	DoctorID   uuid.UUID  `json:"doctor_id"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Overlaps reports whether two half-open time windows intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
