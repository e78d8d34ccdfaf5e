// Package record implements medical-record storage with patient consent
// grants. A doctor may read or write a patient's records only while the
// patient holds an active grant for them; patients always read their own.
package record

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrValidation wraps client-input problems the handler maps to 400.
	ErrValidation = errors.New("invalid input")
	ErrForbidden  = errors.New("not permitted to access this record")
	// ErrNoConsent is returned when a doctor acts on a patient's records
	// without an active consent grant.
	ErrNoConsent = errors.New("patient has not granted access")
)

// Record is a single medical-record entry owned by a patient and authored by
// a doctor.
type Record struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patient_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	RecordType   string    `json:"record_type"`
	Title        string    `json:"title"`
	Details      string    `json:"details,omitempty"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	Prescription string    `json:"prescription,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConsentGrant records a patient's grant of record access to one doctor.
// Revocation is a soft flip of the active flag; the history stays.
type ConsentGrant struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Expired reports whether the grant has lapsed by time.
func (g *ConsentGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}
