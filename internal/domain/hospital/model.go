// Package hospital manages hospitals, their resource levels, and health
// camps. Resource updates that fall below a configured threshold broadcast an
// alert to the hospital's regional feed.
package hospital

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not permitted")
	ErrDuplicate = errors.New("already exists")
	// ErrValidation wraps client-input problems the handler maps to 400.
	ErrValidation = errors.New("invalid input")
)

// Hospital is one registered facility.
type Hospital struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	District  string    `json:"district,omitempty"`
	State     string    `json:"state,omitempty"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resource tracks the level of one consumable or capacity at a hospital,
// such as beds, oxygen, or ambulances.
type Resource struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Kind       string    `json:"kind"`
	Available  int       `json:"available"`
	Capacity   int       `json:"capacity"`
	Threshold  int       `json:"threshold"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BelowThreshold reports whether the level has fallen under the alert line.
func (r *Resource) BelowThreshold() bool {
	return r.Available < r.Threshold
}

// Camp is a scheduled public-health camp in a region.
type Camp struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	District  string    `json:"district,omitempty"`
	Location  string    `json:"location"`
	Services  string    `json:"services,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
