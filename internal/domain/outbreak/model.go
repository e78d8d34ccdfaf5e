// Package outbreak tracks disease outbreak reports filed by health officers
// and aggregates them per region for surveillance dashboards.
package outbreak

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not permitted")
	// ErrValidation wraps client-input problems the handler maps to 400.
	ErrValidation = errors.New("invalid input")
)

// Status of an outbreak report.
type Status string

const (
	StatusActive    Status = "active"
	StatusContained Status = "contained"
	StatusResolved  Status = "resolved"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusContained, StatusResolved:
		return true
	}
	return false
}

// Report is one outbreak filing for a disease in a region.
type Report struct {
	ID         uuid.UUID `json:"id"`
	Disease    string    `json:"disease"`
	Region     string    `json:"region"`
	District   string    `json:"district,omitempty"`
	Cases      int       `json:"cases"`
	Deaths     int       `json:"deaths"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	ReportedBy uuid.UUID `json:"reported_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RegionSummary aggregates all reports of one disease within a region.
type RegionSummary struct {
	Region  string `json:"region"`
	Reports int    `json:"reports"`
	Cases   int    `json:"cases"`
	Deaths  int    `json:"deaths"`
}
