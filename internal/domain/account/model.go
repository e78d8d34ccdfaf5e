// Package account implements the shared credential store and authentication
// surface for every actor type on the platform. One generic module,
// parameterized by an actor-type descriptor, replaces a per-type controller
// for patients, doctors, admins, and health officers.
package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActorType discriminates the account variants sharing the account table.
type ActorType string

const (
	TypePatient         ActorType = "patient"
	TypeDoctor          ActorType = "doctor"
	TypeAdmin           ActorType = "admin"
	TypeStateOfficer    ActorType = "state_officer"
	TypeRegionalOfficer ActorType = "regional_officer"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("account already exists")
	// ErrInvalidCredentials is returned on identifier/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactive is returned when a deactivated account attempts to authenticate.
	ErrInactive = errors.New("account is deactivated")
	// ErrRefreshMismatch is returned when a presented refresh token does not
	// match the value currently stored on the account.
	ErrRefreshMismatch = errors.New("refresh token does not match current session")
	// ErrRegistrationClosed is returned when an actor type does not permit
	// self-registration.
	ErrRegistrationClosed = errors.New("registration is not open for this actor type")
)

// ValidationError marks a client-input problem the handler maps to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Actor is the unified identity record for every account variant. Variant
// specific profile fields are nullable and validated per descriptor.
type Actor struct {
	ID           uuid.UUID  `json:"id"`
	ActorType    ActorType  `json:"actor_type"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Mobile       string     `json:"mobile,omitempty"`
	HealthID     string     `json:"health_id,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	RefreshToken *string    `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	// Patient profile.
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	BloodGroup  string     `json:"blood_group,omitempty"`

	// Doctor profile.
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"license_number,omitempty"`
	HospitalID     *uuid.UUID `json:"hospital_id,omitempty"`

	// Geography, used by officers for scoping and by patients for outreach.
	Region   string `json:"region,omitempty"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Descriptor captures the per-actor-type policy: role tag, whether the public
// registration endpoint is open, whether new accounts start active, and the
// profile fields registration must supply.
type Descriptor struct {
	Type          ActorType
	Role          string
	SelfRegister  bool
	DefaultActive bool
	Validate      func(a *Actor) error
}

var descriptors = map[ActorType]Descriptor{
	TypePatient: {
		Type:          TypePatient,
		Role:          "patient",
		SelfRegister:  true,
		DefaultActive: true,
		Validate:      validateContact,
	},
	TypeDoctor: {
		Type:          TypeDoctor,
		Role:          "doctor",
		SelfRegister:  true,
		DefaultActive: true,
		Validate: func(a *Actor) error {
			if err := validateContact(a); err != nil {
				return err
			}
			if a.LicenseNumber == "" {
				return validationf("license_number is required")
			}
			return nil
		},
	},
	TypeAdmin: {
		Type: TypeAdmin,
		Role: "admin",
		// Admin accounts are seeded via the CLI or created by an existing
		// admin; the public register endpoint stays closed.
		SelfRegister:  false,
		DefaultActive: true,
		Validate:      validateContact,
	},
	TypeStateOfficer: {
		Type:          TypeStateOfficer,
		Role:          "state_officer",
		SelfRegister:  true,
		DefaultActive: true,
		Validate: func(a *Actor) error {
			if err := validateContact(a); err != nil {
				return err
			}
			if a.State == "" {
				return validationf("state is required")
			}
			return nil
		},
	},
	TypeRegionalOfficer: {
		Type:          TypeRegionalOfficer,
		Role:          "regional_officer",
		SelfRegister:  true,
		DefaultActive: true,
		Validate: func(a *Actor) error {
			if err := validateContact(a); err != nil {
				return err
			}
			if a.Region == "" {
				return validationf("region is required")
			}
			return nil
		},
	},
}

func validateContact(a *Actor) error {
	if a.Name == "" {
		return validationf("name is required")
	}
	if a.Email == "" && a.Mobile == "" {
		return validationf("email or mobile is required")
	}
	return nil
}

// DescriptorFor returns the descriptor for an actor type.
func DescriptorFor(t ActorType) (Descriptor, bool) {
	d, ok := descriptors[t]
	return d, ok
}

// ParseActorType maps a URL path segment to an ActorType. Both underscore and
// hyphen spellings are accepted for the officer types.
func ParseActorType(s string) (ActorType, bool) {
	t := ActorType(strings.ReplaceAll(strings.ToLower(s), "-", "_"))
	_, ok := descriptors[t]
	return t, ok
}

// ActorTypes returns all registered actor types.
func ActorTypes() []ActorType {
	out := make([]ActorType, 0, len(descriptors))
	for t := range descriptors {
		out = append(out, t)
	}
	return out
}

// TokenPair is the access/refresh pair issued on register, login, and refresh.
type TokenPair struct {
	Access  string `json:"token"`
	Refresh string `json:"refresh_token"`
}
