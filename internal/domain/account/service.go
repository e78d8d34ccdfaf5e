package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/swasthya/swasthya/internal/platform/auth"
	"github.com/swasthya/swasthya/internal/platform/token"
)

// RegistrationListener is notified after a successful registration. Listeners
// run best-effort; their failures never fail the registration.
type RegistrationListener interface {
	ActorRegistered(ctx context.Context, a *Actor)
}

// Service implements the credential and session lifecycle for all actor
// types. It also satisfies auth.ActorResolver so the session middleware can
// look actors up without importing this package.
type Service struct {
	repo     Repository
	issuer   *token.Issuer
	listener RegistrationListener
}

func NewService(repo Repository, issuer *token.Issuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// SetRegistrationListener attaches an optional post-registration hook.
func (s *Service) SetRegistrationListener(l RegistrationListener) {
	s.listener = l
}

// Register creates a new account of the given type, hashes the password, and
// issues the initial token pair. The plaintext password never reaches the
// repository.
func (s *Service) Register(ctx context.Context, actorType ActorType, a *Actor, password string) (*Actor, TokenPair, error) {
	d, ok := DescriptorFor(actorType)
	if !ok {
		return nil, TokenPair{}, validationf("unknown actor type: %s", actorType)
	}
	if !d.SelfRegister {
		return nil, TokenPair{}, ErrRegistrationClosed
	}
	if password == "" {
		return nil, TokenPair{}, validationf("password is required")
	}
	a.ActorType = actorType
	a.Role = d.Role
	a.Active = d.DefaultActive
	if err := d.Validate(a); err != nil {
		return nil, TokenPair{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = hash

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issueSession(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}

	if s.listener != nil {
		s.listener.ActorRegistered(ctx, a)
	}
	return a, pair, nil
}

// CreateByAdmin creates an account of any type without the self-registration
// gate and without issuing tokens. Used by the admin surface and the CLI
// seeder.
func (s *Service) CreateByAdmin(ctx context.Context, actorType ActorType, a *Actor, password string) (*Actor, error) {
	d, ok := DescriptorFor(actorType)
	if !ok {
		return nil, validationf("unknown actor type: %s", actorType)
	}
	if password == "" {
		return nil, validationf("password is required")
	}
	a.ActorType = actorType
	a.Role = d.Role
	a.Active = true
	if err := d.Validate(a); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = hash

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login verifies the identifier/password pair and issues a fresh token pair.
// The password check runs before the active check so response timing does not
// reveal account state.
func (s *Service) Login(ctx context.Context, actorType ActorType, identifier, password string) (*Actor, TokenPair, error) {
	a, err := s.repo.GetByIdentifier(ctx, actorType, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}

	if !auth.CheckPassword(password, a.PasswordHash) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !a.Active {
		return nil, TokenPair{}, ErrInactive
	}

	pair, err := s.issueSession(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.repo.TouchLastLogin(ctx, a.ID); err != nil {
		return nil, TokenPair{}, err
	}
	return a, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The stored
// token is rotated with compare-and-swap semantics, so of two concurrent
// refreshes with the same token exactly one succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	a, err := s.repo.GetByID(ctx, ActorType(claims.ActorType), claims.ActorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !a.Active {
		return TokenPair{}, ErrInactive
	}
	if a.RefreshToken == nil || *a.RefreshToken != refreshToken {
		return TokenPair{}, ErrRefreshMismatch
	}

	access, err := s.issuer.Access(a.ID, string(a.ActorType), a.Role)
	if err != nil {
		return TokenPair{}, err
	}
	next, err := s.issuer.Refresh(a.ID, string(a.ActorType), a.Role)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.repo.RotateRefreshToken(ctx, a.ID, refreshToken, next); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: next}, nil
}

// Logout clears the stored refresh token, ending the actor's session.
func (s *Service) Logout(ctx context.Context, actorID uuid.UUID) error {
	return s.repo.SetRefreshToken(ctx, actorID, nil)
}

// Get returns the profile for an actor of a specific type.
func (s *Service) Get(ctx context.Context, actorType ActorType, id uuid.UUID) (*Actor, error) {
	return s.repo.GetByID(ctx, actorType, id)
}

// List returns a page of actors of one type with the total count.
func (s *Service) List(ctx context.Context, actorType ActorType, limit, offset int) ([]*Actor, int, error) {
	return s.repo.List(ctx, actorType, limit, offset)
}

// Deactivate soft-disables an account. The account record is never deleted.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	// A deactivated actor must not keep a live session.
	return s.repo.SetRefreshToken(ctx, id, nil)
}

// Reactivate re-enables a soft-disabled account.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// Contact returns an actor's delivery addresses for out-of-band channels.
func (s *Service) Contact(ctx context.Context, id uuid.UUID) (email, mobile string, err error) {
	a, err := s.repo.GetAnyByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return a.Email, a.Mobile, nil
}

// ResolveActor implements auth.ActorResolver for the session middleware.
func (s *Service) ResolveActor(ctx context.Context, actorType string, id uuid.UUID) (*auth.SessionActor, error) {
	t, ok := ParseActorType(actorType)
	if !ok {
		return nil, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return &auth.SessionActor{ID: a.ID, Type: string(a.ActorType), Role: a.Role, Active: a.Active}, nil
}

func (s *Service) issueSession(ctx context.Context, a *Actor) (TokenPair, error) {
	access, err := s.issuer.Access(a.ID, string(a.ActorType), a.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issuer.Refresh(a.ID, string(a.ActorType), a.Role)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.repo.SetRefreshToken(ctx, a.ID, &refresh); err != nil {
		return TokenPair{}, err
	}
	a.RefreshToken = &refresh
	return TokenPair{Access: access, Refresh: refresh}, nil
}
