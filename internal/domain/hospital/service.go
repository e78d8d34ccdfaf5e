package hospital

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthya/swasthya/internal/platform/websocket"
)

// Caller identifies the authenticated actor performing an operation.
type Caller struct {
	ID   uuid.UUID
	Role string
}

// PointsAwarder credits gamification points for camp attendance.
type PointsAwarder interface {
	Award(ctx context.Context, actorID uuid.UUID, activity string) error
}

type Service struct {
	repo   Repository
	events websocket.EventPublisher
	points PointsAwarder
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetEventPublisher attaches the optional live-feed sink for regional alerts.
func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

// SetPointsAwarder attaches an optional gamification hook.
func (s *Service) SetPointsAwarder(p PointsAwarder) {
	s.points = p
}

func isOfficer(role string) bool {
	switch role {
	case "admin", "state_officer", "regional_officer":
		return true
	}
	return false
}

// CreateHospital registers a facility. Officer roles only.
func (s *Service) CreateHospital(ctx context.Context, caller Caller, h *Hospital) error {
	if !isOfficer(caller.Role) {
		return ErrForbidden
	}
	if h.Name == "" || h.Region == "" {
		return fmt.Errorf("%w: name and region are required", ErrValidation)
	}
	h.Active = true
	return s.repo.Create(ctx, h)
}

// UpdateHospital rewrites a facility's details. Officer roles only.
func (s *Service) UpdateHospital(ctx context.Context, caller Caller, h *Hospital) error {
	if !isOfficer(caller.Role) {
		return ErrForbidden
	}
	if h.Name == "" || h.Region == "" {
		return fmt.Errorf("%w: name and region are required", ErrValidation)
	}
	return s.repo.Update(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, region, district string, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, region, district, limit, offset)
}

// SetResourceLevel records the current level of one resource at a hospital.
// Officer roles only. A level under the threshold publishes an alert on the
// hospital's regional feed.
func (s *Service) SetResourceLevel(ctx context.Context, caller Caller, res *Resource) error {
	if !isOfficer(caller.Role) {
		return ErrForbidden
	}
	if res.Kind == "" {
		return fmt.Errorf("%w: kind is required", ErrValidation)
	}
	if res.Available < 0 || res.Capacity < 0 || res.Threshold < 0 {
		return fmt.Errorf("%w: levels cannot be negative", ErrValidation)
	}

	h, err := s.repo.GetByID(ctx, res.HospitalID)
	if err != nil {
		return err
	}
	if err := s.repo.UpsertResource(ctx, res); err != nil {
		return err
	}

	if res.BelowThreshold() {
		s.publish(ctx, websocket.RegionTopic(h.Region), "resource.alert",
			fmt.Sprintf("%s is low on %s", h.Name, res.Kind),
			map[string]any{
				"hospital_id": h.ID,
				"hospital":    h.Name,
				"kind":        res.Kind,
				"available":   res.Available,
				"threshold":   res.Threshold,
			})
	}
	return nil
}

func (s *Service) ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error) {
	if _, err := s.repo.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}
	return s.repo.ListResources(ctx, hospitalID)
}

// AnnounceCamp schedules a health camp and announces it on the regional feed.
// Officer roles only.
func (s *Service) AnnounceCamp(ctx context.Context, caller Caller, c *Camp) error {
	if !isOfficer(caller.Role) {
		return ErrForbidden
	}
	if c.Name == "" || c.Region == "" {
		return fmt.Errorf("%w: name and region are required", ErrValidation)
	}
	if c.StartsAt.IsZero() || c.EndsAt.IsZero() || !c.StartsAt.Before(c.EndsAt) {
		return fmt.Errorf("%w: starts_at must precede ends_at", ErrValidation)
	}
	if c.EndsAt.Before(s.now()) {
		return fmt.Errorf("%w: camp window is already over", ErrValidation)
	}

	c.CreatedBy = caller.ID
	if err := s.repo.CreateCamp(ctx, c); err != nil {
		return err
	}

	s.publish(ctx, websocket.RegionTopic(c.Region), "camp.announced",
		fmt.Sprintf("Health camp %q announced in %s", c.Name, c.Region),
		map[string]any{
			"camp_id":   c.ID,
			"name":      c.Name,
			"location":  c.Location,
			"starts_at": c.StartsAt,
			"ends_at":   c.EndsAt,
		})
	return nil
}

func (s *Service) GetCamp(ctx context.Context, id uuid.UUID) (*Camp, error) {
	return s.repo.GetCamp(ctx, id)
}

func (s *Service) ListCamps(ctx context.Context, region string, from, to time.Time, limit, offset int) ([]*Camp, int, error) {
	if to.IsZero() {
		to = s.now().AddDate(1, 0, 0)
	}
	if !from.Before(to) {
		return nil, 0, fmt.Errorf("%w: from must precede to", ErrValidation)
	}
	return s.repo.ListCamps(ctx, region, from, to, limit, offset)
}

// AttendCamp registers the calling patient for a camp and credits activity
// points. Each patient registers at most once per camp.
func (s *Service) AttendCamp(ctx context.Context, caller Caller, campID uuid.UUID) error {
	if caller.Role != "patient" {
		return ErrForbidden
	}
	if _, err := s.repo.GetCamp(ctx, campID); err != nil {
		return err
	}
	if err := s.repo.AddAttendee(ctx, campID, caller.ID); err != nil {
		return err
	}
	if s.points != nil {
		_ = s.points.Award(ctx, caller.ID, "camp_attended")
	}
	return nil
}

// publish sends best-effort; failure is logged, never propagated.
func (s *Service) publish(ctx context.Context, topic, kind, title string, payload map[string]any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("alert payload marshal failed")
		return
	}
	ev := websocket.Event{Kind: kind, Topic: topic, Title: title, Data: data}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("topic", topic).
			Str("kind", kind).
			Msg("regional alert publish failed")
	}
}
