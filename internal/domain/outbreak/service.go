package outbreak

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthya/swasthya/internal/platform/websocket"
)

// Caller identifies the authenticated actor performing an operation.
type Caller struct {
	ID   uuid.UUID
	Role string
}

type Service struct {
	repo   Repository
	events websocket.EventPublisher
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetEventPublisher attaches the optional live-feed sink for regional alerts.
func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

func canReport(role string) bool {
	switch role {
	case "admin", "state_officer", "regional_officer", "doctor":
		return true
	}
	return false
}

// Report files a new outbreak report and pushes an alert to the affected
// region's feed. Officers and doctors may file.
func (s *Service) Report(ctx context.Context, caller Caller, rep *Report) error {
	if !canReport(caller.Role) {
		return ErrForbidden
	}
	if rep.Disease == "" || rep.Region == "" {
		return fmt.Errorf("%w: disease and region are required", ErrValidation)
	}
	if rep.Cases < 0 || rep.Deaths < 0 {
		return fmt.Errorf("%w: counts cannot be negative", ErrValidation)
	}
	if rep.Deaths > rep.Cases {
		return fmt.Errorf("%w: deaths cannot exceed cases", ErrValidation)
	}

	rep.Status = StatusActive
	rep.ReportedBy = caller.ID
	if err := s.repo.Create(ctx, rep); err != nil {
		return err
	}

	s.publish(ctx, rep)
	return nil
}

// UpdateCounts revises a report's counts and status. Officers and doctors.
func (s *Service) UpdateCounts(ctx context.Context, caller Caller, id uuid.UUID, cases, deaths int, status Status) (*Report, error) {
	if !canReport(caller.Role) {
		return nil, ErrForbidden
	}
	if cases < 0 || deaths < 0 || deaths > cases {
		return nil, fmt.Errorf("%w: invalid counts", ErrValidation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := s.repo.UpdateCounts(ctx, id, cases, deaths, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Report, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.repo.List(ctx, f, limit, offset)
}

// Summary aggregates one disease's reports per region.
func (s *Service) Summary(ctx context.Context, disease string) ([]*RegionSummary, error) {
	if disease == "" {
		return nil, fmt.Errorf("%w: disease is required", ErrValidation)
	}
	return s.repo.SummaryByRegion(ctx, disease)
}

// publish sends best-effort; failure is logged, never propagated.
func (s *Service) publish(ctx context.Context, rep *Report) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"report_id": rep.ID,
		"disease":   rep.Disease,
		"district":  rep.District,
		"cases":     rep.Cases,
		"deaths":    rep.Deaths,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("outbreak payload marshal failed")
		return
	}
	ev := websocket.Event{
		Kind:  "outbreak.reported",
		Topic: websocket.RegionTopic(rep.Region),
		Title: fmt.Sprintf("%s outbreak reported in %s", rep.Disease, rep.Region),
		Data:  data,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str("region", rep.Region).
			Str("disease", rep.Disease).
			Msg("outbreak alert publish failed")
	}
}
