package outbreak

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthya/swasthya/internal/platform/websocket"
)

type mockRepo struct {
	reports map[uuid.UUID]*Report
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[uuid.UUID]*Report)}
}

func (m *mockRepo) Create(_ context.Context, r *Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) UpdateCounts(_ context.Context, id uuid.UUID, cases, deaths int, status Status) error {
	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.Cases, r.Deaths, r.Status = cases, deaths, status
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Report, int, error) {
	var out []*Report
	for _, r := range m.reports {
		if f.Disease != "" && r.Disease != f.Disease {
			continue
		}
		if f.Region != "" && r.Region != f.Region {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) SummaryByRegion(_ context.Context, disease string) ([]*RegionSummary, error) {
	byRegion := make(map[string]*RegionSummary)
	for _, r := range m.reports {
		if r.Disease != disease {
			continue
		}
		s, ok := byRegion[r.Region]
		if !ok {
			s = &RegionSummary{Region: r.Region}
			byRegion[r.Region] = s
		}
		s.Reports++
		s.Cases += r.Cases
		s.Deaths += r.Deaths
	}
	var out []*RegionSummary
	for _, s := range byRegion {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cases > out[j].Cases })
	return out, nil
}

type capturedEvents struct {
	events []websocket.Event
}

func (c *capturedEvents) Publish(_ context.Context, ev websocket.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func newTestService() (*Service, *mockRepo, *capturedEvents) {
	repo := newMockRepo()
	events := &capturedEvents{}
	svc := NewService(repo, zerolog.New(os.Stderr))
	svc.SetEventPublisher(events)
	return svc, repo, events
}

var officer = Caller{ID: uuid.New(), Role: "state_officer"}

func TestReport_PublishesRegionalAlert(t *testing.T) {
	svc, _, events := newTestService()

	rep := &Report{Disease: "dengue", Region: "north", District: "hillside", Cases: 42, Deaths: 1}
	if err := svc.Report(context.Background(), officer, rep); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if rep.Status != StatusActive {
		t.Errorf("expected new report active, got %s", rep.Status)
	}
	if rep.ReportedBy != officer.ID {
		t.Errorf("expected reporter recorded, got %s", rep.ReportedBy)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one alert, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Kind != "outbreak.reported" || ev.Topic != websocket.RegionTopic("north") {
		t.Errorf("unexpected event %q on topic %q", ev.Kind, ev.Topic)
	}
}

func TestReport_RoleGate(t *testing.T) {
	svc, _, _ := newTestService()
	rep := &Report{Disease: "dengue", Region: "north", Cases: 1}

	if err := svc.Report(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, rep); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for patient, got %v", err)
	}
	if err := svc.Report(context.Background(), Caller{ID: uuid.New(), Role: "doctor"}, rep); err != nil {
		t.Errorf("doctor report failed: %v", err)
	}
}

func TestReport_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		rep  *Report
	}{
		{"missing disease", &Report{Region: "north", Cases: 1}},
		{"missing region", &Report{Disease: "dengue", Cases: 1}},
		{"negative cases", &Report{Disease: "dengue", Region: "north", Cases: -1}},
		{"deaths exceed cases", &Report{Disease: "dengue", Region: "north", Cases: 2, Deaths: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Report(context.Background(), officer, tc.rep); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUpdateCounts(t *testing.T) {
	svc, _, _ := newTestService()
	rep := &Report{Disease: "dengue", Region: "north", Cases: 10}
	if err := svc.Report(context.Background(), officer, rep); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	updated, err := svc.UpdateCounts(context.Background(), officer, rep.ID, 25, 2, StatusContained)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Cases != 25 || updated.Deaths != 2 || updated.Status != StatusContained {
		t.Errorf("unexpected state after update: %+v", updated)
	}

	if _, err := svc.UpdateCounts(context.Background(), officer, rep.ID, 25, 2, Status("archived")); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	if _, err := svc.UpdateCounts(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, rep.ID, 1, 0, StatusActive); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for patient, got %v", err)
	}
	if _, err := svc.UpdateCounts(context.Background(), officer, uuid.New(), 1, 0, StatusActive); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSummary_AggregatesPerRegion(t *testing.T) {
	svc, _, _ := newTestService()
	seed := []*Report{
		{Disease: "dengue", Region: "north", Cases: 10, Deaths: 1},
		{Disease: "dengue", Region: "north", Cases: 5},
		{Disease: "dengue", Region: "south", Cases: 30, Deaths: 2},
		{Disease: "malaria", Region: "north", Cases: 99},
	}
	for _, rep := range seed {
		if err := svc.Report(context.Background(), officer, rep); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	summaries, err := svc.Summary(context.Background(), "dengue")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected two regions, got %d", len(summaries))
	}
	// Ordered by cases descending.
	if summaries[0].Region != "south" || summaries[0].Cases != 30 || summaries[0].Deaths != 2 {
		t.Errorf("unexpected first summary: %+v", summaries[0])
	}
	if summaries[1].Region != "north" || summaries[1].Cases != 15 || summaries[1].Reports != 2 {
		t.Errorf("unexpected second summary: %+v", summaries[1])
	}

	if _, err := svc.Summary(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty disease, got %v", err)
	}
}

func TestList_FilterAndStatusValidation(t *testing.T) {
	svc, _, _ := newTestService()
	_ = svc.Report(context.Background(), officer, &Report{Disease: "dengue", Region: "north", Cases: 3})
	_ = svc.Report(context.Background(), officer, &Report{Disease: "cholera", Region: "south", Cases: 7})

	reports, total, err := svc.List(context.Background(), Filter{Disease: "dengue"}, 20, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(reports) != 1 || reports[0].Disease != "dengue" {
		t.Errorf("unexpected filtered result: %d/%d", len(reports), total)
	}

	if _, _, err := svc.List(context.Background(), Filter{Status: Status("bogus")}, 20, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad status filter, got %v", err)
	}
}
