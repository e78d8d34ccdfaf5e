package appointment

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status Status) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) CountOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	n := 0
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status != StatusCancelled && Overlaps(a.StartsAt, a.EndsAt, start, end) {
			n++
		}
	}
	return n, nil
}

type recordedNote struct {
	actorID uuid.UUID
	kind    string
}

type mockNotifier struct {
	notes []recordedNote
	fail  bool
}

func (m *mockNotifier) Notify(_ context.Context, actorID uuid.UUID, kind, title, body string) error {
	m.notes = append(m.notes, recordedNote{actorID: actorID, kind: kind})
	if m.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func newTestService() (*Service, *mockRepo, *mockNotifier) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, zerolog.New(os.Stderr))
	svc.SetNotifier(notifier)
	return svc, repo, notifier
}

func slot(hoursFromNow, durationHours int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(hoursFromNow) * time.Hour).Truncate(time.Minute)
	return start, start.Add(time.Duration(durationHours) * time.Hour)
}

func TestBook_Succeeds(t *testing.T) {
	svc, _, notifier := newTestService()
	patient := Caller{ID: uuid.New(), Role: "patient"}
	doctorID := uuid.New()
	start, end := slot(24, 1)

	a := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end, Reason: "checkup"}
	if err := svc.Book(context.Background(), patient, a); err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if a.Status != StatusBooked || a.PatientID != patient.ID {
		t.Errorf("unexpected appointment state: %+v", a)
	}
	if len(notifier.notes) != 2 {
		t.Errorf("expected both parties notified, got %d", len(notifier.notes))
	}
}

func TestBook_OverlapRejected(t *testing.T) {
	svc, _, _ := newTestService()
	doctorID := uuid.New()
	start, end := slot(24, 1)

	first := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end}
	if err := svc.Book(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Partially overlapping window for the same doctor.
	second := &Appointment{DoctorID: doctorID, StartsAt: start.Add(30 * time.Minute), EndsAt: end.Add(30 * time.Minute)}
	err := svc.Book(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, second)
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	// Adjacent window is fine (half-open intervals).
	third := &Appointment{DoctorID: doctorID, StartsAt: end, EndsAt: end.Add(time.Hour)}
	if err := svc.Book(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, third); err != nil {
		t.Errorf("adjacent booking failed: %v", err)
	}
}

func TestBook_CancelledSlotReopens(t *testing.T) {
	svc, _, _ := newTestService()
	doctorID := uuid.New()
	patient := Caller{ID: uuid.New(), Role: "patient"}
	start, end := slot(24, 1)

	first := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end}
	_ = svc.Book(context.Background(), patient, first)
	if _, err := svc.Cancel(context.Background(), patient, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	second := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end}
	if err := svc.Book(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, second); err != nil {
		t.Errorf("expected cancelled slot to reopen, got %v", err)
	}
}

func TestBook_ValidationErrors(t *testing.T) {
	svc, _, _ := newTestService()
	patient := Caller{ID: uuid.New(), Role: "patient"}
	start, end := slot(24, 1)

	cases := []struct {
		name string
		a    *Appointment
	}{
		{"missing doctor", &Appointment{StartsAt: start, EndsAt: end}},
		{"inverted window", &Appointment{DoctorID: uuid.New(), StartsAt: end, EndsAt: start}},
		{"past slot", &Appointment{DoctorID: uuid.New(), StartsAt: start.Add(-48 * time.Hour), EndsAt: end.Add(-48 * time.Hour)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Book(context.Background(), patient, tc.a); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestBook_DoctorCannotBook(t *testing.T) {
	svc, _, _ := newTestService()
	start, end := slot(24, 1)
	err := svc.Book(context.Background(), Caller{ID: uuid.New(), Role: "doctor"},
		&Appointment{DoctorID: uuid.New(), StartsAt: start, EndsAt: end})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestBook_NotificationFailureDoesNotRollBack(t *testing.T) {
	svc, repo, notifier := newTestService()
	notifier.fail = true
	patient := Caller{ID: uuid.New(), Role: "patient"}
	start, end := slot(24, 1)

	a := &Appointment{DoctorID: uuid.New(), StartsAt: start, EndsAt: end}
	if err := svc.Book(context.Background(), patient, a); err != nil {
		t.Fatalf("expected booking to survive notification failure, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), a.ID); err != nil {
		t.Errorf("expected appointment persisted: %v", err)
	}
}

func TestCancel_OnlyParties(t *testing.T) {
	svc, _, _ := newTestService()
	patient := Caller{ID: uuid.New(), Role: "patient"}
	doctorID := uuid.New()
	start, end := slot(24, 1)

	a := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end}
	_ = svc.Book(context.Background(), patient, a)

	if _, err := svc.Cancel(context.Background(), Caller{ID: uuid.New(), Role: "patient"}, a.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), Caller{ID: doctorID, Role: "doctor"}, a.ID); err != nil {
		t.Errorf("doctor cancel failed: %v", err)
	}
}

func TestComplete_AwardsPointsToPatient(t *testing.T) {
	svc, _, _ := newTestService()
	awarder := &countingAwarder{}
	svc.SetPointsAwarder(awarder)

	patient := Caller{ID: uuid.New(), Role: "patient"}
	doctorID := uuid.New()
	start, end := slot(24, 1)

	a := &Appointment{DoctorID: doctorID, StartsAt: start, EndsAt: end}
	_ = svc.Book(context.Background(), patient, a)

	// Only the assigned doctor closes the appointment.
	if _, err := svc.Complete(context.Background(), patient, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for patient, got %v", err)
	}

	done, err := svc.Complete(context.Background(), Caller{ID: doctorID, Role: "doctor"}, a.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", done.Status)
	}
	if awarder.calls != 1 || awarder.last != patient.ID {
		t.Errorf("expected patient awarded once, got %d calls for %s", awarder.calls, awarder.last)
	}

	// Closed appointments cannot be closed again.
	if _, err := svc.Complete(context.Background(), Caller{ID: doctorID, Role: "doctor"}, a.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on double close, got %v", err)
	}
}

type countingAwarder struct {
	calls int
	last  uuid.UUID
}

func (a *countingAwarder) Award(_ context.Context, actorID uuid.UUID, _ string) error {
	a.calls++
	a.last = actorID
	return nil
}

func TestListMine(t *testing.T) {
	svc, _, _ := newTestService()
	patient := Caller{ID: uuid.New(), Role: "patient"}
	start, end := slot(24, 1)
	_ = svc.Book(context.Background(), patient, &Appointment{DoctorID: uuid.New(), StartsAt: start, EndsAt: end})

	appts, total, err := svc.ListMine(context.Background(), patient, 20, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(appts) != 1 {
		t.Errorf("expected one appointment, got %d/%d", len(appts), total)
	}

	if _, _, err := svc.ListMine(context.Background(), Caller{ID: uuid.New(), Role: "admin"}, 20, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for admin, got %v", err)
	}
}
