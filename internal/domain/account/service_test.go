package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swasthya/swasthya/internal/platform/token"
)

type mockRepo struct {
	mu     sync.Mutex
	actors map[uuid.UUID]*Actor
}

func newMockRepo() *mockRepo {
	return &mockRepo{actors: make(map[uuid.UUID]*Actor)}
}

func (m *mockRepo) Create(_ context.Context, a *Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.actors {
		if existing.ActorType != a.ActorType {
			continue
		}
		if (a.Mobile != "" && existing.Mobile == a.Mobile) ||
			(a.Email != "" && existing.Email == a.Email) ||
			(a.HealthID != "" && existing.HealthID == a.HealthID) {
			return ErrDuplicate
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	cp := *a
	m.actors[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, actorType ActorType, id uuid.UUID) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok || a.ActorType != actorType {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetAnyByID(_ context.Context, id uuid.UUID) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetByIdentifier(_ context.Context, actorType ActorType, identifier string) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actors {
		if a.ActorType != actorType {
			continue
		}
		if a.Mobile == identifier || a.Email == identifier || a.HealthID == identifier {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) SetRefreshToken(_ context.Context, id uuid.UUID, tok *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok {
		return ErrNotFound
	}
	a.RefreshToken = tok
	return nil
}

func (m *mockRepo) RotateRefreshToken(_ context.Context, id uuid.UUID, old, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok {
		return ErrNotFound
	}
	if a.RefreshToken == nil || *a.RefreshToken != old {
		return ErrRefreshMismatch
	}
	a.RefreshToken = &next
	return nil
}

func (m *mockRepo) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	a.LastLogin = &now
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[id]
	if !ok {
		return ErrNotFound
	}
	a.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, actorType ActorType, limit, offset int) ([]*Actor, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Actor
	for _, a := range m.actors {
		if a.ActorType == actorType {
			cp := *a
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) count(actorType ActorType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.actors {
		if a.ActorType == actorType {
			n++
		}
	}
	return n
}

func testIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	return token.NewIssuer(
		[]byte("access-secret-for-tests-0123456789ab"),
		[]byte("refresh-secret-for-tests-0123456789a"),
		time.Hour, 2*time.Hour,
	)
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewService(repo, testIssuer(t)), repo
}

func patientFields(mobile string) *Actor {
	return &Actor{Name: "Asha Kumari", Mobile: mobile}
}

func TestRegister_IssuesSessionAndPersistsRefreshToken(t *testing.T) {
	svc, repo := newTestService(t)

	a, pair, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected non-empty token pair")
	}
	if a.Role != "patient" || a.ActorType != TypePatient || !a.Active {
		t.Errorf("unexpected actor state: %+v", a)
	}
	if a.PasswordHash == "Demo@123" || a.PasswordHash == "" {
		t.Error("expected password stored as hash")
	}

	stored, err := repo.GetByID(context.Background(), TypePatient, a.ID)
	if err != nil {
		t.Fatalf("stored actor missing: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != pair.Refresh {
		t.Error("expected refresh token persisted on the account")
	}
}

func TestRegisterThenLogin_DifferentAccessTokenSameActor(t *testing.T) {
	svc, _ := newTestService(t)

	a, regPair, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	loggedIn, loginPair, err := svc.Login(context.Background(), TypePatient, "9999888877", "Demo@123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loginPair.Access == regPair.Access {
		t.Error("expected a fresh access token on login")
	}
	if loggedIn.ID != a.ID {
		t.Errorf("expected same actor id, got %s and %s", a.ID, loggedIn.ID)
	}
	if loggedIn.LastLogin == nil {
		t.Error("expected last_login updated")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, _ = svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")

	_, _, err := svc.Login(context.Background(), TypePatient, "9999888877", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_WrongPasswordOnInactiveAccount(t *testing.T) {
	svc, _ := newTestService(t)
	a, _, _ := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err := svc.Deactivate(context.Background(), a.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	// Credential mismatch wins regardless of active state.
	_, _, err := svc.Login(context.Background(), TypePatient, "9999888877", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = svc.Login(context.Background(), TypePatient, "9999888877", "Demo@123")
	if !errors.Is(err, ErrInactive) {
		t.Errorf("expected ErrInactive with correct password, got %v", err)
	}
}

func TestRegister_DuplicateMobile(t *testing.T) {
	svc, repo := newTestService(t)
	_, _, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, _, err = svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Other@123")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if repo.count(TypePatient) != 1 {
		t.Errorf("expected exactly one record, got %d", repo.count(TypePatient))
	}
}

func TestRefresh_SupersededTokenRejected(t *testing.T) {
	svc, _ := newTestService(t)
	_, pair, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if rotated.Refresh == pair.Refresh {
		t.Fatal("expected refresh token rotated")
	}

	// The superseded token must fail once rotation happened.
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !errors.Is(err, ErrRefreshMismatch) {
		t.Errorf("expected ErrRefreshMismatch for superseded token, got %v", err)
	}

	// The rotated token still works.
	if _, err := svc.Refresh(context.Background(), rotated.Refresh); err != nil {
		t.Errorf("expected rotated token to refresh, got %v", err)
	}
}

func TestLogoutThenRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	a, pair, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.Logout(context.Background(), a.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.Refresh); !errors.Is(err, ErrRefreshMismatch) {
		t.Errorf("expected ErrRefreshMismatch after logout, got %v", err)
	}
}

func TestRegister_AdminClosed(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Register(context.Background(), TypeAdmin, patientFields("9999888877"), "Demo@123")
	if !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestRegister_DescriptorValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name      string
		actorType ActorType
		actor     *Actor
	}{
		{"doctor without license", TypeDoctor, &Actor{Name: "Dr. Rao", Mobile: "9000000001"}},
		{"state officer without state", TypeStateOfficer, &Actor{Name: "Officer", Mobile: "9000000002"}},
		{"regional officer without region", TypeRegionalOfficer, &Actor{Name: "Officer", Mobile: "9000000003"}},
		{"patient without contact", TypePatient, &Actor{Name: "Asha"}},
		{"patient without name", TypePatient, &Actor{Mobile: "9000000004"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tc.actorType, tc.actor, "Demo@123")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDeactivate_EndsSession(t *testing.T) {
	svc, repo := newTestService(t)
	a, pair, _ := svc.Register(context.Background(), TypeDoctor, &Actor{
		Name: "Dr. Rao", Mobile: "9000000001", LicenseNumber: "MH-1234",
	}, "Demo@123")

	if err := svc.Deactivate(context.Background(), a.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), TypeDoctor, a.ID)
	if stored.Active {
		t.Error("expected account inactive")
	}
	if stored.RefreshToken != nil {
		t.Error("expected stored refresh token cleared on deactivation")
	}
	if _, err := svc.Refresh(context.Background(), pair.Refresh); err == nil {
		t.Error("expected refresh rejected after deactivation")
	}
}

func TestResolveActor(t *testing.T) {
	svc, _ := newTestService(t)
	a, _, _ := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")

	resolved, err := svc.ResolveActor(context.Background(), "patient", a.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.ID != a.ID || resolved.Type != "patient" || resolved.Role != "patient" || !resolved.Active {
		t.Errorf("unexpected session actor: %+v", resolved)
	}

	if _, err := svc.ResolveActor(context.Background(), "doctor", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for type mismatch, got %v", err)
	}
	if _, err := svc.ResolveActor(context.Background(), "bogus", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown type, got %v", err)
	}
}

type recordingListener struct {
	mu    sync.Mutex
	seen  []uuid.UUID
	types []ActorType
}

func (l *recordingListener) ActorRegistered(_ context.Context, a *Actor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, a.ID)
	l.types = append(l.types, a.ActorType)
}

func TestRegister_NotifiesListener(t *testing.T) {
	svc, _ := newTestService(t)
	listener := &recordingListener{}
	svc.SetRegistrationListener(listener)

	a, _, err := svc.Register(context.Background(), TypePatient, patientFields("9999888877"), "Demo@123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(listener.seen) != 1 || listener.seen[0] != a.ID {
		t.Errorf("expected listener notified for %s, got %v", a.ID, listener.seen)
	}
}

func TestParseActorType(t *testing.T) {
	for input, want := range map[string]ActorType{
		"patient":          TypePatient,
		"doctor":           TypeDoctor,
		"state-officer":    TypeStateOfficer,
		"state_officer":    TypeStateOfficer,
		"regional-officer": TypeRegionalOfficer,
	} {
		got, ok := ParseActorType(input)
		if !ok || got != want {
			t.Errorf("ParseActorType(%q) = %v, %v; want %v", input, got, ok, want)
		}
	}
	if _, ok := ParseActorType("nurse"); ok {
		t.Error("expected unknown type rejected")
	}
}
