package encounter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/events"
)

// -- Mock Repository --

type mockRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*Encounter
	clock time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		rows:  make(map[uuid.UUID]*Encounter),
		clock: time.Date(2030, 1, 15, 8, 0, 0, 0, time.UTC),
	}
}

// tick gives every write a distinct, increasing timestamp.
func (m *mockRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *mockRepo) Create(_ context.Context, e *Encounter) (*Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.Status = StatusOpen
	cp.DoctorID = nil
	cp.CreatedAt = m.tick()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, ErrEncounterNotFound
	}
	out := *e
	return &out, nil
}

func (m *mockRepo) Assign(_ context.Context, id, doctorID uuid.UUID) (*Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.Status == StatusCompleted {
		return nil, ErrEncounterNotFound
	}
	e.DoctorID = &doctorID
	e.Status = StatusAssigned
	e.UpdatedAt = m.tick()
	out := *e
	return &out, nil
}

func (m *mockRepo) Complete(_ context.Context, id uuid.UUID, diagnosis, notes string) (*Encounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.Status == StatusCompleted {
		return nil, ErrEncounterNotFound
	}
	e.ProvisionalDiagnosis = diagnosis
	e.VitalsJSON = notes
	e.Status = StatusCompleted
	e.UpdatedAt = m.tick()
	out := *e
	return &out, nil
}

func (m *mockRepo) list(match func(e *Encounter) bool) []Encounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Encounter
	for _, e := range m.rows {
		if match(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Encounter, error) {
	return m.list(func(e *Encounter) bool { return e.PatientID == patientID }), nil
}

func (m *mockRepo) ListByCHW(_ context.Context, chwID uuid.UUID) ([]Encounter, error) {
	return m.list(func(e *Encounter) bool { return e.CHWID == chwID }), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]Encounter, error) {
	return m.list(func(e *Encounter) bool { return e.DoctorID != nil && *e.DoctorID == doctorID }), nil
}

// -- Mock Lookups --

type mockDirectory struct {
	patients map[uuid.UUID]directory.Patient
	users    map[uuid.UUID]directory.User
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return &p, nil
}

func (m *mockDirectory) GetUser(_ context.Context, id uuid.UUID) (*directory.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return &u, nil
}

type recordingEmitter struct {
	types []string
}

func (r *recordingEmitter) Emit(_ context.Context, ev events.Event) {
	r.types = append(r.types, ev.Type)
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	events  *recordingEmitter
	patient uuid.UUID
	chw     uuid.UUID
	doctor  uuid.UUID
	admin   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := &mockDirectory{
		patients: make(map[uuid.UUID]directory.Patient),
		users:    make(map[uuid.UUID]directory.User),
	}
	f := &fixture{
		repo:    newMockRepo(),
		events:  &recordingEmitter{},
		patient: uuid.New(),
		chw:     uuid.New(),
		doctor:  uuid.New(),
		admin:   uuid.New(),
	}
	dir.patients[f.patient] = directory.Patient{ID: f.patient, Name: "Gurpreet", Village: "Rohta"}
	dir.users[f.chw] = directory.User{ID: f.chw, Role: directory.RoleCHW, FullName: "Asha Kaur"}
	dir.users[f.doctor] = directory.User{ID: f.doctor, Role: directory.RoleDoctor, FullName: "Dr. Gill"}
	dir.users[f.admin] = directory.User{ID: f.admin, Role: directory.RoleAdmin, FullName: "Ops"}

	f.svc = NewService(f.repo, dir, dir, WithEvents(f.events))
	return f
}

func (f *fixture) create(t *testing.T) *Encounter {
	t.Helper()
	sugar := 142.5
	e, err := f.svc.CreateEncounter(context.Background(), f.patient, f.chw, ClinicalPayload{
		Symptoms:             "fever, cough",
		ProvisionalDiagnosis: "viral fever",
		BloodSugar:           &sugar,
		VitalsJSON:           `{"bp":"120/80"}`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return e
}

func TestCreateEncounter(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)

	if e.Status != StatusOpen || e.DoctorID != nil {
		t.Fatalf("expected OPEN without doctor, got %s / %v", e.Status, e.DoctorID)
	}
	if e.Symptoms != "fever, cough" || e.BloodSugar == nil || *e.BloodSugar != 142.5 {
		t.Errorf("payload not passed through: %+v", e.ClinicalPayload)
	}
	if len(f.events.types) != 1 || f.events.types[0] != events.EncounterCreated {
		t.Errorf("unexpected events %v", f.events.types)
	}
}

func TestCreateEncounter_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateEncounter(ctx, uuid.New(), f.chw, ClinicalPayload{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown patient: expected not found, got %v", err)
	}
	if _, err := f.svc.CreateEncounter(ctx, f.patient, uuid.New(), ClinicalPayload{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown chw: expected not found, got %v", err)
	}
	if _, err := f.svc.CreateEncounter(ctx, f.patient, f.doctor, ClinicalPayload{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("doctor as chw: expected validation error, got %v", err)
	}
	if len(f.repo.rows) != 0 {
		t.Fatalf("expected no writes, got %d", len(f.repo.rows))
	}
}

func TestAssignDoctor(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)

	updated, err := f.svc.AssignDoctor(context.Background(), e.ID, f.doctor)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.Status != StatusAssigned || updated.DoctorID == nil || *updated.DoctorID != f.doctor {
		t.Fatalf("unexpected encounter %+v", updated)
	}
	if !updated.UpdatedAt.After(e.UpdatedAt) {
		t.Errorf("updatedAt not refreshed")
	}

	// reassigning an ASSIGNED encounter is allowed
	if _, err := f.svc.AssignDoctor(context.Background(), e.ID, f.doctor); err != nil {
		t.Fatalf("reassign: %v", err)
	}
}

func TestAssignDoctor_Errors(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.AssignDoctor(ctx, uuid.New(), f.doctor); !errors.Is(err, ErrEncounterNotFound) {
		t.Errorf("missing encounter: expected not found, got %v", err)
	}
	if _, err := f.svc.AssignDoctor(ctx, e.ID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing doctor: expected not found, got %v", err)
	}
	if _, err := f.svc.AssignDoctor(ctx, e.ID, f.admin); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("non-doctor: expected validation error, got %v", err)
	}

	stored, _ := f.svc.GetEncounter(ctx, e.ID)
	if stored.Status != StatusOpen || stored.DoctorID != nil {
		t.Errorf("failed assignments modified the encounter: %+v", stored)
	}
}

func TestAssignDoctor_CompletedIsConflict(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.CompleteEncounter(ctx, e.ID, "dengue", "platelets low"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.AssignDoctor(ctx, e.ID, f.doctor); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCompleteEncounter(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.AssignDoctor(ctx, e.ID, f.doctor); err != nil {
		t.Fatalf("assign: %v", err)
	}
	done, err := f.svc.CompleteEncounter(ctx, e.ID, "dengue", "platelets low")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.ProvisionalDiagnosis != "dengue" || done.VitalsJSON != "platelets low" {
		t.Fatalf("unexpected encounter %+v", done)
	}
	if done.Symptoms != "fever, cough" {
		t.Errorf("symptoms should be untouched, got %q", done.Symptoms)
	}
}

func TestCompleteEncounter_TwiceIsConflictAndLeavesFields(t *testing.T) {
	f := newFixture(t)
	e := f.create(t)
	ctx := context.Background()

	first, err := f.svc.CompleteEncounter(ctx, e.ID, "dengue", "platelets low")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = f.svc.CompleteEncounter(ctx, e.ID, "malaria", "changed my mind")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	stored, _ := f.svc.GetEncounter(ctx, e.ID)
	if stored.ProvisionalDiagnosis != "dengue" || stored.VitalsJSON != "platelets low" ||
		!stored.UpdatedAt.Equal(first.UpdatedAt) {
		t.Errorf("fields changed after rejected completion: %+v", stored)
	}
}

func TestCompleteEncounter_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CompleteEncounter(context.Background(), uuid.New(), "x", "y"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	older := f.create(t)
	newer := f.create(t)
	if _, err := f.svc.AssignDoctor(ctx, older.ID, f.doctor); err != nil {
		t.Fatalf("assign: %v", err)
	}

	byPatient, _ := f.svc.ListByPatient(ctx, f.patient)
	if len(byPatient) != 2 || byPatient[0].ID != newer.ID {
		t.Errorf("expected newest first, got %+v", byPatient)
	}
	byCHW, _ := f.svc.ListByCHW(ctx, f.chw)
	if len(byCHW) != 2 {
		t.Errorf("expected 2 for chw, got %d", len(byCHW))
	}
	byDoctor, _ := f.svc.ListByDoctor(ctx, f.doctor)
	if len(byDoctor) != 1 || byDoctor[0].ID != older.ID {
		t.Errorf("unexpected doctor listing %+v", byDoctor)
	}
	none, _ := f.svc.ListByDoctor(ctx, uuid.New())
	if len(none) != 0 {
		t.Errorf("expected empty listing, got %d", len(none))
	}
}
