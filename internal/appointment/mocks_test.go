package appointment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/events"
	redisclient "github.com/hackgods/telemed-routing/internal/redis"
	"github.com/hackgods/telemed-routing/internal/routing"
)

// -- Mock Repository --

type mockRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*Appointment
	creates int
	// countDelay widens the check-then-write window in concurrency tests.
	countDelay time.Duration
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.ID] = &cp
	m.creates++
	out := cp
	return &out, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (m *mockRepo) CountOverlappingScheduled(_ context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	m.mu.Lock()
	n := 0
	for _, a := range m.rows {
		if a.DoctorID != nil && *a.DoctorID == doctorID && a.Status == StatusScheduled &&
			routing.Overlaps(a.StartTime, a.EndTime, start, end) {
			n++
		}
	}
	m.mu.Unlock()
	if m.countDelay > 0 {
		time.Sleep(m.countDelay)
	}
	return n, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (m *mockRepo) AssignDoctor(_ context.Context, id, doctorID uuid.UUID, hospital *string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.DoctorID = &doctorID
	a.RoutingStatus = RoutingAssigned
	if hospital != nil {
		a.AssignedHospital = *hospital
	}
	out := *a
	return &out, nil
}

func (m *mockRepo) BindQueued(_ context.Context, id, doctorID uuid.UUID, hospital string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.DoctorID != nil || a.Status != StatusScheduled {
		return nil, ErrAppointmentNotFound
	}
	a.DoctorID = &doctorID
	a.RoutingStatus = RoutingAssigned
	a.AssignedHospital = hospital
	out := *a
	return &out, nil
}

func (m *mockRepo) list(match func(a *Appointment) bool) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.rows {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *mockRepo) ListScheduledByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return m.list(func(a *Appointment) bool {
		return a.PatientID == patientID && a.Status == StatusScheduled
	}), nil
}

func (m *mockRepo) ListScheduledByDoctor(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return m.list(func(a *Appointment) bool {
		return a.DoctorID != nil && *a.DoctorID == doctorID && a.Status == StatusScheduled
	}), nil
}

func (m *mockRepo) FindQueued(_ context.Context, startingAfter time.Time, limit int) ([]Appointment, error) {
	out := m.list(func(a *Appointment) bool {
		return a.Status == StatusScheduled && a.RoutingStatus == RoutingNoDoctorAvailable &&
			a.DoctorID == nil && a.StartTime.After(startingAfter)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -- Mock Directory --

type mockDirectory struct {
	mu       sync.Mutex
	patients map[uuid.UUID]directory.Patient
	users    map[uuid.UUID]directory.User
	doctors  []directory.Doctor
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients: make(map[uuid.UUID]directory.Patient),
		users:    make(map[uuid.UUID]directory.User),
	}
}

func (m *mockDirectory) addPatient(name, village, block, district string) directory.Patient {
	p := directory.Patient{ID: uuid.New(), Name: name, Village: village, Block: block, District: district}
	m.patients[p.ID] = p
	return p
}

// addDoctor registers both the user and the doctor profile under one id.
func (m *mockDirectory) addDoctor(name, hospital, block, district string, villages ...string) directory.Doctor {
	d := directory.Doctor{
		ID:               uuid.New(),
		Name:             name,
		Hospital:         hospital,
		Block:            block,
		District:         district,
		Active:           true,
		Status:           directory.DoctorAvailable,
		CoverageVillages: villages,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[d.ID] = directory.User{ID: d.ID, Role: directory.RoleDoctor, FullName: name, Active: true}
	m.doctors = append(m.doctors, d)
	return d
}

func (m *mockDirectory) addUser(name string, role directory.Role) directory.User {
	u := directory.User{ID: uuid.New(), Role: role, FullName: name, Active: true}
	m.users[u.ID] = u
	return u
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return &p, nil
}

func (m *mockDirectory) GetUser(_ context.Context, id uuid.UUID) (*directory.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return &u, nil
}

func (m *mockDirectory) filter(match func(d directory.Doctor) bool) []directory.Doctor {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []directory.Doctor
	for _, d := range m.doctors {
		if match(d) {
			out = append(out, d)
		}
	}
	return out
}

func (m *mockDirectory) FindByVillage(_ context.Context, village string) ([]directory.Doctor, error) {
	return m.filter(func(d directory.Doctor) bool { return d.Covers(village) }), nil
}

func (m *mockDirectory) FindByBlock(_ context.Context, block string) ([]directory.Doctor, error) {
	return m.filter(func(d directory.Doctor) bool { return strings.EqualFold(d.Block, block) }), nil
}

func (m *mockDirectory) FindByDistrict(_ context.Context, district string) ([]directory.Doctor, error) {
	return m.filter(func(d directory.Doctor) bool { return strings.EqualFold(d.District, district) }), nil
}

func (m *mockDirectory) FindByID(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	found := m.filter(func(d directory.Doctor) bool { return d.ID == id })
	if len(found) == 0 {
		return nil, directory.ErrDoctorNotFound
	}
	return &found[0], nil
}

// -- Mock Locker --

type memLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
	// busy makes every acquisition fail as if another holder kept the lock.
	busy bool
	// held fails acquisition for the listed doctors only.
	held map[uuid.UUID]bool
}

func newMemLocker() *memLocker {
	return &memLocker{
		locks: make(map[uuid.UUID]*sync.Mutex),
		held:  make(map[uuid.UUID]bool),
	}
}

func (l *memLocker) hold(doctorID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[doctorID] = true
}

func (l *memLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.busy || l.held[doctorID] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	m, ok := l.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[doctorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// -- Mock Emitter --

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(_ context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
