package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/apperr"
	"github.com/hackgods/telemed-routing/internal/config"
	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/events"
	redisclient "github.com/hackgods/telemed-routing/internal/redis"
	"github.com/hackgods/telemed-routing/internal/routing"
)

var (
	ErrBookingContended  = apperr.Conflict("doctor is being booked by another request, retry shortly")
	ErrCancelCompleted   = apperr.Conflict("cannot cancel a completed appointment")
	ErrCompleteCancelled = apperr.Conflict("cannot complete a cancelled appointment")
)

// errNoLongerQueued aborts a reassignment whose appointment was cancelled or
// assigned by someone else while the cascade ran.
var errNoLongerQueued = errors.New("appointment no longer queued")

type Service struct {
	repo      Repository
	dir       directory.Directory
	table     *routing.Table
	resolver  *routing.Resolver
	selector  *routing.Selector
	conflicts *routing.ConflictDetector
	locker    redisclient.Locker
	events    events.Emitter
	log       zerolog.Logger
	loc       *time.Location
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "appointment").Logger() }
}

func WithEvents(e events.Emitter) Option {
	return func(s *Service) { s.events = e }
}

// WithClock overrides the source of "now" used for past-time validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, dir directory.Directory, table *routing.Table, locker redisclient.Locker, cfg config.Config, opts ...Option) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	conflicts := routing.NewConflictDetector(repo)
	s := &Service{
		repo:      repo,
		dir:       dir,
		table:     table,
		resolver:  routing.NewResolver(dir, routing.WithDefaultDistrict(cfg.DefaultDistrict)),
		selector:  routing.NewSelector(conflicts),
		conflicts: conflicts,
		locker:    locker,
		events:    events.Discard,
		log:       zerolog.Nop(),
		loc:       loc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookAppointment validates the window, tries the explicit doctor when one is
// requested and otherwise routes through the geographic tiers. Exhausting
// every tier is not an error: the appointment is stored queued with no doctor.
//
// Each doctor bind happens under that doctor's lock with the overlap count
// re-read inside it, so concurrent bookings cannot push a doctor past
// capacity.
func (s *Service) BookAppointment(ctx context.Context, req BookRequest) (*Appointment, error) {
	start, err := ParseFlexible(req.StartTime, s.loc)
	if err != nil {
		return nil, err
	}
	end, err := ParseFlexible(req.EndTime, s.loc)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, apperr.Validation("end time must be after start time")
	}
	if start.Before(s.now().In(s.loc)) {
		return nil, apperr.Validation("start time must not be in the past")
	}
	typ, err := ParseType(req.Type)
	if err != nil {
		return nil, err
	}

	patient, err := s.dir.GetPatient(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	village := strings.TrimSpace(req.PatientVillage)
	if village == "" {
		village = strings.TrimSpace(patient.Village)
	}

	draft := Appointment{
		ID:             uuid.New(),
		PatientID:      patient.ID,
		StartTime:      start,
		EndTime:        end,
		Type:           typ,
		Status:         StatusScheduled,
		RoutingStatus:  RoutingRequested,
		Symptoms:       req.Symptoms,
		TeleSlotID:     req.TeleSlotID,
		PatientVillage: village,
	}

	if req.DoctorID != nil {
		created, err := s.bookExplicit(ctx, draft, *req.DoctorID)
		if err != nil {
			return nil, err
		}
		if created != nil {
			s.emit(ctx, events.AppointmentBooked, created, map[string]any{
				"tier":      routing.TierExplicit,
				"doctor_id": created.DoctorID.String(),
			})
			return created, nil
		}
		s.log.Debug().
			Str("appointment_id", draft.ID.String()).
			Str("doctor_id", req.DoctorID.String()).
			Msg("requested doctor has an overlapping booking, routing automatically")
	}

	return s.bookRouted(ctx, draft, *patient)
}

// bookExplicit returns nil, nil when the requested doctor already has an
// overlapping booking and the request should be routed instead.
func (s *Service) bookExplicit(ctx context.Context, draft Appointment, doctorID uuid.UUID) (*Appointment, error) {
	user, err := s.dir.GetUser(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, directory.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor user: %w", err)
	}
	if user.Role != directory.RoleDoctor {
		return nil, apperr.Validation("user %s is not a doctor", doctorID)
	}

	hospital := s.table.FacilityFor(draft.PatientVillage)
	doc, err := s.dir.FindByID(ctx, doctorID)
	switch {
	case err == nil:
		if doc.Hospital != "" {
			hospital = doc.Hospital
		}
	case !errors.Is(err, directory.ErrDoctorNotFound):
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}

	var created *Appointment
	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		n, err := s.conflicts.CountOverlapping(lockCtx, doctorID, draft.StartTime, draft.EndTime)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		a := draft
		a.DoctorID = &doctorID
		a.RoutingStatus = RoutingAssigned
		a.AssignedHospital = hospital
		created, err = s.repo.Create(lockCtx, &a)
		return err
	})
	if err != nil {
		return nil, lockError(err)
	}
	return created, nil
}

func (s *Service) bookRouted(ctx context.Context, draft Appointment, patient directory.Patient) (*Appointment, error) {
	var (
		created *Appointment
		tally   claimTally
	)
	claim := s.lockedClaim(&tally, func(lockCtx context.Context, d directory.Doctor) (bool, error) {
		ok, err := s.conflicts.HasCapacity(lockCtx, d, draft.StartTime, draft.EndTime)
		if err != nil || !ok {
			return false, err
		}

		doctorID := d.ID
		a := draft
		a.DoctorID = &doctorID
		a.RoutingStatus = RoutingAssigned
		a.AssignedHospital = d.Hospital
		created, err = s.repo.Create(lockCtx, &a)
		return created != nil, err
	})

	tiers := s.resolver.GeographicTiers(patient, draft.PatientVillage)
	res, err := s.selector.Cascade(ctx, tiers, claim)
	if err != nil {
		return nil, lockError(err)
	}
	if !res.Assigned() && tally.allContended() {
		return nil, ErrBookingContended
	}

	logger := s.log.With().
		Str("appointment_id", draft.ID.String()).
		Str("village", draft.PatientVillage).
		Logger()

	if res.Assigned() {
		logger.Debug().
			Str("tier", string(res.Tier)).
			Str("doctor_id", res.Doctor.ID.String()).
			Msg("appointment routed")
		s.emit(ctx, events.AppointmentBooked, created, map[string]any{
			"tier":      res.Tier,
			"doctor_id": res.Doctor.ID.String(),
			"assigning": res.Exhausted(),
			"trace":     res.Trace,
		})
		return created, nil
	}

	if res.Exhausted() {
		logger.Debug().Msg("candidates found but none had capacity, appointment was assigning")
	}

	draft.RoutingStatus = RoutingNoDoctorAvailable
	draft.AssignedHospital = s.table.FacilityFor(draft.PatientVillage)
	created, err = s.repo.Create(ctx, &draft)
	if err != nil {
		return nil, fmt.Errorf("create queued appointment: %w", err)
	}

	logger.Info().
		Str("facility", created.AssignedHospital).
		Msg("no doctor available, appointment queued")
	s.emit(ctx, events.AppointmentQueued, created, map[string]any{
		"facility":  created.AssignedHospital,
		"assigning": res.Exhausted(),
		"trace":     res.Trace,
	})
	return created, nil
}

// CancelAppointment is idempotent for cancelled appointments.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, StatusCancelled)
	if err == nil {
		s.emit(ctx, events.AppointmentCancelled, updated, nil)
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return s.settled(ctx, id, StatusCancelled, ErrCancelCompleted)
}

// CompleteAppointment is idempotent for completed appointments.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, StatusCompleted)
	if err == nil {
		s.emit(ctx, events.AppointmentCompleted, updated, nil)
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	return s.settled(ctx, id, StatusCompleted, ErrCompleteCancelled)
}

// settled classifies a status update that matched no SCHEDULED row: the
// appointment is missing, already in the target state, or blocked.
func (s *Service) settled(ctx context.Context, id uuid.UUID, target Status, blocked error) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if current.Status == target {
		return current, nil
	}
	return nil, blocked
}

// AssignDoctor is the operator override. It binds the doctor without any
// conflict check.
func (s *Service) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	user, err := s.dir.GetUser(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, directory.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor user: %w", err)
	}
	if user.Role != directory.RoleDoctor {
		return nil, apperr.Validation("user %s is not a doctor", doctorID)
	}

	var hospital *string
	doc, err := s.dir.FindByID(ctx, doctorID)
	switch {
	case err == nil && doc.Hospital != "":
		hospital = &doc.Hospital
	case err != nil && !errors.Is(err, directory.ErrDoctorNotFound):
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}

	updated, err := s.repo.AssignDoctor(ctx, id, doctorID, hospital)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("assign doctor: %w", err)
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Msg("doctor assigned by override")
	s.emit(ctx, events.AppointmentDoctorAssigned, updated, map[string]any{
		"doctor_id": doctorID.String(),
	})
	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Service) ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	list, err := s.repo.ListScheduledByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return list, nil
}

func (s *Service) ListUpcomingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	list, err := s.repo.ListScheduledByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return list, nil
}

// ReassignQueued re-routes up to limit future appointments that were stored
// without a doctor. It is intended to be called by the worker periodically
// and returns how many were bound. A failure on one appointment is logged
// and does not stop the pass.
func (s *Service) ReassignQueued(ctx context.Context, limit int) (int, error) {
	queued, err := s.repo.FindQueued(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("find queued appointments: %w", err)
	}

	bound := 0
	for _, a := range queued {
		if ctx.Err() != nil {
			return bound, ctx.Err()
		}

		updated, res, err := s.reassign(ctx, a)
		switch {
		case errors.Is(err, errNoLongerQueued):
			continue
		case err != nil:
			s.log.Warn().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("reassignment failed")
			continue
		case updated == nil:
			continue
		}

		bound++
		s.log.Info().
			Str("appointment_id", a.ID.String()).
			Str("doctor_id", res.Doctor.ID.String()).
			Str("tier", string(res.Tier)).
			Msg("queued appointment reassigned")
		s.emit(ctx, events.AppointmentReassigned, updated, map[string]any{
			"tier":      res.Tier,
			"doctor_id": res.Doctor.ID.String(),
			"trace":     res.Trace,
		})
	}

	return bound, nil
}

func (s *Service) reassign(ctx context.Context, a Appointment) (*Appointment, routing.Result, error) {
	patient, err := s.dir.GetPatient(ctx, a.PatientID)
	if err != nil {
		return nil, routing.Result{}, fmt.Errorf("load patient: %w", err)
	}

	var (
		updated *Appointment
		tally   claimTally
	)
	claim := s.lockedClaim(&tally, func(lockCtx context.Context, d directory.Doctor) (bool, error) {
		ok, err := s.conflicts.HasCapacity(lockCtx, d, a.StartTime, a.EndTime)
		if err != nil || !ok {
			return false, err
		}
		updated, err = s.repo.BindQueued(lockCtx, a.ID, d.ID, d.Hospital)
		if errors.Is(err, ErrAppointmentNotFound) {
			return false, errNoLongerQueued
		}
		return updated != nil, err
	})

	res, err := s.selector.Cascade(ctx, s.resolver.GeographicTiers(*patient, a.PatientVillage), claim)
	if err != nil {
		return nil, res, err
	}
	return updated, res, nil
}

func (s *Service) emit(ctx context.Context, eventType string, a *Appointment, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["patient_id"] = a.PatientID.String()
	payload["status"] = a.Status
	payload["routing_status"] = a.RoutingStatus

	s.events.Emit(ctx, events.Event{
		Type:     eventType,
		Entity:   events.EntityAppointment,
		EntityID: a.ID,
		Payload:  payload,
	})
}

// claimTally counts the candidates a cascade offered and how many of them
// were skipped because another request held the doctor's lock.
type claimTally struct {
	attempted int
	contended int
}

func (t claimTally) allContended() bool {
	return t.attempted > 0 && t.contended == t.attempted
}

// lockedClaim runs bind under the candidate's lock. A doctor whose lock is
// held elsewhere is not claimable; the scan moves on to the next candidate.
func (s *Service) lockedClaim(tally *claimTally, bind routing.ClaimFunc) routing.ClaimFunc {
	return func(ctx context.Context, d directory.Doctor) (bool, error) {
		tally.attempted++
		var bound bool
		err := s.locker.WithDoctorLock(ctx, d.ID, func(lockCtx context.Context) error {
			var err error
			bound, err = bind(lockCtx, d)
			return err
		})
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			tally.contended++
			s.log.Debug().
				Str("doctor_id", d.ID.String()).
				Msg("doctor lock held by another request, trying next candidate")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return bound, nil
	}
}

func lockError(err error) error {
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrBookingContended
	}
	return err
}
