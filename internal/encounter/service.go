package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/apperr"
	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/events"
)

var (
	ErrCHWNotFound        = apperr.NotFound("chw user")
	ErrDoctorUserNotFound = apperr.NotFound("doctor user")
	ErrAlreadyCompleted   = apperr.Conflict("encounter already completed")
)

// Service runs the OPEN -> ASSIGNED -> COMPLETED workflow. Encounters are not
// time-boxed, so doctor assignment here never consults capacity.
type Service struct {
	repo     Repository
	patients directory.PatientLookup
	users    directory.UserLookup
	events   events.Emitter
	log      zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "encounter").Logger() }
}

func WithEvents(e events.Emitter) Option {
	return func(s *Service) { s.events = e }
}

func NewService(repo Repository, patients directory.PatientLookup, users directory.UserLookup, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		patients: patients,
		users:    users,
		events:   events.Discard,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateEncounter(ctx context.Context, patientID, chwID uuid.UUID, payload ClinicalPayload) (*Encounter, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	chw, err := s.users.GetUser(ctx, chwID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrCHWNotFound
		}
		return nil, fmt.Errorf("load chw: %w", err)
	}
	if chw.Role != directory.RoleCHW {
		return nil, apperr.Validation("user %s is not a community health worker", chwID)
	}

	created, err := s.repo.Create(ctx, &Encounter{
		ID:              uuid.New(),
		PatientID:       patientID,
		CHWID:           chwID,
		Status:          StatusOpen,
		ClinicalPayload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("create encounter: %w", err)
	}

	s.emit(ctx, events.EncounterCreated, created)
	return created, nil
}

func (s *Service) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Encounter, error) {
	if _, err := s.GetEncounter(ctx, id); err != nil {
		return nil, err
	}

	doctor, err := s.users.GetUser(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrDoctorUserNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.Role != directory.RoleDoctor {
		return nil, apperr.Validation("user %s is not a doctor", doctorID)
	}

	updated, err := s.repo.Assign(ctx, id, doctorID)
	if err != nil {
		if errors.Is(err, ErrEncounterNotFound) {
			return nil, s.blocked(ctx, id)
		}
		return nil, fmt.Errorf("assign encounter: %w", err)
	}

	s.log.Info().
		Str("encounter_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Msg("encounter assigned")
	s.emit(ctx, events.EncounterAssigned, updated)
	return updated, nil
}

// CompleteEncounter records the final diagnosis over the provisional one and
// the final notes over the vitals payload.
func (s *Service) CompleteEncounter(ctx context.Context, id uuid.UUID, finalDiagnosis, finalNotes string) (*Encounter, error) {
	updated, err := s.repo.Complete(ctx, id, finalDiagnosis, finalNotes)
	if err != nil {
		if errors.Is(err, ErrEncounterNotFound) {
			return nil, s.blocked(ctx, id)
		}
		return nil, fmt.Errorf("complete encounter: %w", err)
	}

	s.emit(ctx, events.EncounterCompleted, updated)
	return updated, nil
}

// blocked explains a conditional update that matched nothing.
func (s *Service) blocked(ctx context.Context, id uuid.UUID) error {
	current, err := s.GetEncounter(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	return fmt.Errorf("encounter %s in state %s was not updated", id, current.Status)
}

func (s *Service) GetEncounter(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEncounterNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get encounter: %w", err)
	}
	return e, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Encounter, error) {
	list, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list encounters by patient: %w", err)
	}
	return list, nil
}

func (s *Service) ListByCHW(ctx context.Context, chwID uuid.UUID) ([]Encounter, error) {
	list, err := s.repo.ListByCHW(ctx, chwID)
	if err != nil {
		return nil, fmt.Errorf("list encounters by chw: %w", err)
	}
	return list, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Encounter, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list encounters by doctor: %w", err)
	}
	return list, nil
}

func (s *Service) emit(ctx context.Context, eventType string, e *Encounter) {
	payload := map[string]any{
		"patient_id": e.PatientID.String(),
		"chw_id":     e.CHWID.String(),
		"status":     e.Status,
	}
	if e.DoctorID != nil {
		payload["doctor_id"] = e.DoctorID.String()
	}
	s.events.Emit(ctx, events.Event{
		Type:     eventType,
		Entity:   events.EntityEncounter,
		EntityID: e.ID,
		Payload:  payload,
	})
}
