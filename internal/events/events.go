package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	AppointmentBooked         = "APPOINTMENT_BOOKED"
	AppointmentQueued         = "APPOINTMENT_QUEUED"
	AppointmentCancelled      = "APPOINTMENT_CANCELLED"
	AppointmentCompleted      = "APPOINTMENT_COMPLETED"
	AppointmentDoctorAssigned = "APPOINTMENT_DOCTOR_ASSIGNED"
	AppointmentReassigned     = "APPOINTMENT_REASSIGNED"

	EncounterCreated   = "ENCOUNTER_CREATED"
	EncounterAssigned  = "ENCOUNTER_ASSIGNED"
	EncounterCompleted = "ENCOUNTER_COMPLETED"
)

const (
	EntityAppointment = "appointment"
	EntityEncounter   = "encounter"
)

type Event struct {
	Type       string         `json:"type"`
	Entity     string         `json:"entity"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Emitter records lifecycle events. Emit never fails the caller.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Store persists the audit trail.
type Store interface {
	InsertEvent(ctx context.Context, ev Event) error
}

// Publisher fans events out to other services.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Recorder writes each event to the store and then the publisher. Either may
// be nil. Failures are logged and swallowed.
type Recorder struct {
	store     Store
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewRecorder(store Store, publisher Publisher, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		log:       log.With().Str("component", "events").Logger(),
		now:       time.Now,
	}
}

func (r *Recorder) Emit(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = r.now()
	}

	if r.store != nil {
		if err := r.store.InsertEvent(ctx, ev); err != nil {
			r.log.Error().Err(err).
				Str("event", ev.Type).
				Str("entity_id", ev.EntityID.String()).
				Msg("failed to insert event log")
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.log.Warn().Err(err).
				Str("event", ev.Type).
				Str("entity_id", ev.EntityID.String()).
				Msg("failed to publish event")
		}
	}
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) {}
