package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

var ErrAppointmentNotFound = apperr.NotFound("appointment")

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks
	CountOverlappingScheduled(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error)

	// Conditional updates. Each returns ErrAppointmentNotFound when no row
	// matched, which includes rows whose current state blocks the change.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	AssignDoctor(ctx context.Context, id, doctorID uuid.UUID, hospital *string) (*Appointment, error)
	BindQueued(ctx context.Context, id, doctorID uuid.UUID, hospital string) (*Appointment, error)

	// Listings, ordered by start time then id
	ListScheduledByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListScheduledByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// Reassignment worker
	FindQueued(ctx context.Context, startingAfter time.Time, limit int) ([]Appointment, error)
}
