package encounter

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

var ErrEncounterNotFound = apperr.NotFound("encounter")

type Repository interface {
	Create(ctx context.Context, e *Encounter) (*Encounter, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)

	// Assign and Complete only touch encounters that are not COMPLETED and
	// return ErrEncounterNotFound when nothing matched.
	Assign(ctx context.Context, id, doctorID uuid.UUID) (*Encounter, error)
	Complete(ctx context.Context, id uuid.UUID, diagnosis, notes string) (*Encounter, error)

	// Listings, newest first
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Encounter, error)
	ListByCHW(ctx context.Context, chwID uuid.UUID) ([]Encounter, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Encounter, error)
}
