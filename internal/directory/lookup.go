package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

var (
	ErrPatientNotFound = apperr.NotFound("patient")
	ErrUserNotFound    = apperr.NotFound("user")
	ErrDoctorNotFound  = apperr.NotFound("doctor")
)

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// DoctorLookup answers the geographic candidate queries. Name matching is
// case-insensitive and results come back in a stable order.
type DoctorLookup interface {
	FindByVillage(ctx context.Context, village string) ([]Doctor, error)
	FindByBlock(ctx context.Context, block string) ([]Doctor, error)
	FindByDistrict(ctx context.Context, district string) ([]Doctor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}

// Directory bundles every collaborator lookup the scheduling core consumes.
type Directory interface {
	PatientLookup
	UserLookup
	DoctorLookup
}
