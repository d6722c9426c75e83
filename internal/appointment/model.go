package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// RoutingStatus tracks doctor assignment progress. It moves independently of
// Status.
type RoutingStatus string

const (
	RoutingRequested         RoutingStatus = "REQUESTED"
	RoutingAssigning         RoutingStatus = "ASSIGNING"
	RoutingAssigned          RoutingStatus = "ASSIGNED"
	RoutingNoDoctorAvailable RoutingStatus = "NO_DOCTOR_AVAILABLE"
)

type Type string

const (
	TypeVideo    Type = "VIDEO"
	TypeAudio    Type = "AUDIO"
	TypeInPerson Type = "IN_PERSON"
)

// ParseType defaults a blank type to VIDEO.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return TypeVideo, nil
	case TypeVideo, TypeAudio, TypeInPerson:
		return t, nil
	default:
		return "", apperr.Validation("unknown appointment type %q", s)
	}
}

type Appointment struct {
	ID               uuid.UUID
	PatientID        uuid.UUID
	DoctorID         *uuid.UUID
	StartTime        time.Time
	EndTime          time.Time
	Type             Type
	Status           Status
	RoutingStatus    RoutingStatus
	AssignedHospital string
	Symptoms         string
	TeleSlotID       string
	PatientVillage   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BookRequest carries raw caller input. Times are parsed by the service so a
// malformed timestamp fails the same way as any other invalid input.
type BookRequest struct {
	PatientID      uuid.UUID
	StartTime      string
	EndTime        string
	Type           string
	DoctorID       *uuid.UUID
	PatientVillage string
	Symptoms       string
	TeleSlotID     string
}
