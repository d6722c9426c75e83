package encounter

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusAssigned  Status = "ASSIGNED"
	StatusCompleted Status = "COMPLETED"
)

// ClinicalPayload is recorded by the CHW and passed through untouched until
// the encounter is completed.
type ClinicalPayload struct {
	Symptoms             string
	ProvisionalDiagnosis string
	RiskScore            *float64
	BloodSugar           *float64
	VitalsJSON           string
}

type Encounter struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	CHWID     uuid.UUID
	DoctorID  *uuid.UUID
	Status    Status
	ClinicalPayload
	CreatedAt time.Time
	UpdatedAt time.Time
}
