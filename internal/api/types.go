package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/appointment"
	"github.com/hackgods/telemed-routing/internal/directory"
	"github.com/hackgods/telemed-routing/internal/encounter"
)

type BookAppointmentRequest struct {
	PatientID       string  `json:"patient_id"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	AppointmentType string  `json:"appointment_type"`
	DoctorID        *string `json:"doctor_id,omitempty"`
	PatientVillage  string  `json:"patient_village,omitempty"`
	Symptoms        string  `json:"symptoms,omitempty"`
	TeleSlotID      string  `json:"tele_slot_id,omitempty"`
}

type AssignDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

type UpdateDoctorStatusRequest struct {
	Status string `json:"status"`
}

type CreateEncounterRequest struct {
	PatientID            string   `json:"patient_id"`
	CHWID                string   `json:"chw_id"`
	Symptoms             string   `json:"symptoms,omitempty"`
	ProvisionalDiagnosis string   `json:"provisional_diagnosis,omitempty"`
	RiskScore            *float64 `json:"risk_score,omitempty"`
	BloodSugar           *float64 `json:"blood_sugar,omitempty"`
	VitalsJSON           string   `json:"vitals_json,omitempty"`
}

type CompleteEncounterRequest struct {
	FinalDiagnosis string `json:"final_diagnosis"`
	FinalNotes     string `json:"final_notes"`
}

type AppointmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	PatientName      string     `json:"patient_name,omitempty"`
	DoctorID         *uuid.UUID `json:"doctor_id"`
	DoctorName       string     `json:"doctor_name,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	AppointmentType  string     `json:"appointment_type"`
	Status           string     `json:"status"`
	RoutingStatus    string     `json:"routing_status"`
	AssignedHospital string     `json:"assigned_hospital,omitempty"`
	PatientVillage   string     `json:"patient_village,omitempty"`
	Symptoms         string     `json:"symptoms,omitempty"`
	TeleSlotID       string     `json:"tele_slot_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type EncounterResponse struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	PatientName          string     `json:"patient_name,omitempty"`
	CHWID                uuid.UUID  `json:"chw_id"`
	CHWName              string     `json:"chw_name,omitempty"`
	DoctorID             *uuid.UUID `json:"doctor_id"`
	DoctorName           string     `json:"doctor_name,omitempty"`
	Status               string     `json:"status"`
	Symptoms             string     `json:"symptoms,omitempty"`
	ProvisionalDiagnosis string     `json:"provisional_diagnosis,omitempty"`
	RiskScore            *float64   `json:"risk_score,omitempty"`
	BloodSugar           *float64   `json:"blood_sugar,omitempty"`
	VitalsJSON           string     `json:"vitals_json,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type DoctorResponse struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	Hospital              string    `json:"hospital,omitempty"`
	Block                 string    `json:"block,omitempty"`
	District              string    `json:"district,omitempty"`
	Active                bool      `json:"active"`
	Status                string    `json:"status"`
	Priority              *int      `json:"priority"`
	MaxConcurrentPatients *int      `json:"max_concurrent_patients"`
	CoverageVillages      []string  `json:"coverage_villages"`
}

type RoutingResponse struct {
	Village  string `json:"village"`
	Facility string `json:"facility"`
	Mapped   bool   `json:"mapped"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NameResolver supplies display names for projections. Unknown ids resolve
// to "".
type NameResolver interface {
	PatientName(ctx context.Context, id uuid.UUID) string
	UserName(ctx context.Context, id *uuid.UUID) string
}

// toAppointmentResponse is the single appointment projection. Each name is
// resolved once per entity.
func toAppointmentResponse(ctx context.Context, names NameResolver, a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		PatientID:        a.PatientID,
		PatientName:      names.PatientName(ctx, a.PatientID),
		DoctorID:         a.DoctorID,
		DoctorName:       names.UserName(ctx, a.DoctorID),
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		AppointmentType:  string(a.Type),
		Status:           string(a.Status),
		RoutingStatus:    string(a.RoutingStatus),
		AssignedHospital: a.AssignedHospital,
		PatientVillage:   a.PatientVillage,
		Symptoms:         a.Symptoms,
		TeleSlotID:       a.TeleSlotID,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toEncounterResponse(ctx context.Context, names NameResolver, e encounter.Encounter) EncounterResponse {
	chwID := e.CHWID
	return EncounterResponse{
		ID:                   e.ID,
		PatientID:            e.PatientID,
		PatientName:          names.PatientName(ctx, e.PatientID),
		CHWID:                e.CHWID,
		CHWName:              names.UserName(ctx, &chwID),
		DoctorID:             e.DoctorID,
		DoctorName:           names.UserName(ctx, e.DoctorID),
		Status:               string(e.Status),
		Symptoms:             e.Symptoms,
		ProvisionalDiagnosis: e.ProvisionalDiagnosis,
		RiskScore:            e.RiskScore,
		BloodSugar:           e.BloodSugar,
		VitalsJSON:           e.VitalsJSON,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func toDoctorResponse(d directory.Doctor) DoctorResponse {
	villages := d.CoverageVillages
	if villages == nil {
		villages = []string{}
	}
	return DoctorResponse{
		ID:                    d.ID,
		Name:                  d.Name,
		Hospital:              d.Hospital,
		Block:                 d.Block,
		District:              d.District,
		Active:                d.Active,
		Status:                string(d.Status),
		Priority:              d.Priority,
		MaxConcurrentPatients: d.MaxConcurrentPatients,
		CoverageVillages:      villages,
	}
}
