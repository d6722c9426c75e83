package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hackgods/telemed-routing/internal/encounter"
)

type EncounterService interface {
	CreateEncounter(ctx context.Context, patientID, chwID uuid.UUID, payload encounter.ClinicalPayload) (*encounter.Encounter, error)
	GetEncounter(ctx context.Context, id uuid.UUID) (*encounter.Encounter, error)
	AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*encounter.Encounter, error)
	CompleteEncounter(ctx context.Context, id uuid.UUID, finalDiagnosis, finalNotes string) (*encounter.Encounter, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]encounter.Encounter, error)
	ListByCHW(ctx context.Context, chwID uuid.UUID) ([]encounter.Encounter, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]encounter.Encounter, error)
}

type encounterHandlers struct {
	svc   EncounterService
	names NameResolver
	log   zerolog.Logger
}

func (h *encounterHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateEncounterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patientID, ok := parseUUID(w, req.PatientID, "patient_id")
	if !ok {
		return
	}
	chwID, ok := parseUUID(w, req.CHWID, "chw_id")
	if !ok {
		return
	}

	enc, err := h.svc.CreateEncounter(r.Context(), patientID, chwID, encounter.ClinicalPayload{
		Symptoms:             req.Symptoms,
		ProvisionalDiagnosis: req.ProvisionalDiagnosis,
		RiskScore:            req.RiskScore,
		BloodSugar:           req.BloodSugar,
		VitalsJSON:           req.VitalsJSON,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEncounterResponse(r.Context(), h.names, *enc))
}

func (h *encounterHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "encounter_id")
	if !ok {
		return
	}
	enc, err := h.svc.GetEncounter(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEncounterResponse(r.Context(), h.names, *enc))
}

func (h *encounterHandlers) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "encounter_id")
	if !ok {
		return
	}
	var req AssignDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doctorID, ok := parseUUID(w, req.DoctorID, "doctor_id")
	if !ok {
		return
	}

	enc, err := h.svc.AssignDoctor(r.Context(), id, doctorID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEncounterResponse(r.Context(), h.names, *enc))
}

func (h *encounterHandlers) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "encounter_id")
	if !ok {
		return
	}
	var req CompleteEncounterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	enc, err := h.svc.CompleteEncounter(r.Context(), id, req.FinalDiagnosis, req.FinalNotes)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toEncounterResponse(r.Context(), h.names, *enc))
}

func (h *encounterHandlers) listForPatient(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "patient_id", h.svc.ListByPatient)
}

func (h *encounterHandlers) listForCHW(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "chw_id", h.svc.ListByCHW)
}

func (h *encounterHandlers) listForDoctor(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "doctor_id", h.svc.ListByDoctor)
}

func (h *encounterHandlers) list(w http.ResponseWriter, r *http.Request, field string, op func(context.Context, uuid.UUID) ([]encounter.Encounter, error)) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), field)
	if !ok {
		return
	}
	encs, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(encs, func(e encounter.Encounter, _ int) EncounterResponse {
		return toEncounterResponse(r.Context(), h.names, e)
	}))
}
