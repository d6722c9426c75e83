package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hackgods/telemed-routing/internal/appointment"
)

type AppointmentService interface {
	BookAppointment(ctx context.Context, req appointment.BookRequest) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	CompleteAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*appointment.Appointment, error)
	ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID) ([]appointment.Appointment, error)
	ListUpcomingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error)
}

type appointmentHandlers struct {
	svc   AppointmentService
	names NameResolver
	log   zerolog.Logger
}

func (h *appointmentHandlers) book(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patientID, ok := parseUUID(w, req.PatientID, "patient_id")
	if !ok {
		return
	}

	book := appointment.BookRequest{
		PatientID:      patientID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Type:           req.AppointmentType,
		PatientVillage: req.PatientVillage,
		Symptoms:       req.Symptoms,
		TeleSlotID:     req.TeleSlotID,
	}
	if req.DoctorID != nil && *req.DoctorID != "" {
		doctorID, ok := parseUUID(w, *req.DoctorID, "doctor_id")
		if !ok {
			return
		}
		book.DoctorID = &doctorID
	}

	appt, err := h.svc.BookAppointment(r.Context(), book)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(r.Context(), h.names, *appt))
}

func (h *appointmentHandlers) get(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.svc.GetAppointment)
}

func (h *appointmentHandlers) cancel(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.svc.CancelAppointment)
}

func (h *appointmentHandlers) complete(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.svc.CompleteAppointment)
}

func (h *appointmentHandlers) single(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*appointment.Appointment, error)) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "appointment_id")
	if !ok {
		return
	}

	appt, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(r.Context(), h.names, *appt))
}

func (h *appointmentHandlers) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "appointment_id")
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

	appt, err := h.svc.AssignDoctor(r.Context(), id, doctorID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(r.Context(), h.names, *appt))
}

func (h *appointmentHandlers) listForPatient(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "patient_id", h.svc.ListUpcomingForPatient)
}

func (h *appointmentHandlers) listForDoctor(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "doctor_id", h.svc.ListUpcomingForDoctor)
}

func (h *appointmentHandlers) list(w http.ResponseWriter, r *http.Request, field string, op func(context.Context, uuid.UUID) ([]appointment.Appointment, error)) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), field)
	if !ok {
		return
	}

	appts, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(appts, func(a appointment.Appointment, _ int) AppointmentResponse {
		return toAppointmentResponse(r.Context(), h.names, a)
	}))
}
