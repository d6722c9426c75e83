package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/directory"
)

type DoctorService interface {
	UpdateDoctorStatus(ctx context.Context, id uuid.UUID, status directory.DoctorStatus) (*directory.Doctor, error)
}

type doctorHandlers struct {
	svc DoctorService
	log zerolog.Logger
}

func (h *doctorHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"), "doctor_id")
	if !ok {
		return
	}
	var req UpdateDoctorStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := directory.ParseDoctorStatus(req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	doc, err := h.svc.UpdateDoctorStatus(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.log.Info().
		Str("doctor_id", id.String()).
		Str("status", string(doc.Status)).
		Msg("doctor status updated")
	writeJSON(w, http.StatusOK, toDoctorResponse(*doc))
}
