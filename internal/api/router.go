package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/routing"
)

type RouterConfig struct {
	Appointments AppointmentService
	Encounters   EncounterService
	Doctors      DoctorService
	Names        NameResolver
	Table        *routing.Table
	Postgres     Pinger
	Redis        Pinger
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	appts := &appointmentHandlers{svc: cfg.Appointments, names: cfg.Names, log: cfg.Logger}
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", appts.book)
		r.Get("/{id}", appts.get)
		r.Post("/{id}/cancel", appts.cancel)
		r.Post("/{id}/complete", appts.complete)
		r.Post("/{id}/assign", appts.assign)
	})

	encs := &encounterHandlers{svc: cfg.Encounters, names: cfg.Names, log: cfg.Logger}
	r.Route("/encounters", func(r chi.Router) {
		r.Post("/", encs.create)
		r.Get("/{id}", encs.get)
		r.Post("/{id}/assign", encs.assign)
		r.Post("/{id}/complete", encs.complete)
	})

	r.Get("/patients/{id}/appointments", appts.listForPatient)
	r.Get("/doctors/{id}/appointments", appts.listForDoctor)
	r.Get("/patients/{id}/encounters", encs.listForPatient)
	r.Get("/chws/{id}/encounters", encs.listForCHW)
	r.Get("/doctors/{id}/encounters", encs.listForDoctor)

	docs := &doctorHandlers{svc: cfg.Doctors, log: cfg.Logger}
	r.Put("/doctors/{id}/status", docs.updateStatus)

	r.Get("/routing/villages/{village}", routingLookupHandler(cfg.Table))

	return r
}

func routingLookupHandler(table *routing.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		village, err := url.PathUnescape(chi.URLParam(r, "village"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_village", "village is not a valid path segment")
			return
		}
		village = strings.TrimSpace(village)
		writeJSON(w, http.StatusOK, RoutingResponse{
			Village:  village,
			Facility: table.FacilityFor(village),
			Mapped:   table.Mapped(village),
		})
	}
}
