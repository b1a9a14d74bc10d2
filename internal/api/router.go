package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/booking"
)

type RouterConfig struct {
	Availability *availability.Service
	Slots        *booking.SlotService
	Appointments *booking.AppointmentService
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/availabilities", func(r chi.Router) {
		r.Post("/", createAvailabilityHandler(cfg.Availability))
		r.Get("/{id}", getAvailabilityHandler(cfg.Availability))
		r.Put("/{id}", updateAvailabilityHandler(cfg.Availability))
		r.Post("/{id}/toggle", toggleAvailabilityHandler(cfg.Availability))
		r.Delete("/{id}", deleteAvailabilityHandler(cfg.Availability))
	})

	r.Route("/slots", func(r chi.Router) {
		r.Post("/", createSlotHandler(cfg.Slots))
		r.Get("/{id}", getSlotHandler(cfg.Slots))
		r.Put("/{id}", updateSlotHandler(cfg.Slots))
		r.Delete("/{id}", deleteSlotHandler(cfg.Slots))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Appointments))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Appointments))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		r.Post("/{id}/confirm", transitionAppointmentHandler(func(req *http.Request, id uuid.UUID) (*booking.Appointment, error) {
			return cfg.Appointments.ConfirmAppointment(req.Context(), id)
		}))
		r.Post("/{id}/terminate", transitionAppointmentHandler(func(req *http.Request, id uuid.UUID) (*booking.Appointment, error) {
			return cfg.Appointments.TerminateAppointment(req.Context(), id)
		}))
		r.Post("/{id}/cancel", transitionAppointmentHandler(func(req *http.Request, id uuid.UUID) (*booking.Appointment, error) {
			return cfg.Appointments.CancelAppointment(req.Context(), id)
		}))
	})

	r.Get("/doctors/{id}/availabilities", listDoctorAvailabilityHandler(cfg.Availability))
	r.Get("/doctors/{id}/slots", listDoctorSlotsHandler(cfg.Slots))
	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Appointments))

	return r
}
