package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/auth"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/donation"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/request"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

type AppointmentService interface {
	Book(ctx context.Context, in appointment.BookInput) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
}

type CampService interface {
	CreateCamp(ctx context.Context, c camp.Camp) (*camp.Camp, error)
	GetCamp(ctx context.Context, id uuid.UUID) (*camp.Camp, error)
	Register(ctx context.Context, in camp.RegisterInput) (*camp.Participant, error)
	ListParticipants(ctx context.Context, campID uuid.UUID) ([]camp.Participant, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*camp.Participant, error)
	CancelParticipant(ctx context.Context, id uuid.UUID) (*camp.Participant, error)
}

type RequestService interface {
	Create(ctx context.Context, in request.CreateInput) (*request.BloodRequest, error)
	List(ctx context.Context, hospitalID uuid.UUID, status request.Status) ([]request.BloodRequest, error)
	Cancel(ctx context.Context, hospitalID, id uuid.UUID) (*request.BloodRequest, error)
}

type InventoryService interface {
	List(ctx context.Context, f inventory.Filter) ([]inventory.Unit, error)
	Stock(ctx context.Context, orgID uuid.UUID) ([]inventory.GroupStock, error)
}

type DonationService interface {
	CreateDonation(ctx context.Context, in donation.CreateInput) (*donation.Donation, error)
	Get(ctx context.Context, id uuid.UUID) (*donation.Donation, error)
	List(ctx context.Context, f donation.Filter) ([]donation.Donation, error)
	UpdateStage(ctx context.Context, id uuid.UUID, in donation.StageUpdate) (*donation.Donation, error)
	RecordScreening(ctx context.Context, id uuid.UUID, in donation.ScreeningInput) (*donation.Donation, error)
	RecordCollection(ctx context.Context, id uuid.UUID, in donation.CollectionInput) (*donation.Donation, error)
	RecordLabTests(ctx context.Context, id uuid.UUID, in donation.LabTestsInput) (*donation.LabOutcome, error)
	Board(ctx context.Context, orgID uuid.UUID) (donation.Board, error)
}

type RouterConfig struct {
	Logger       zerolog.Logger
	Tokens       TokenParser
	Auth         AuthService
	Appointments AppointmentService
	Camps        CampService
	Requests     RequestService
	Inventory    InventoryService
	Donations    DonationService
	Health       *HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", loginHandler(cfg.Auth))
		r.Post("/refresh", refreshHandler(cfg.Auth))

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Tokens))

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", createAppointmentHandler(cfg.Appointments))
				r.Get("/", listAppointmentsHandler(cfg.Appointments))
				r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
				r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
			})

			r.Route("/donor", func(r chi.Router) {
				r.Use(RequireRole(auth.RoleDonor))
				r.Get("/appointments", myAppointmentsHandler(cfg.Appointments))
				r.Get("/donations", myDonationsHandler(cfg.Donations))
			})

			r.Route("/org", func(r chi.Router) {
				r.Use(RequireOrganization)

				r.With(RequireRole(auth.RoleBloodBank, auth.RoleAdmin)).
					Get("/inventory", listInventoryHandler(cfg.Inventory))

				r.Group(func(r chi.Router) {
					r.Use(RequireRole(auth.RoleHospital, auth.RoleAdmin))
					r.Post("/requests", createRequestHandler(cfg.Requests))
					r.Get("/requests", listRequestsHandler(cfg.Requests))
					r.Post("/requests/{id}/cancel", cancelRequestHandler(cfg.Requests))
				})

				r.Group(func(r chi.Router) {
					r.Use(RequireRole(auth.RoleBloodBank, auth.RoleAdmin))
					r.Post("/camps", createCampHandler(cfg.Camps))
					r.Post("/camps/{id}/participants", registerParticipantHandler(cfg.Camps))
					r.Get("/camps/{id}/participants", listParticipantsHandler(cfg.Camps))
					r.Post("/participants/{id}/cancel", cancelParticipantHandler(cfg.Camps))
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(auth.RoleBloodBank, auth.RoleAdmin))
				r.Use(RequireOrganization)

				r.Get("/donations", listDonationsHandler(cfg.Donations))
				r.Post("/donations", createDonationHandler(cfg.Donations))
				r.Get("/donations/{id}", getDonationHandler(cfg.Donations))
				r.Patch("/donations/{id}/stage", updateStageHandler(cfg.Donations))
				r.Put("/donations/{id}/screening", recordScreeningHandler(cfg.Donations))
				r.Put("/donations/{id}/collection", recordCollectionHandler(cfg.Donations))
				r.Put("/donations/{id}/lab-tests", recordLabTestsHandler(cfg.Donations))
				r.Get("/pipeline", pipelineHandler(cfg.Donations))
			})
		})
	})

	return r
}
