package donation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/request"
)

var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrDonationExists   = errors.New("donation already exists for this origin")
	ErrDuplicateBagID   = errors.New("blood bag id already used")
	ErrVersionConflict  = errors.New("donation was modified concurrently")
)

// Repository persists donation documents.
type Repository interface {
	// Create returns ErrDonationExists when the appointment or camp
	// participant is already linked to a donation.
	Create(ctx context.Context, d Donation) (*Donation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Donation, error)
	GetByCampParticipantID(ctx context.Context, participantID uuid.UUID) (*Donation, error)
	List(ctx context.Context, f Filter) ([]Donation, error)
	// Update writes stage, notes, history and sub-records when the stored
	// version equals d.Version, and bumps the version. A stale version
	// yields ErrVersionConflict.
	Update(ctx context.Context, d Donation) (*Donation, error)
}

type AppointmentStore interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
	MarkStatus(ctx context.Context, id uuid.UUID, from []appointment.Status, to appointment.Status) (bool, error)
}

type ParticipantStore interface {
	GetParticipantByID(ctx context.Context, id uuid.UUID) (*camp.Participant, error)
	ListRegisteredByOrganization(ctx context.Context, orgID uuid.UUID) ([]camp.Participant, error)
	MarkParticipant(ctx context.Context, id uuid.UUID, from []camp.ParticipantStatus, to camp.ParticipantStatus) (bool, error)
}

type RequestStore interface {
	Fulfill(ctx context.Context, id, donationID uuid.UUID) (*request.BloodRequest, error)
	Reopen(ctx context.Context, id, donationID uuid.UUID) (*request.BloodRequest, error)
}

type InventoryStore interface {
	Create(ctx context.Context, u inventory.Unit) (*inventory.Unit, error)
}

// Stores groups every repository a pipeline step touches so they can share
// one transaction.
type Stores struct {
	Donations    Repository
	Appointments AppointmentStore
	Participants ParticipantStore
	Requests     RequestStore
	Inventory    InventoryStore
}

type UnitOfWork interface {
	// Stores runs outside a transaction.
	Stores() Stores
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(s Stores) error) error
}
