package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDonorNotFound        = errors.New("donor not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrRequestNotFound      = errors.New("blood request not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDonorByID(ctx context.Context, id uuid.UUID) (*Donor, error)
	GetOrganizationByID(ctx context.Context, id uuid.UUID) (*Organization, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f Filter) ([]Appointment, error)

	// For the one-upcoming-booking-per-donor rule
	CountUpcomingForDonor(ctx context.Context, donorID uuid.UUID) (int, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointmentStatus only applies when the current status equals from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	// MarkStatus is used by the donation pipeline once a booking is consumed.
	// It only applies when the current status is one of from and reports
	// whether it did.
	MarkStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (bool, error)
	// HasDonation reports whether a donation record references the appointment.
	HasDonation(ctx context.Context, id uuid.UUID) (bool, error)
}
