package camp

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCampNotFound        = errors.New("camp not found")
	ErrParticipantNotFound = errors.New("camp participant not found")
)

type Repository interface {
	CreateCamp(ctx context.Context, c Camp) (*Camp, error)
	GetCampByID(ctx context.Context, id uuid.UUID) (*Camp, error)

	CreateParticipant(ctx context.Context, p Participant) (*Participant, error)
	GetParticipantByID(ctx context.Context, id uuid.UUID) (*Participant, error)
	ListParticipantsByCamp(ctx context.Context, campID uuid.UUID) ([]Participant, error)
	// Registered participants of every camp run by the organization.
	ListRegisteredByOrganization(ctx context.Context, orgID uuid.UUID) ([]Participant, error)
	// MarkParticipant applies only when the current status is one of from
	// and reports whether it did.
	MarkParticipant(ctx context.Context, id uuid.UUID, from []ParticipantStatus, to ParticipantStatus) (bool, error)
	HasDonation(ctx context.Context, id uuid.UUID) (bool, error)
}
