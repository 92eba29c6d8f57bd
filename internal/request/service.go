package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/blood"
)

var (
	ErrInvalidUnits   = errors.New("units_needed must be between 1 and 50")
	ErrInvalidUrgency = errors.New("urgency must be normal, urgent or critical")
	ErrNotOpen        = errors.New("blood request is not open")
	ErrUnknownStatus  = errors.New("unknown request status")
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

type CreateInput struct {
	HospitalID    uuid.UUID
	BloodGroup    string
	ComponentType string
	UnitsNeeded   int
	Urgency       string
	Notes         string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*BloodRequest, error) {
	group, err := blood.ParseGroup(in.BloodGroup)
	if err != nil {
		return nil, err
	}
	component, err := blood.ParseComponent(in.ComponentType)
	if err != nil {
		return nil, err
	}
	if in.UnitsNeeded < 1 || in.UnitsNeeded > 50 {
		return nil, ErrInvalidUnits
	}
	urgency := Urgency(in.Urgency)
	switch urgency {
	case "":
		urgency = UrgencyNormal
	case UrgencyNormal, UrgencyUrgent, UrgencyCritical:
	default:
		return nil, ErrInvalidUrgency
	}

	created, err := s.repo.Create(ctx, BloodRequest{
		HospitalID:    in.HospitalID,
		BloodGroup:    string(group),
		ComponentType: string(component),
		UnitsNeeded:   in.UnitsNeeded,
		Urgency:       urgency,
		Notes:         in.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", created.ID.String()).
		Str("blood_group", created.BloodGroup).
		Int("units", created.UnitsNeeded).
		Str("urgency", string(created.Urgency)).
		Msg("blood request created")

	return created, nil
}

func (s *Service) List(ctx context.Context, hospitalID uuid.UUID, status Status) ([]BloodRequest, error) {
	switch status {
	case "", StatusOpen, StatusFulfilled, StatusCancelled:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStatus, status)
	}
	return s.repo.ListByHospital(ctx, hospitalID, status)
}

// Cancel withdraws an open request. Only the owning hospital may cancel.
func (s *Service) Cancel(ctx context.Context, hospitalID, id uuid.UUID) (*BloodRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.HospitalID != hospitalID {
		return nil, ErrRequestNotFound
	}
	if r.Status != StatusOpen {
		return nil, ErrNotOpen
	}
	cancelled, err := s.repo.Cancel(ctx, id)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, ErrNotOpen
	}
	return cancelled, err
}
