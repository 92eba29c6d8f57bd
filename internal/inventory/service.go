package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/blood"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Unit, error) {
	switch f.Status {
	case "", StatusAvailable, StatusReserved, StatusExpired, StatusUsed:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStatus, f.Status)
	}
	if f.BloodGroup != "" {
		g, err := blood.ParseGroup(f.BloodGroup)
		if err != nil {
			return nil, err
		}
		f.BloodGroup = string(g)
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Stock(ctx context.Context, orgID uuid.UUID) ([]GroupStock, error) {
	return s.repo.Stock(ctx, orgID)
}

// ExpireUnits is intended to be called by the worker periodically.
func (s *Service) ExpireUnits(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireAvailable(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire inventory units: %w", err)
	}

	for _, u := range expired {
		s.logger.Info().
			Str("unit_id", u.ID.String()).
			Str("blood_bag_id", u.BloodBagID).
			Str("blood_group", u.BloodGroup).
			Time("expires_at", u.ExpiresAt).
			Msg("inventory unit expired")
	}

	return len(expired), nil
}

// NewUnit builds the inventory unit for a collected bag. Expiry follows the
// component's shelf life.
func NewUnit(orgID, donationID uuid.UUID, bagID string, group blood.Group, component blood.Component, units, volumeMl int, collectedAt time.Time) Unit {
	return Unit{
		OrganizationID: orgID,
		DonationID:     donationID,
		BloodBagID:     bagID,
		BloodGroup:     string(group),
		ComponentType:  string(component),
		Units:          units,
		VolumeMl:       volumeMl,
		CollectedAt:    collectedAt,
		ExpiresAt:      component.ExpiresAt(collectedAt),
		Status:         StatusAvailable,
	}
}
