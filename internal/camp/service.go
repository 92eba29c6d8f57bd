package camp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/blood"
	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
)

var (
	ErrInvalidCamp = errors.New("invalid camp")
	ErrCampClosed  = errors.New("camp has already ended")
	ErrInvalidName = errors.New("participant name is required")

	ErrNotCancellable = errors.New("participant is no longer registered")
	ErrInPipeline     = errors.New("participant already has a donation in the pipeline")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{repo: repo, locker: locker, logger: logger, now: time.Now}
}

func (s *Service) CreateCamp(ctx context.Context, c Camp) (*Camp, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCamp)
	}
	if !c.EndsAt.After(c.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidCamp)
	}

	created, err := s.repo.CreateCamp(ctx, c)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("camp_id", created.ID.String()).Str("name", created.Name).Msg("camp created")
	return created, nil
}

type RegisterInput struct {
	CampID     uuid.UUID
	DonorID    *uuid.UUID
	Name       string
	BloodGroup string
	Phone      string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Participant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	group, err := blood.ParseGroup(in.BloodGroup)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetCampByID(ctx, in.CampID)
	if err != nil {
		return nil, fmt.Errorf("load camp: %w", err)
	}
	if c.EndsAt.Before(s.now()) {
		return nil, ErrCampClosed
	}

	p, err := s.repo.CreateParticipant(ctx, Participant{
		CampID:     in.CampID,
		DonorID:    in.DonorID,
		Name:       name,
		BloodGroup: string(group),
		Phone:      strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetCamp(ctx context.Context, id uuid.UUID) (*Camp, error) {
	return s.repo.GetCampByID(ctx, id)
}

func (s *Service) ListParticipants(ctx context.Context, campID uuid.UUID) ([]Participant, error) {
	if _, err := s.repo.GetCampByID(ctx, campID); err != nil {
		return nil, fmt.Errorf("load camp: %w", err)
	}
	return s.repo.ListParticipantsByCamp(ctx, campID)
}

func (s *Service) GetParticipant(ctx context.Context, id uuid.UUID) (*Participant, error) {
	return s.repo.GetParticipantByID(ctx, id)
}

// CancelParticipant withdraws a registration. It shares the participant lock
// with donation creation, so a registration is either cancelled or taken
// into the pipeline, never both.
func (s *Service) CancelParticipant(ctx context.Context, id uuid.UUID) (*Participant, error) {
	var cancelled *Participant

	err := s.locker.WithLock(ctx, redisclient.LockKey("participant", id), func(lockCtx context.Context) error {
		p, err := s.repo.GetParticipantByID(lockCtx, id)
		if err != nil {
			return err
		}
		if p.Status != ParticipantRegistered {
			return ErrNotCancellable
		}

		inPipeline, err := s.repo.HasDonation(lockCtx, id)
		if err != nil {
			return fmt.Errorf("check donation: %w", err)
		}
		if inPipeline {
			return ErrInPipeline
		}

		applied, err := s.repo.MarkParticipant(lockCtx, id, []ParticipantStatus{ParticipantRegistered}, ParticipantCancelled)
		if err != nil {
			return err
		}
		if !applied {
			return ErrNotCancellable
		}

		p.Status = ParticipantCancelled
		cancelled = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("participant_id", id.String()).
		Str("camp_id", cancelled.CampID.String()).
		Msg("camp registration cancelled")
	return cancelled, nil
}
