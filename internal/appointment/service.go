package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
)

var (
	ErrDonorHasUpcoming        = errors.New("donor already has an upcoming appointment")
	ErrDonorBeingBooked        = errors.New("donor is currently being booked, please retry")
	ErrDateInPast              = errors.New("appointment time is in the past")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrInPipeline is a transition error: the booking already produced a
	// donation record.
	ErrInPipeline = fmt.Errorf("%w: appointment already has a donation in the pipeline", ErrInvalidStatusTransition)
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

type BookInput struct {
	DonorID        uuid.UUID
	OrganizationID uuid.UUID
	DateTime       time.Time
	RequestID      *uuid.UUID
	Notes          string
}

// Book reserves a donation appointment. A donor holds at most one upcoming
// appointment; the check and insert run under a per-donor lock so two
// concurrent bookings cannot both pass the check.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if in.DateTime.Before(s.now().Add(-time.Minute)) {
		return nil, ErrDateInPast
	}

	if _, err := s.repo.GetDonorByID(ctx, in.DonorID); err != nil {
		if errors.Is(err, ErrDonorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load donor: %w", err)
	}

	if _, err := s.repo.GetOrganizationByID(ctx, in.OrganizationID); err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load organization: %w", err)
	}

	var created *Appointment

	err := s.locker.WithLock(ctx, redisclient.LockKey("donor", in.DonorID), func(lockCtx context.Context) error {
		n, err := s.repo.CountUpcomingForDonor(lockCtx, in.DonorID)
		if err != nil {
			return fmt.Errorf("count upcoming appointments: %w", err)
		}
		if n > 0 {
			return ErrDonorHasUpcoming
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			DonorID:        in.DonorID,
			OrganizationID: in.OrganizationID,
			DateTime:       in.DateTime,
			RequestID:      in.RequestID,
			Notes:          in.Notes,
		})
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDonorBeingBooked
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("donor_id", created.DonorID.String()).
		Time("date_time", created.DateTime).
		Msg("appointment booked")

	return created, nil
}

// Cancel moves an upcoming appointment to CANCELLED. Consumed bookings and
// bookings that already entered the pipeline cannot be cancelled. It holds
// the same lock as donation creation from this appointment.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var updated *Appointment

	err := s.locker.WithLock(ctx, redisclient.LockKey("appointment", id), func(lockCtx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(lockCtx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		if appt.Status != StatusUpcoming {
			return ErrInvalidStatusTransition
		}

		inPipeline, err := s.repo.HasDonation(lockCtx, id)
		if err != nil {
			return fmt.Errorf("check donation: %w", err)
		}
		if inPipeline {
			return ErrInPipeline
		}

		updated, err = s.repo.UpdateAppointmentStatus(lockCtx, id, StatusUpcoming, StatusCancelled)
		if err != nil {
			// lost a race with another cancel
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidStatusTransition
			}
			return fmt.Errorf("cancel appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appts, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
