package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/blood"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
	"github.com/hackgods/donation-pipeline/internal/request"
)

var (
	ErrOriginConsumed = errors.New("appointment or camp registration can no longer enter the pipeline")
	ErrOriginNotFound = errors.New("appointment or camp registration not found")
	ErrBusy           = errors.New("donation is being updated by another request, please retry")
)

// ExistsError is returned when a donation already exists for the origin.
// Existing lets callers resync instead of failing.
type ExistsError struct {
	Existing *Donation
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDonationExists, e.Existing.ID)
}

func (e *ExistsError) Unwrap() error {
	return ErrDonationExists
}

type Service struct {
	uow    UnitOfWork
	locker redisclient.Locker
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(uow UnitOfWork, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		uow:    uow,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

type CreateInput struct {
	OrganizationID    uuid.UUID
	AppointmentID     *uuid.UUID
	CampParticipantID *uuid.UUID

	// Manual registration; ignored when an origin is given.
	DonorID    *uuid.UUID
	DonorName  string
	BloodGroup string
	Phone      string
	Email      string

	Stage       Stage // new-donors (default) or screening
	Notes       string
	PerformedBy string
}

// CreateDonation materializes a donation record. With an origin the check
// for an existing record and the insert run under a lock on the origin; the
// unique index on the origin column is the last line of defence.
func (s *Service) CreateDonation(ctx context.Context, in CreateInput) (*Donation, error) {
	if in.AppointmentID != nil && in.CampParticipantID != nil {
		return nil, invalid("appointmentId", "appointmentId and campParticipantId are mutually exclusive")
	}

	stage := in.Stage
	if stage == "" {
		stage = StageNewDonors
	}
	if stage != StageNewDonors && stage != StageScreening {
		return nil, invalid("stage", "a donation starts in %s or %s", StageNewDonors, StageScreening)
	}

	switch {
	case in.AppointmentID != nil:
		return s.createLocked(ctx, redisclient.LockKey("appointment", *in.AppointmentID), func(ctx context.Context, st Stores) (*Donation, error) {
			return s.fromAppointment(ctx, st, in, stage)
		})
	case in.CampParticipantID != nil:
		return s.createLocked(ctx, redisclient.LockKey("participant", *in.CampParticipantID), func(ctx context.Context, st Stores) (*Donation, error) {
			return s.fromParticipant(ctx, st, in, stage)
		})
	}

	name := strings.TrimSpace(in.DonorName)
	if name == "" {
		return nil, invalid("donorName", "is required")
	}
	group, err := blood.ParseGroup(in.BloodGroup)
	if err != nil {
		return nil, invalid("bloodGroup", "%v", err)
	}

	d := Donation{
		OrganizationID: in.OrganizationID,
		DonorID:        in.DonorID,
		DonorName:      name,
		BloodGroup:     string(group),
		Phone:          strings.TrimSpace(in.Phone),
		Email:          strings.TrimSpace(in.Email),
	}
	return s.insert(ctx, s.uow.Stores(), d, stage, in)
}

func (s *Service) createLocked(ctx context.Context, key string, fn func(ctx context.Context, st Stores) (*Donation, error)) (*Donation, error) {
	var created *Donation

	err := s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		d, err := fn(lockCtx, s.uow.Stores())
		if err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBusy
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) fromAppointment(ctx context.Context, st Stores, in CreateInput, stage Stage) (*Donation, error) {
	apptID := *in.AppointmentID

	existing, err := st.Donations.GetByAppointmentID(ctx, apptID)
	if err == nil {
		return nil, &ExistsError{Existing: existing}
	}
	if !errors.Is(err, ErrDonationNotFound) {
		return nil, fmt.Errorf("check existing donation: %w", err)
	}

	appt, err := st.Appointments.GetAppointmentByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, ErrOriginNotFound
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.OrganizationID != in.OrganizationID {
		return nil, ErrOriginNotFound
	}
	if appt.Status.Consumed() {
		return nil, ErrOriginConsumed
	}

	donorID := appt.DonorID
	d := Donation{
		OrganizationID: appt.OrganizationID,
		DonorID:        &donorID,
		DonorName:      appt.DonorName,
		BloodGroup:     appt.BloodGroup,
		Phone:          appt.Phone,
		Email:          appt.Email,
		AppointmentID:  &apptID,
		RequestID:      appt.RequestID,
	}

	created, err := s.insert(ctx, st, d, stage, in)
	if errors.Is(err, ErrDonationExists) {
		return nil, s.existsFor(ctx, st.Donations.GetByAppointmentID, apptID)
	}
	return created, err
}

func (s *Service) fromParticipant(ctx context.Context, st Stores, in CreateInput, stage Stage) (*Donation, error) {
	pID := *in.CampParticipantID

	existing, err := st.Donations.GetByCampParticipantID(ctx, pID)
	if err == nil {
		return nil, &ExistsError{Existing: existing}
	}
	if !errors.Is(err, ErrDonationNotFound) {
		return nil, fmt.Errorf("check existing donation: %w", err)
	}

	p, err := st.Participants.GetParticipantByID(ctx, pID)
	if err != nil {
		if errors.Is(err, camp.ErrParticipantNotFound) {
			return nil, ErrOriginNotFound
		}
		return nil, fmt.Errorf("load camp participant: %w", err)
	}
	if p.OrganizationID != in.OrganizationID {
		return nil, ErrOriginNotFound
	}
	if p.Status != camp.ParticipantRegistered {
		return nil, ErrOriginConsumed
	}

	d := Donation{
		OrganizationID:    p.OrganizationID,
		DonorID:           p.DonorID,
		DonorName:         p.Name,
		BloodGroup:        p.BloodGroup,
		Phone:             p.Phone,
		CampParticipantID: &pID,
	}

	created, err := s.insert(ctx, st, d, stage, in)
	if errors.Is(err, ErrDonationExists) {
		return nil, s.existsFor(ctx, st.Donations.GetByCampParticipantID, pID)
	}
	return created, err
}

// existsFor loads the record that won a creation race.
func (s *Service) existsFor(ctx context.Context, get func(context.Context, uuid.UUID) (*Donation, error), originID uuid.UUID) error {
	existing, err := get(ctx, originID)
	if err != nil {
		return ErrDonationExists
	}
	return &ExistsError{Existing: existing}
}

func (s *Service) insert(ctx context.Context, st Stores, d Donation, stage Stage, in CreateInput) (*Donation, error) {
	d.Stage = stage
	d.Notes = in.Notes
	d.record(ActionCreated, in.PerformedBy, in.Notes, s.now())

	created, err := st.Donations.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("donation_id", created.ID.String()).
		Str("stage", string(created.Stage)).
		Bool("from_appointment", created.AppointmentID != nil).
		Bool("from_camp", created.CampParticipantID != nil).
		Msg("donation created")

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return s.uow.Stores().Donations.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Donation, error) {
	if f.Stage != "" {
		if _, err := ParseStage(string(f.Stage)); err != nil {
			return nil, err
		}
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.uow.Stores().Donations.List(ctx, f)
}

// loadForWrite fetches the donation and applies the caller's optional
// version token. The repository update re-checks the version, which covers
// writes that land between this read and the update.
func loadForWrite(ctx context.Context, repo Repository, id uuid.UUID, expected int) (*Donation, error) {
	d, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expected != 0 && expected != d.Version {
		return nil, ErrVersionConflict
	}
	return d, nil
}

type StageUpdate struct {
	To          Stage
	Notes       string
	Version     int
	PerformedBy string
}

// UpdateStage applies a staff-requested move. Moving a card to the column
// it is already in returns the record unchanged.
func (s *Service) UpdateStage(ctx context.Context, id uuid.UUID, in StageUpdate) (*Donation, error) {
	to, err := ParseStage(string(in.To))
	if err != nil {
		return nil, err
	}

	repo := s.uow.Stores().Donations
	d, err := loadForWrite(ctx, repo, id, in.Version)
	if err != nil {
		return nil, err
	}

	if err := ValidateManualTransition(*d, to); err != nil {
		return nil, err
	}
	if d.Stage == to {
		return d, nil
	}

	from := d.Stage
	d.Stage = to
	notes := fmt.Sprintf("%s -> %s", from, to)
	if in.Notes != "" {
		notes += ": " + in.Notes
	}
	d.record(ActionStageChanged, in.PerformedBy, notes, s.now())

	updated, err := repo.Update(ctx, *d)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("donation_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("donation stage changed")

	return updated, nil
}

type ScreeningInput struct {
	Screening   Screening
	Version     int
	PerformedBy string
}

// RecordScreening saves the screening decision. Approval chains the move to
// in-progress; rejected and deferred donors stay in screening.
func (s *Service) RecordScreening(ctx context.Context, id uuid.UUID, in ScreeningInput) (*Donation, error) {
	if err := validateScreening(in.Screening); err != nil {
		return nil, err
	}

	repo := s.uow.Stores().Donations
	d, err := loadForWrite(ctx, repo, id, in.Version)
	if err != nil {
		return nil, err
	}

	next, err := NextAfterScreening(d.Stage, in.Screening.ScreeningStatus)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sc := in.Screening
	sc.ScreenedAt = now
	sc.ScreenedBy = in.PerformedBy
	d.Screening = &sc
	d.record(ActionScreeningRecorded, in.PerformedBy, string(sc.ScreeningStatus), now)
	if next != d.Stage {
		d.Stage = next
		d.record(ActionStageChanged, in.PerformedBy, fmt.Sprintf("%s -> %s", StageScreening, next), now)
	}

	updated, err := repo.Update(ctx, *d)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("donation_id", id.String()).
		Str("screening_status", string(sc.ScreeningStatus)).
		Str("stage", string(updated.Stage)).
		Msg("screening recorded")

	return updated, nil
}

type CollectionInput struct {
	Collection  Collection
	Version     int
	PerformedBy string
}

// RecordCollection saves the physical collection and chains the move to
// completed. The originating appointment is marked COMPLETED in the same
// transaction.
func (s *Service) RecordCollection(ctx context.Context, id uuid.UUID, in CollectionInput) (*Donation, error) {
	c, err := normalizeCollection(in.Collection)
	if err != nil {
		return nil, err
	}
	c.CollectedBy = in.PerformedBy

	var updated *Donation
	err = s.uow.InTx(ctx, func(st Stores) error {
		d, err := loadForWrite(ctx, st.Donations, id, in.Version)
		if err != nil {
			return err
		}

		next, err := NextAfterCollection(d.Stage)
		if err != nil {
			return err
		}

		now := s.now()
		d.Collection = &c
		d.record(ActionCollectionRecorded, in.PerformedBy, fmt.Sprintf("bag %s, %d ml", c.BloodBagIDGenerated, c.VolumeCollected), now)
		d.Stage = next
		d.record(ActionStageChanged, in.PerformedBy, fmt.Sprintf("%s -> %s", StageInProgress, next), now)

		updated, err = st.Donations.Update(ctx, *d)
		if err != nil {
			return err
		}

		if d.AppointmentID != nil {
			applied, err := st.Appointments.MarkStatus(ctx, *d.AppointmentID, []appointment.Status{appointment.StatusUpcoming}, appointment.StatusCompleted)
			if err != nil {
				return fmt.Errorf("mark appointment completed: %w", err)
			}
			if !applied {
				s.logger.Warn().
					Str("donation_id", d.ID.String()).
					Str("appointment_id", d.AppointmentID.String()).
					Msg("appointment no longer upcoming, status left unchanged")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("donation_id", id.String()).
		Str("blood_bag_id", c.BloodBagIDGenerated).
		Int("volume_ml", c.VolumeCollected).
		Msg("collection recorded")

	return updated, nil
}

type LabTestsInput struct {
	LabTests    LabTests
	Version     int
	PerformedBy string
}

// LabOutcome reports the donation after lab results together with the
// side effects they caused.
type LabOutcome struct {
	Donation *Donation
	Unit     *inventory.Unit
	Request  *request.BloodRequest
}

// RecordLabTests saves the pathogen panel and settles the donation. A clean
// panel moves it to ready-storage, stocks an inventory unit and fulfills the
// linked request. Any positive result rejects it and reopens the request.
// All writes share one transaction, held under a lock on the donation.
func (s *Service) RecordLabTests(ctx context.Context, id uuid.UUID, in LabTestsInput) (*LabOutcome, error) {
	if err := validateLabTests(in.LabTests); err != nil {
		return nil, err
	}

	var out *LabOutcome
	err := s.locker.WithLock(ctx, redisclient.LockKey("donation", id), func(lockCtx context.Context) error {
		return s.uow.InTx(lockCtx, func(st Stores) error {
			res, err := s.settle(lockCtx, st, id, in)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBusy
		}
		return nil, err
	}

	ev := s.logger.Info()
	if !out.Donation.LabTests.AllTestsPassed {
		ev = s.logger.Warn()
	}
	ev.Str("donation_id", id.String()).
		Bool("all_tests_passed", out.Donation.LabTests.AllTestsPassed).
		Bool("blood_group_mismatch", out.Donation.LabTests.BloodGroupMismatch).
		Str("stage", string(out.Donation.Stage)).
		Msg("lab tests recorded")

	return out, nil
}

func (s *Service) settle(ctx context.Context, st Stores, id uuid.UUID, in LabTestsInput) (*LabOutcome, error) {
	d, err := loadForWrite(ctx, st.Donations, id, in.Version)
	if err != nil {
		return nil, err
	}

	lt := in.LabTests
	lt.AllTestsPassed = AllTestsPassed(lt)

	next, err := NextAfterLabTests(d.Stage, lt.AllTestsPassed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lt.TestedAt = now
	lt.TestedBy = in.PerformedBy
	lt.BloodGroupMismatch = false

	group, err := blood.ParseGroup(d.BloodGroup)
	if err != nil {
		return nil, fmt.Errorf("stored blood group of %s: %w", d.ID, err)
	}
	if lt.ConfirmedBloodGroup != "" {
		confirmed, _ := blood.ParseGroup(lt.ConfirmedBloodGroup)
		lt.ConfirmedBloodGroup = string(confirmed)
		if confirmed != group {
			lt.BloodGroupMismatch = true
			d.record(ActionLabTestsRecorded, in.PerformedBy,
				fmt.Sprintf("blood group mismatch: registered %s, confirmed %s", group, confirmed), now)
			group = confirmed
		}
	}

	d.LabTests = &lt
	d.BloodGroup = string(group)
	result := "all tests negative"
	if !lt.AllTestsPassed {
		result = "positive result"
	}
	d.record(ActionLabTestsRecorded, in.PerformedBy, result, now)
	d.Stage = next
	d.record(ActionStageChanged, in.PerformedBy, fmt.Sprintf("%s -> %s", StageCompleted, next), now)

	updated, err := st.Donations.Update(ctx, *d)
	if err != nil {
		return nil, err
	}

	out := &LabOutcome{Donation: updated}
	if lt.AllTestsPassed {
		err = s.stock(ctx, st, updated, group, out)
	} else {
		err = s.reject(ctx, st, updated, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) stock(ctx context.Context, st Stores, d *Donation, group blood.Group, out *LabOutcome) error {
	if d.Collection == nil {
		return fmt.Errorf("donation %s has no collection record", d.ID)
	}
	c := d.Collection
	component, err := blood.ParseComponent(c.ComponentType)
	if err != nil {
		return err
	}

	unit, err := st.Inventory.Create(ctx, inventory.NewUnit(
		d.OrganizationID, d.ID, c.BloodBagIDGenerated, group, component,
		c.UnitsCollected, c.VolumeCollected, c.EndTime,
	))
	if err != nil {
		return fmt.Errorf("create inventory unit: %w", err)
	}
	out.Unit = unit

	switch {
	case d.RequestID == nil:
	case d.LabTests != nil && d.LabTests.BloodGroupMismatch:
		// the request was linked on the registered group
		s.logger.Warn().
			Str("donation_id", d.ID.String()).
			Str("request_id", d.RequestID.String()).
			Str("confirmed_group", string(group)).
			Msg("blood group mismatch, linked request left open")
	default:
		req, err := st.Requests.Fulfill(ctx, *d.RequestID, d.ID)
		switch {
		case errors.Is(err, request.ErrRequestNotFound):
			s.logger.Warn().
				Str("donation_id", d.ID.String()).
				Str("request_id", d.RequestID.String()).
				Msg("linked request not open, left unchanged")
		case err != nil:
			return fmt.Errorf("fulfill request: %w", err)
		default:
			out.Request = req
		}
	}

	return s.markOrigin(ctx, st, d, appointment.StatusCollected, camp.ParticipantDonated)
}

func (s *Service) reject(ctx context.Context, st Stores, d *Donation, out *LabOutcome) error {
	if d.RequestID != nil {
		req, err := st.Requests.Reopen(ctx, *d.RequestID, d.ID)
		switch {
		case errors.Is(err, request.ErrRequestNotFound):
			s.logger.Warn().
				Str("donation_id", d.ID.String()).
				Str("request_id", d.RequestID.String()).
				Msg("linked request fulfilled elsewhere, cancelled or missing, not reopened")
		case err != nil:
			return fmt.Errorf("reopen request: %w", err)
		default:
			out.Request = req
		}
	}

	return s.markOrigin(ctx, st, d, appointment.StatusRejected, camp.ParticipantRejected)
}

// markOrigin settles the booking a donation came from. A booking that was
// cancelled meanwhile keeps its status.
func (s *Service) markOrigin(ctx context.Context, st Stores, d *Donation, apptStatus appointment.Status, pStatus camp.ParticipantStatus) error {
	if d.AppointmentID != nil {
		applied, err := st.Appointments.MarkStatus(ctx, *d.AppointmentID,
			[]appointment.Status{appointment.StatusUpcoming, appointment.StatusCompleted}, apptStatus)
		if err != nil {
			return fmt.Errorf("mark appointment %s: %w", apptStatus, err)
		}
		if !applied {
			s.logger.Warn().
				Str("donation_id", d.ID.String()).
				Str("appointment_id", d.AppointmentID.String()).
				Str("target_status", string(apptStatus)).
				Msg("appointment status changed elsewhere, left unchanged")
		}
	}
	if d.CampParticipantID != nil {
		applied, err := st.Participants.MarkParticipant(ctx, *d.CampParticipantID,
			[]camp.ParticipantStatus{camp.ParticipantRegistered}, pStatus)
		if err != nil {
			return fmt.Errorf("mark participant %s: %w", pStatus, err)
		}
		if !applied {
			s.logger.Warn().
				Str("donation_id", d.ID.String()).
				Str("participant_id", d.CampParticipantID.String()).
				Str("target_status", string(pStatus)).
				Msg("participant status changed elsewhere, left unchanged")
		}
	}
	return nil
}

// Board fetches the organization's donations, upcoming appointments and
// registered camp participants concurrently and merges them.
func (s *Service) Board(ctx context.Context, orgID uuid.UUID) (Board, error) {
	st := s.uow.Stores()

	var (
		donations    []Donation
		appts        []appointment.Appointment
		participants []camp.Participant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = st.Donations.List(gctx, Filter{OrganizationID: &orgID})
		if err != nil {
			return fmt.Errorf("list donations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		appts, err = st.Appointments.ListAppointments(gctx, appointment.Filter{
			OrganizationID: &orgID,
			Status:         appointment.StatusUpcoming,
		})
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = st.Participants.ListRegisteredByOrganization(gctx, orgID)
		if err != nil {
			return fmt.Errorf("list camp participants: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Board{}, err
	}

	return BuildBoard(s.now(), donations, appts, participants), nil
}
