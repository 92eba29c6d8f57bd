package donation

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
)

const (
	SourceDonation    = "donation"
	SourceAppointment = "appointment"
	SourceCamp        = "camp"
)

// Card is one entry on the pipeline board. Cards with Source other than
// "donation" are synthesized: no donation record exists for them yet.
type Card struct {
	Key               string          `json:"key"`
	Source            string          `json:"source"`
	Stage             Stage           `json:"stage"`
	DonationID        *uuid.UUID      `json:"donationId,omitempty"`
	AppointmentID     *uuid.UUID      `json:"appointmentId,omitempty"`
	CampParticipantID *uuid.UUID      `json:"campParticipantId,omitempty"`
	DonorID           *uuid.UUID      `json:"donorId,omitempty"`
	DonorName         string          `json:"donorName"`
	BloodGroup        string          `json:"bloodGroup"`
	Phone             string          `json:"phone,omitempty"`
	ScheduledAt       *time.Time      `json:"scheduledAt,omitempty"`
	ScreeningStatus   ScreeningStatus `json:"screeningStatus,omitempty"`
	Version           int             `json:"version,omitempty"`
}

type Column struct {
	Stage Stage  `json:"stage"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

type Board struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Columns     []Column  `json:"columns"`
	Rejected    []Card    `json:"rejected"`
}

// Column returns the column for stage, or nil for a stage that is not on
// the board.
func (b *Board) Column(stage Stage) *Column {
	for i := range b.Columns {
		if b.Columns[i].Stage == stage {
			return &b.Columns[i]
		}
	}
	return nil
}

func donationCard(d Donation) Card {
	id := d.ID
	c := Card{
		Key:               "donation:" + d.ID.String(),
		Source:            SourceDonation,
		Stage:             d.Stage,
		DonationID:        &id,
		AppointmentID:     d.AppointmentID,
		CampParticipantID: d.CampParticipantID,
		DonorID:           d.DonorID,
		DonorName:         d.DonorName,
		BloodGroup:        d.BloodGroup,
		Phone:             d.Phone,
		Version:           d.Version,
	}
	if d.Screening != nil {
		c.ScreeningStatus = d.Screening.ScreeningStatus
	}
	return c
}

// BuildBoard merges persisted donations with synthesized NEW DONORS entries.
//
// An appointment is synthesized when it is UPCOMING, its time has arrived
// and no donation references it. A camp participant is synthesized when it
// is still registered, its camp has started and no donation references it.
// Each origin appears at most once regardless of duplicates in the input.
func BuildBoard(now time.Time, donations []Donation, appts []appointment.Appointment, participants []camp.Participant) Board {
	board := Board{GeneratedAt: now, Rejected: []Card{}}
	for _, stage := range Columns {
		board.Columns = append(board.Columns, Column{Stage: stage, Title: columnTitles[stage], Cards: []Card{}})
	}

	usedAppts := make(map[uuid.UUID]bool)
	usedParticipants := make(map[uuid.UUID]bool)

	sorted := make([]Donation, len(donations))
	copy(sorted, donations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	for _, d := range sorted {
		if d.AppointmentID != nil {
			usedAppts[*d.AppointmentID] = true
		}
		if d.CampParticipantID != nil {
			usedParticipants[*d.CampParticipantID] = true
		}
		if d.Stage == StageRejected {
			board.Rejected = append(board.Rejected, donationCard(d))
			continue
		}
		if col := board.Column(d.Stage); col != nil {
			col.Cards = append(col.Cards, donationCard(d))
		}
	}

	var synthesized []Card

	for _, a := range appts {
		if a.Status != appointment.StatusUpcoming || !a.Arrived(now) || usedAppts[a.ID] {
			continue
		}
		usedAppts[a.ID] = true

		id, donorID, at := a.ID, a.DonorID, a.DateTime
		synthesized = append(synthesized, Card{
			Key:           "appointment:" + a.ID.String(),
			Source:        SourceAppointment,
			Stage:         StageNewDonors,
			AppointmentID: &id,
			DonorID:       &donorID,
			DonorName:     a.DonorName,
			BloodGroup:    a.BloodGroup,
			Phone:         a.Phone,
			ScheduledAt:   &at,
		})
	}

	for _, p := range participants {
		if p.Status != camp.ParticipantRegistered || !p.Arrived(now) || usedParticipants[p.ID] {
			continue
		}
		usedParticipants[p.ID] = true

		id, at := p.ID, p.CampStartsAt
		synthesized = append(synthesized, Card{
			Key:               "camp:" + p.ID.String(),
			Source:            SourceCamp,
			Stage:             StageNewDonors,
			CampParticipantID: &id,
			DonorID:           p.DonorID,
			DonorName:         p.Name,
			BloodGroup:        p.BloodGroup,
			Phone:             p.Phone,
			ScheduledAt:       &at,
		})
	}

	sort.SliceStable(synthesized, func(i, j int) bool {
		return synthesized[i].ScheduledAt.Before(*synthesized[j].ScheduledAt)
	})

	col := board.Column(StageNewDonors)
	col.Cards = append(col.Cards, synthesized...)

	return board
}
