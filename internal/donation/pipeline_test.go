package donation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
)

var boardNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func upcoming(name string, at time.Time) appointment.Appointment {
	return appointment.Appointment{
		ID:         uuid.New(),
		DonorID:    uuid.New(),
		DateTime:   at,
		Status:     appointment.StatusUpcoming,
		DonorName:  name,
		BloodGroup: "O+",
	}
}

func cardKeys(cards []Card) []string {
	keys := make([]string, 0, len(cards))
	for _, c := range cards {
		keys = append(keys, c.Key)
	}
	return keys
}

func TestBuildBoard_EmptyHasAllColumns(t *testing.T) {
	b := BuildBoard(boardNow, nil, nil, nil)

	require.Len(t, b.Columns, len(Columns))
	for i, col := range b.Columns {
		assert.Equal(t, Columns[i], col.Stage)
		assert.NotEmpty(t, col.Title)
		assert.NotNil(t, col.Cards)
	}
	assert.NotNil(t, b.Rejected)
	assert.Nil(t, b.Column(StageRejected))
}

func TestBuildBoard_SynthesizesArrivedAppointmentsInOrder(t *testing.T) {
	late := upcoming("Late", boardNow.Add(-time.Minute*29))  // 09:01
	early := upcoming("Early", boardNow.Add(-time.Minute*30)) // 09:00
	future := upcoming("Future", boardNow.Add(time.Hour))
	yesterday := upcoming("Yesterday", boardNow.Add(-24*time.Hour))

	b := BuildBoard(boardNow, nil, []appointment.Appointment{late, future, early, yesterday}, nil)

	want := []string{
		"appointment:" + yesterday.ID.String(),
		"appointment:" + early.ID.String(),
		"appointment:" + late.ID.String(),
	}
	if diff := cmp.Diff(want, cardKeys(b.Column(StageNewDonors).Cards)); diff != "" {
		t.Errorf("new donors (-want +got):\n%s", diff)
	}

	first := b.Column(StageNewDonors).Cards[1]
	assert.Equal(t, SourceAppointment, first.Source)
	assert.Nil(t, first.DonationID)
	assert.Equal(t, "O+", first.BloodGroup)
	assert.Equal(t, early.ID, *first.AppointmentID)
}

func TestBuildBoard_EachOriginExactlyOnce(t *testing.T) {
	appt := upcoming("Asha", boardNow.Add(-time.Hour))
	apptID := appt.ID

	donation := Donation{
		ID:            uuid.New(),
		AppointmentID: &apptID,
		DonorName:     "Asha",
		BloodGroup:    "O+",
		Stage:         StageScreening,
		Version:       2,
		CreatedAt:     boardNow.Add(-50 * time.Minute),
	}

	b := BuildBoard(boardNow, []Donation{donation}, []appointment.Appointment{appt, appt}, nil)

	assert.Empty(t, b.Column(StageNewDonors).Cards)
	screening := b.Column(StageScreening).Cards
	require.Len(t, screening, 1)
	assert.Equal(t, "donation:"+donation.ID.String(), screening[0].Key)
	assert.Equal(t, 2, screening[0].Version)

	total := 0
	for _, col := range b.Columns {
		total += len(col.Cards)
	}
	assert.Equal(t, 1, total)
}

func TestBuildBoard_DuplicateAppointmentsCollapse(t *testing.T) {
	appt := upcoming("Ravi", boardNow.Add(-time.Minute))

	b := BuildBoard(boardNow, nil, []appointment.Appointment{appt, appt, appt}, nil)

	assert.Len(t, b.Column(StageNewDonors).Cards, 1)
}

func TestBuildBoard_Idempotent(t *testing.T) {
	appts := []appointment.Appointment{
		upcoming("A", boardNow.Add(-2*time.Hour)),
		upcoming("B", boardNow.Add(-time.Hour)),
	}
	participants := []camp.Participant{{
		ID:             uuid.New(),
		Name:           "C",
		BloodGroup:     "B-",
		Status:         camp.ParticipantRegistered,
		CampStartsAt:   boardNow.Add(-90 * time.Minute),
		OrganizationID: uuid.New(),
	}}

	first := BuildBoard(boardNow, nil, appts, participants)
	second := BuildBoard(boardNow, nil, appts, participants)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("board changed between builds (-first +second):\n%s", diff)
	}
	assert.Len(t, first.Column(StageNewDonors).Cards, 3)
}

func TestBuildBoard_SkipsConsumedOrigins(t *testing.T) {
	cancelled := upcoming("Cancelled", boardNow.Add(-time.Hour))
	cancelled.Status = appointment.StatusCancelled

	donated := camp.Participant{
		ID:           uuid.New(),
		Name:         "Donated",
		Status:       camp.ParticipantDonated,
		CampStartsAt: boardNow.Add(-time.Hour),
	}
	notStarted := camp.Participant{
		ID:           uuid.New(),
		Name:         "Tomorrow",
		Status:       camp.ParticipantRegistered,
		CampStartsAt: boardNow.Add(24 * time.Hour),
	}

	b := BuildBoard(boardNow, nil, []appointment.Appointment{cancelled}, []camp.Participant{donated, notStarted})

	assert.Empty(t, b.Column(StageNewDonors).Cards)
}

func TestBuildBoard_CampParticipantReferencedByDonation(t *testing.T) {
	p := camp.Participant{
		ID:           uuid.New(),
		Name:         "Mei",
		BloodGroup:   "A+",
		Status:       camp.ParticipantRegistered,
		CampStartsAt: boardNow.Add(-time.Hour),
	}
	pID := p.ID
	d := Donation{ID: uuid.New(), CampParticipantID: &pID, Stage: StageNewDonors, CreatedAt: boardNow}

	b := BuildBoard(boardNow, []Donation{d}, nil, []camp.Participant{p})

	want := []string{"donation:" + d.ID.String()}
	if diff := cmp.Diff(want, cardKeys(b.Column(StageNewDonors).Cards)); diff != "" {
		t.Errorf("new donors (-want +got):\n%s", diff)
	}
}

func TestBuildBoard_RejectedKeptOffColumns(t *testing.T) {
	ok := Donation{ID: uuid.New(), Stage: StageReadyStorage, CreatedAt: boardNow.Add(-2 * time.Hour)}
	bad := Donation{ID: uuid.New(), Stage: StageRejected, CreatedAt: boardNow.Add(-time.Hour)}

	b := BuildBoard(boardNow, []Donation{bad, ok}, nil, nil)

	assert.Len(t, b.Column(StageReadyStorage).Cards, 1)
	require.Len(t, b.Rejected, 1)
	assert.Equal(t, "donation:"+bad.ID.String(), b.Rejected[0].Key)
}

func TestBuildBoard_DonationsOrderedByCreation(t *testing.T) {
	older := Donation{ID: uuid.New(), Stage: StageInProgress, CreatedAt: boardNow.Add(-2 * time.Hour)}
	newer := Donation{ID: uuid.New(), Stage: StageInProgress, CreatedAt: boardNow.Add(-time.Hour)}

	b := BuildBoard(boardNow, []Donation{newer, older}, nil, nil)

	want := []string{"donation:" + older.ID.String(), "donation:" + newer.ID.String()}
	if diff := cmp.Diff(want, cardKeys(b.Column(StageInProgress).Cards)); diff != "" {
		t.Errorf("in progress (-want +got):\n%s", diff)
	}
}
