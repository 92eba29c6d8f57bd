package camp

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantDonated    ParticipantStatus = "donated"
	ParticipantRejected   ParticipantStatus = "rejected"
	ParticipantCancelled  ParticipantStatus = "cancelled"
)

type Camp struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Location       string
	StartsAt       time.Time
	EndsAt         time.Time
	CreatedAt      time.Time
}

type Participant struct {
	ID           uuid.UUID
	CampID       uuid.UUID
	DonorID      *uuid.UUID
	Name         string
	BloodGroup   string
	Phone        string
	Status       ParticipantStatus
	RegisteredAt time.Time

	// Joined from camps.
	OrganizationID uuid.UUID
	CampStartsAt   time.Time
}

// Arrived reports whether the participant's camp has opened.
func (p Participant) Arrived(now time.Time) bool {
	return !p.CampStartsAt.After(now)
}
