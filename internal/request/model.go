package request

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

type BloodRequest struct {
	ID            uuid.UUID
	HospitalID    uuid.UUID
	BloodGroup    string
	ComponentType string
	UnitsNeeded   int
	Urgency       Urgency
	Status        Status
	FulfilledBy   *uuid.UUID // donation that satisfied the request
	FulfilledAt   *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
