package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusCollected Status = "COLLECTED"
	StatusRejected  Status = "REJECTED"
)

// Consumed reports whether the booking can no longer enter the pipeline.
func (s Status) Consumed() bool {
	return s != StatusUpcoming
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusUpcoming, StatusCompleted, StatusCancelled, StatusCollected, StatusRejected:
		return st, true
	}
	return "", false
}

type OrganizationKind string

const (
	KindHospital  OrganizationKind = "hospital"
	KindBloodBank OrganizationKind = "bloodbank"
)

type Organization struct {
	ID        uuid.UUID
	Name      string
	Kind      OrganizationKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Donor struct {
	ID         uuid.UUID
	Name       string
	Email      *string
	Phone      *string
	BloodGroup string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Appointment struct {
	ID             uuid.UUID
	DonorID        uuid.UUID
	OrganizationID uuid.UUID
	DateTime       time.Time
	Status         Status
	RequestID      *uuid.UUID
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined from donors.
	DonorName  string
	BloodGroup string
	Phone      string
	Email      string
}

// Arrived reports whether the booked time has been reached.
func (a Appointment) Arrived(now time.Time) bool {
	return !a.DateTime.After(now)
}

type Filter struct {
	OrganizationID *uuid.UUID
	DonorID        *uuid.UUID
	Status         Status
	Limit          int
	Offset         int
}
