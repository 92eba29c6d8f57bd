package inventory

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusExpired   Status = "expired"
	StatusUsed      Status = "used"
)

type Unit struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	DonationID     uuid.UUID
	BloodBagID     string
	BloodGroup     string
	ComponentType  string
	Units          int
	VolumeMl       int
	CollectedAt    time.Time
	ExpiresAt      time.Time
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Filter struct {
	OrganizationID uuid.UUID
	Status         Status
	BloodGroup     string
}

// GroupStock is the number of available units per blood group and component.
type GroupStock struct {
	BloodGroup    string `json:"bloodGroup"`
	ComponentType string `json:"componentType"`
	Units         int    `json:"units"`
}
