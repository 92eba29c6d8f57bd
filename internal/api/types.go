package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/donation"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/request"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
	// Set for donation_exists so the client can resync to the stored record.
	Existing *donation.Donation `json:"existing,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateAppointmentRequest struct {
	DonorID        string    `json:"donor_id"`
	OrganizationID string    `json:"organization_id"`
	DateTime       time.Time `json:"date_time"`
	RequestID      string    `json:"request_id"`
	Notes          string    `json:"notes"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	DonorID        uuid.UUID  `json:"donor_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	DateTime       time.Time  `json:"date_time"`
	Status         string     `json:"status"`
	RequestID      *uuid.UUID `json:"request_id,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	DonorName      string     `json:"donor_name"`
	BloodGroup     string     `json:"blood_group"`
	Phone          string     `json:"phone,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		DonorID:        a.DonorID,
		OrganizationID: a.OrganizationID,
		DateTime:       a.DateTime,
		Status:         string(a.Status),
		RequestID:      a.RequestID,
		Notes:          a.Notes,
		DonorName:      a.DonorName,
		BloodGroup:     a.BloodGroup,
		Phone:          a.Phone,
	}
}

func toAppointmentResponses(in []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(in))
	for i := range in {
		out = append(out, toAppointmentResponse(&in[i]))
	}
	return out
}

type CreateRequestRequest struct {
	BloodGroup    string `json:"blood_group"`
	ComponentType string `json:"component_type"`
	UnitsNeeded   int    `json:"units_needed"`
	Urgency       string `json:"urgency"`
	Notes         string `json:"notes"`
}

type BloodRequestResponse struct {
	ID            uuid.UUID  `json:"id"`
	HospitalID    uuid.UUID  `json:"hospital_id"`
	BloodGroup    string     `json:"blood_group"`
	ComponentType string     `json:"component_type"`
	UnitsNeeded   int        `json:"units_needed"`
	Urgency       string     `json:"urgency"`
	Status        string     `json:"status"`
	FulfilledBy   *uuid.UUID `json:"fulfilled_by,omitempty"`
	FulfilledAt   *time.Time `json:"fulfilled_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBloodRequestResponse(r *request.BloodRequest) BloodRequestResponse {
	return BloodRequestResponse{
		ID:            r.ID,
		HospitalID:    r.HospitalID,
		BloodGroup:    r.BloodGroup,
		ComponentType: r.ComponentType,
		UnitsNeeded:   r.UnitsNeeded,
		Urgency:       string(r.Urgency),
		Status:        string(r.Status),
		FulfilledBy:   r.FulfilledBy,
		FulfilledAt:   r.FulfilledAt,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
}

type InventoryUnitResponse struct {
	ID            uuid.UUID `json:"id"`
	DonationID    uuid.UUID `json:"donation_id"`
	BloodBagID    string    `json:"blood_bag_id"`
	BloodGroup    string    `json:"blood_group"`
	ComponentType string    `json:"component_type"`
	Units         int       `json:"units"`
	VolumeMl      int       `json:"volume_ml"`
	CollectedAt   time.Time `json:"collected_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Status        string    `json:"status"`
}

func toInventoryUnitResponse(u *inventory.Unit) InventoryUnitResponse {
	return InventoryUnitResponse{
		ID:            u.ID,
		DonationID:    u.DonationID,
		BloodBagID:    u.BloodBagID,
		BloodGroup:    u.BloodGroup,
		ComponentType: u.ComponentType,
		Units:         u.Units,
		VolumeMl:      u.VolumeMl,
		CollectedAt:   u.CollectedAt,
		ExpiresAt:     u.ExpiresAt,
		Status:        string(u.Status),
	}
}

type InventoryResponse struct {
	Units []InventoryUnitResponse `json:"units"`
	Stock []inventory.GroupStock  `json:"stock"`
}

type CreateCampRequest struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type CampResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Location       string    `json:"location,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
}

func toCampResponse(c *camp.Camp) CampResponse {
	return CampResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Location:       c.Location,
		StartsAt:       c.StartsAt,
		EndsAt:         c.EndsAt,
	}
}

type RegisterParticipantRequest struct {
	DonorID    string `json:"donor_id"`
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	Phone      string `json:"phone"`
}

type ParticipantResponse struct {
	ID           uuid.UUID  `json:"id"`
	CampID       uuid.UUID  `json:"camp_id"`
	DonorID      *uuid.UUID `json:"donor_id,omitempty"`
	Name         string     `json:"name"`
	BloodGroup   string     `json:"blood_group"`
	Phone        string     `json:"phone,omitempty"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
}

func toParticipantResponse(p *camp.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:           p.ID,
		CampID:       p.CampID,
		DonorID:      p.DonorID,
		Name:         p.Name,
		BloodGroup:   p.BloodGroup,
		Phone:        p.Phone,
		Status:       string(p.Status),
		RegisteredAt: p.RegisteredAt,
	}
}

// Donation payloads keep the camelCase field names of the stored document.

type CreateDonationRequest struct {
	AppointmentID     string `json:"appointmentId"`
	CampParticipantID string `json:"campParticipantId"`
	DonorID           string `json:"donorId"`
	DonorName         string `json:"donorName"`
	BloodGroup        string `json:"bloodGroup"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Stage             string `json:"stage"`
	Notes             string `json:"notes"`
}

type UpdateStageRequest struct {
	Stage   string `json:"stage"`
	Notes   string `json:"notes"`
	Version int    `json:"version"`
}

type ScreeningRequest struct {
	donation.Screening
	Version int `json:"version"`
}

type CollectionRequest struct {
	donation.Collection
	Version int `json:"version"`
}

type LabTestsRequest struct {
	donation.LabTests
	Version int `json:"version"`
}

type LabTestsResponse struct {
	Donation      *donation.Donation     `json:"donation"`
	InventoryUnit *InventoryUnitResponse `json:"inventoryUnit,omitempty"`
	Request       *BloodRequestResponse  `json:"request,omitempty"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}
