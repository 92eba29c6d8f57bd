package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/auth"
	"github.com/hackgods/donation-pipeline/internal/blood"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/donation"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
	"github.com/hackgods/donation-pipeline/internal/request"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an empty string as nil.
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},

	{donation.ErrDonationNotFound, http.StatusNotFound, "donation_not_found"},
	{donation.ErrOriginNotFound, http.StatusNotFound, "origin_not_found"},
	{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
	{appointment.ErrDonorNotFound, http.StatusNotFound, "donor_not_found"},
	{appointment.ErrOrganizationNotFound, http.StatusNotFound, "organization_not_found"},
	{appointment.ErrRequestNotFound, http.StatusNotFound, "request_not_found"},
	{request.ErrRequestNotFound, http.StatusNotFound, "request_not_found"},
	{camp.ErrCampNotFound, http.StatusNotFound, "camp_not_found"},
	{camp.ErrParticipantNotFound, http.StatusNotFound, "participant_not_found"},

	{donation.ErrDuplicateBagID, http.StatusConflict, "duplicate_bag_id"},
	{donation.ErrVersionConflict, http.StatusConflict, "version_conflict"},
	{donation.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{donation.ErrInvalidStage, http.StatusConflict, "invalid_stage"},
	{donation.ErrOriginConsumed, http.StatusConflict, "origin_consumed"},
	{donation.ErrBusy, http.StatusConflict, "lock_busy"},
	{appointment.ErrDonorBeingBooked, http.StatusConflict, "lock_busy"},
	{redisclient.ErrLockNotAcquired, http.StatusConflict, "lock_busy"},
	{appointment.ErrDonorHasUpcoming, http.StatusConflict, "donor_has_upcoming"},
	{appointment.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{camp.ErrCampClosed, http.StatusConflict, "camp_closed"},
	{camp.ErrNotCancellable, http.StatusConflict, "invalid_status_transition"},
	{camp.ErrInPipeline, http.StatusConflict, "invalid_status_transition"},
	{request.ErrNotOpen, http.StatusConflict, "request_not_open"},

	{appointment.ErrDateInPast, http.StatusBadRequest, "validation_error"},
	{camp.ErrInvalidCamp, http.StatusBadRequest, "validation_error"},
	{camp.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{request.ErrInvalidUnits, http.StatusBadRequest, "validation_error"},
	{request.ErrInvalidUrgency, http.StatusBadRequest, "validation_error"},
	{request.ErrUnknownStatus, http.StatusBadRequest, "validation_error"},
	{inventory.ErrUnknownStatus, http.StatusBadRequest, "validation_error"},
	{blood.ErrUnknownGroup, http.StatusBadRequest, "validation_error"},
	{blood.ErrUnknownComponent, http.StatusBadRequest, "validation_error"},
}

// handleServiceError maps domain errors to HTTP responses. Anything
// unmapped is logged and reported as a 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var exists *donation.ExistsError
	if errors.As(err, &exists) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "donation_exists",
			Details:  err.Error(),
			Existing: exists.Existing,
		})
		return
	}
	if errors.Is(err, donation.ErrDonationExists) {
		writeError(w, http.StatusConflict, "donation_exists", err.Error())
		return
	}

	var verr *donation.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Details: verr.Message,
			Field:   verr.Field,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
