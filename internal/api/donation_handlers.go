package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/auth"
	"github.com/hackgods/donation-pipeline/internal/donation"
)

// performedBy is the history attribution for a staff write.
func performedBy(p auth.Principal) string {
	if p.Email != "" {
		return p.Email
	}
	return p.AccountID.String()
}

func listDonationsHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := donation.Filter{
			OrganizationID: principal(r).OrganizationID,
			Stage:          donation.Stage(q.Get("stage")),
		}
		f.Limit, _ = strconv.Atoi(q.Get("limit"))
		f.Offset, _ = strconv.Atoi(q.Get("offset"))

		donations, err := svc.List(r.Context(), f)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if donations == nil {
			donations = []donation.Donation{}
		}
		writeJSON(w, http.StatusOK, ListResponse[donation.Donation]{Items: donations})
	}
}

func createDonationHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)

		var req CreateDonationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		in := donation.CreateInput{
			OrganizationID: *p.OrganizationID,
			DonorName:      req.DonorName,
			BloodGroup:     req.BloodGroup,
			Phone:          req.Phone,
			Email:          req.Email,
			Stage:          donation.Stage(req.Stage),
			Notes:          req.Notes,
			PerformedBy:    performedBy(p),
		}
		var err error
		if in.AppointmentID, err = optionalUUID(req.AppointmentID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointmentId must be a valid UUID")
			return
		}
		if in.CampParticipantID, err = optionalUUID(req.CampParticipantID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_camp_participant_id", "campParticipantId must be a valid UUID")
			return
		}
		if in.DonorID, err = optionalUUID(req.DonorID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_donor_id", "donorId must be a valid UUID")
			return
		}

		created, err := svc.CreateDonation(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ownDonation loads the donation in the URL and hides donations of other
// organizations.
func ownDonation(svc DonationService, w http.ResponseWriter, r *http.Request) (uuid.UUID, *donation.Donation, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return uuid.Nil, nil, false
	}

	d, err := svc.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return uuid.Nil, nil, false
	}
	if !canAccessOrg(principal(r), d.OrganizationID) {
		writeError(w, http.StatusNotFound, "donation_not_found", donation.ErrDonationNotFound.Error())
		return uuid.Nil, nil, false
	}
	return id, d, true
}

func getDonationHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, d, ok := ownDonation(svc, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func updateStageHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := ownDonation(svc, w, r)
		if !ok {
			return
		}

		var req UpdateStageRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		updated, err := svc.UpdateStage(r.Context(), id, donation.StageUpdate{
			To:          donation.Stage(req.Stage),
			Notes:       req.Notes,
			Version:     req.Version,
			PerformedBy: performedBy(principal(r)),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func recordScreeningHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := ownDonation(svc, w, r)
		if !ok {
			return
		}

		var req ScreeningRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		updated, err := svc.RecordScreening(r.Context(), id, donation.ScreeningInput{
			Screening:   req.Screening,
			Version:     req.Version,
			PerformedBy: performedBy(principal(r)),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func recordCollectionHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := ownDonation(svc, w, r)
		if !ok {
			return
		}

		var req CollectionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		updated, err := svc.RecordCollection(r.Context(), id, donation.CollectionInput{
			Collection:  req.Collection,
			Version:     req.Version,
			PerformedBy: performedBy(principal(r)),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func recordLabTestsHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, ok := ownDonation(svc, w, r)
		if !ok {
			return
		}

		var req LabTestsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		out, err := svc.RecordLabTests(r.Context(), id, donation.LabTestsInput{
			LabTests:    req.LabTests,
			Version:     req.Version,
			PerformedBy: performedBy(principal(r)),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := LabTestsResponse{Donation: out.Donation}
		if out.Unit != nil {
			u := toInventoryUnitResponse(out.Unit)
			resp.InventoryUnit = &u
		}
		if out.Request != nil {
			br := toBloodRequestResponse(out.Request)
			resp.Request = &br
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pipelineHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := svc.Board(r.Context(), *principal(r).OrganizationID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}
