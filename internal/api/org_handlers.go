package api

import (
	"net/http"

	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/request"
)

func listInventoryHandler(svc InventoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := *principal(r).OrganizationID
		q := r.URL.Query()

		units, err := svc.List(r.Context(), inventory.Filter{
			OrganizationID: orgID,
			Status:         inventory.Status(q.Get("status")),
			BloodGroup:     q.Get("blood_group"),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		stock, err := svc.Stock(r.Context(), orgID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := InventoryResponse{
			Units: make([]InventoryUnitResponse, 0, len(units)),
			Stock: stock,
		}
		if resp.Stock == nil {
			resp.Stock = []inventory.GroupStock{}
		}
		for i := range units {
			resp.Units = append(resp.Units, toInventoryUnitResponse(&units[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createRequestHandler(svc RequestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequestRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := svc.Create(r.Context(), request.CreateInput{
			HospitalID:    *principal(r).OrganizationID,
			BloodGroup:    req.BloodGroup,
			ComponentType: req.ComponentType,
			UnitsNeeded:   req.UnitsNeeded,
			Urgency:       req.Urgency,
			Notes:         req.Notes,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBloodRequestResponse(created))
	}
}

func listRequestsHandler(svc RequestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := request.Status(r.URL.Query().Get("status"))

		reqs, err := svc.List(r.Context(), *principal(r).OrganizationID, status)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		items := make([]BloodRequestResponse, 0, len(reqs))
		for i := range reqs {
			items = append(items, toBloodRequestResponse(&reqs[i]))
		}
		writeJSON(w, http.StatusOK, ListResponse[BloodRequestResponse]{Items: items})
	}
}

func cancelRequestHandler(svc RequestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		cancelled, err := svc.Cancel(r.Context(), *principal(r).OrganizationID, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBloodRequestResponse(cancelled))
	}
}

func createCampHandler(svc CampService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCampRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := svc.CreateCamp(r.Context(), camp.Camp{
			OrganizationID: *principal(r).OrganizationID,
			Name:           req.Name,
			Location:       req.Location,
			StartsAt:       req.StartsAt,
			EndsAt:         req.EndsAt,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCampResponse(created))
	}
}

// ownCamp loads the camp in the URL and hides camps of other organizations.
func ownCamp(svc CampService, w http.ResponseWriter, r *http.Request) (*camp.Camp, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}

	c, err := svc.GetCamp(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, false
	}
	if !canAccessOrg(principal(r), c.OrganizationID) {
		writeError(w, http.StatusNotFound, "camp_not_found", camp.ErrCampNotFound.Error())
		return nil, false
	}
	return c, true
}

func registerParticipantHandler(svc CampService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := ownCamp(svc, w, r)
		if !ok {
			return
		}

		var req RegisterParticipantRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		donorID, err := optionalUUID(req.DonorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_donor_id", "donor_id must be a valid UUID")
			return
		}

		p, err := svc.Register(r.Context(), camp.RegisterInput{
			CampID:     c.ID,
			DonorID:    donorID,
			Name:       req.Name,
			BloodGroup: req.BloodGroup,
			Phone:      req.Phone,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toParticipantResponse(p))
	}
}

func listParticipantsHandler(svc CampService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := ownCamp(svc, w, r)
		if !ok {
			return
		}

		ps, err := svc.ListParticipants(r.Context(), c.ID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		items := make([]ParticipantResponse, 0, len(ps))
		for i := range ps {
			items = append(items, toParticipantResponse(&ps[i]))
		}
		writeJSON(w, http.StatusOK, ListResponse[ParticipantResponse]{Items: items})
	}
}

func cancelParticipantHandler(svc CampService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		p, err := svc.GetParticipant(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if !canAccessOrg(principal(r), p.OrganizationID) {
			writeError(w, http.StatusNotFound, "participant_not_found", camp.ErrParticipantNotFound.Error())
			return
		}

		cancelled, err := svc.CancelParticipant(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toParticipantResponse(cancelled))
	}
}
