package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/auth"
	"github.com/hackgods/donation-pipeline/internal/donation"
)

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)

		var req CreateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		orgID, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_organization_id", "organization_id must be a valid UUID")
			return
		}
		requestID, err := optionalUUID(req.RequestID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "request_id must be a valid UUID")
			return
		}

		var donorID uuid.UUID
		switch {
		case p.Role == auth.RoleDonor:
			if p.DonorID == nil {
				writeError(w, http.StatusForbidden, "forbidden", "account has no donor profile")
				return
			}
			donorID = *p.DonorID
		case p.HasRole(auth.RoleBloodBank, auth.RoleAdmin) && canAccessOrg(p, orgID):
			donorID, err = uuid.Parse(req.DonorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_donor_id", "donor_id must be a valid UUID")
				return
			}
		default:
			writeError(w, http.StatusForbidden, "forbidden", "cannot book for this organization")
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookInput{
			DonorID:        donorID,
			OrganizationID: orgID,
			DateTime:       req.DateTime,
			RequestID:      requestID,
			Notes:          req.Notes,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		q := r.URL.Query()

		var f appointment.Filter
		var err error
		if f.OrganizationID, err = optionalUUID(q.Get("organization_id")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_organization_id", "organization_id must be a valid UUID")
			return
		}
		if f.DonorID, err = optionalUUID(q.Get("donor_id")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_donor_id", "donor_id must be a valid UUID")
			return
		}
		if raw := q.Get("status"); raw != "" {
			st, ok := appointment.ParseStatus(raw)
			if !ok {
				writeError(w, http.StatusBadRequest, "validation_error", "unknown status "+strconv.Quote(raw))
				return
			}
			f.Status = st
		}
		f.Limit, _ = strconv.Atoi(q.Get("limit"))
		f.Offset, _ = strconv.Atoi(q.Get("offset"))

		// Non-admins only see their own slice of the data.
		switch p.Role {
		case auth.RoleAdmin:
		case auth.RoleDonor:
			f.DonorID = p.DonorID
			if f.DonorID == nil {
				writeError(w, http.StatusForbidden, "forbidden", "account has no donor profile")
				return
			}
		default:
			if p.OrganizationID == nil {
				writeError(w, http.StatusForbidden, "forbidden", "account is not attached to an organization")
				return
			}
			f.OrganizationID = p.OrganizationID
		}

		appts, err := svc.List(r.Context(), f)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ListResponse[AppointmentResponse]{Items: toAppointmentResponses(appts)})
	}
}

// ownsAppointment is true for the booking donor and for staff of the
// booked organization.
func ownsAppointment(p auth.Principal, a *appointment.Appointment) bool {
	if p.Role == auth.RoleDonor {
		return p.DonorID != nil && *p.DonorID == a.DonorID
	}
	return canAccessOrg(p, a.OrganizationID)
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if !ownsAppointment(principal(r), appt) {
			writeError(w, http.StatusNotFound, "appointment_not_found", appointment.ErrAppointmentNotFound.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if !ownsAppointment(principal(r), appt) {
			writeError(w, http.StatusNotFound, "appointment_not_found", appointment.ErrAppointmentNotFound.Error())
			return
		}

		cancelled, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(cancelled))
	}
}

func myAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		if p.DonorID == nil {
			writeError(w, http.StatusForbidden, "forbidden", "account has no donor profile")
			return
		}

		appts, err := svc.List(r.Context(), appointment.Filter{DonorID: p.DonorID, Limit: 100})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ListResponse[AppointmentResponse]{Items: toAppointmentResponses(appts)})
	}
}

func myDonationsHandler(svc DonationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principal(r)
		if p.DonorID == nil {
			writeError(w, http.StatusForbidden, "forbidden", "account has no donor profile")
			return
		}

		donations, err := svc.List(r.Context(), donation.Filter{DonorID: p.DonorID})
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
