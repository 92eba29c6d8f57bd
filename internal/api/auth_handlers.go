package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/auth"
)

func loginHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "email and password are required")
			return
		}

		pair, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func refreshHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "refreshToken is required")
			return
		}

		pair, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// canAccessOrg reports whether the caller may act on resources of orgID.
// Admins are not bound to their own organization.
func canAccessOrg(p auth.Principal, orgID uuid.UUID) bool {
	if p.Role == auth.RoleAdmin {
		return true
	}
	return p.OrganizationID != nil && *p.OrganizationID == orgID
}
