package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobdeck/admin-backend/internal/middleware"
	"github.com/jobdeck/admin-backend/internal/permission"
	"github.com/jobdeck/admin-backend/internal/registry"
)

// ListCompanies returns the caller's current grant set and refresh condition.
func (s *Server) ListCompanies(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(r)

	decision := permission.Decide(permission.ActionViewCompanies, "", reg.Classification(), reg.Snapshot())
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, PermissionDenied(decision.Reason))
		return
	}

	writeJSON(w, http.StatusOK, companiesBody(reg.State()))
}

// RefreshCompanies forces a refetch of the grant set, bypassing the freshness
// window. Prior grants stay visible when the fetch fails.
func (s *Server) RefreshCompanies(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(r)

	decision := permission.Decide(permission.ActionViewCompanies, "", reg.Classification(), reg.Snapshot())
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, PermissionDenied(decision.Reason))
		return
	}

	if err := reg.Refresh(r.Context(), true); err != nil {
		middleware.GetLoggerFromContext(r.Context()).Warn("Company refresh failed", "error", err)

		var refreshErr *registry.RefreshError
		if errors.As(err, &refreshErr) && refreshErr.Category == registry.CategoryPermissionDenied {
			writeError(w, http.StatusForbidden, PermissionDenied(refreshErr.Message))
			return
		}
		writeError(w, http.StatusBadGateway, UpstreamErr(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, companiesBody(reg.State()))
}

// CompanyAccess answers "may the caller act for this company right now".
func (s *Server) CompanyAccess(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(r)
	companyID := chi.URLParam(r, "companyID")

	writeJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"has_access": reg.HasAccess(companyID),
	})
}

// CheckPermission exposes the decision engine for a single action/company pair.
func (s *Server) CheckPermission(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("action is required", nil))
		return
	}
	companyID := r.URL.Query().Get("company_id")

	reg := s.registryFor(r)
	decision := permission.Decide(action, companyID, reg.Classification(), reg.Snapshot())

	writeJSON(w, http.StatusOK, map[string]any{
		"action":     action,
		"company_id": companyID,
		"decision":   decision,
	})
}

func companiesBody(state registry.State) map[string]any {
	body := map[string]any{
		"companies":    state.Grants,
		"loading":      state.Loading,
		"fetched_once": state.FetchedOnce,
	}
	if state.LastError != nil {
		body["error"] = map[string]string{
			"category": string(state.LastError.Category),
			"message":  state.LastError.Message,
		}
	}
	return body
}
