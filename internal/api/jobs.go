package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/jobs"
	"github.com/jobdeck/admin-backend/internal/middleware"
	"github.com/jobdeck/admin-backend/internal/permission"
	"github.com/jobdeck/admin-backend/internal/registry"
)

// access adapts a registry to the gateway's call-time view of it.
type access struct{ reg *registry.Registry }

func (a access) Classification() identity.Classification { return a.reg.Classification() }
func (a access) Snapshot() permission.Snapshot           { return a.reg.Snapshot() }

// ValidateJob runs the whole-form validation pass without touching the
// backend. The response mirrors a submit: every field's errors plus the first
// invalid field in form order.
func (s *Server) ValidateJob(w http.ResponseWriter, r *http.Request) {
	var draft jobs.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid request body", nil))
		return
	}

	reg := s.registryFor(r)
	result := jobs.NewFormState().Submit(draft, reg.Classification(), reg.Snapshot())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	var draft jobs.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid request body", nil))
		return
	}

	reg := s.registryFor(r)
	if result := jobs.NewFormState().Submit(draft, reg.Classification(), reg.Snapshot()); !result.OK {
		writeError(w, http.StatusBadRequest, ValidationErr("job draft is invalid", errorSetDetails(result.Errors)))
		return
	}

	job, err := s.gateway.Create(r.Context(), access{reg}, draft)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var draft jobs.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid request body", nil))
		return
	}

	reg := s.registryFor(r)
	if result := jobs.NewFormState().Submit(draft, reg.Classification(), reg.Snapshot()); !result.OK {
		writeError(w, http.StatusBadRequest, ValidationErr("job draft is invalid", errorSetDetails(result.Errors)))
		return
	}

	job, err := s.gateway.Update(r.Context(), access{reg}, chi.URLParam(r, "jobID"), draft)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) DeleteJob(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	reg := s.registryFor(r)

	if err := s.gateway.Delete(r.Context(), access{reg}, chi.URLParam(r, "jobID"), companyID); err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(r)

	listed, err := s.gateway.List(r.Context(), access{reg}, r.URL.Query().Get("company_id"))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": listed})
}

func (s *Server) ActivateJob(w http.ResponseWriter, r *http.Request) {
	s.setJobActive(w, r, true)
}

func (s *Server) DeactivateJob(w http.ResponseWriter, r *http.Request) {
	s.setJobActive(w, r, false)
}

type setActiveRequest struct {
	CompanyID string `json:"company_id"`
}

func (s *Server) setJobActive(w http.ResponseWriter, r *http.Request, active bool) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid request body", nil))
		return
	}

	reg := s.registryFor(r)
	job, err := s.gateway.SetActive(r.Context(), access{reg}, chi.URLParam(r, "jobID"), req.CompanyID, active)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// writeGatewayError maps the gateway's error taxonomy onto HTTP responses.
func (s *Server) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *jobs.Error
	if !errors.As(err, &gwErr) {
		middleware.GetLoggerFromContext(r.Context()).Error("Unexpected gateway failure", "error", err)
		writeError(w, http.StatusInternalServerError, InternalError("unexpected error"))
		return
	}

	switch gwErr.Kind {
	case jobs.KindNotAdmin, jobs.KindAccessDenied, jobs.KindPermission:
		writeError(w, http.StatusForbidden, PermissionDenied(gwErr.Message))
	case jobs.KindNoCompany:
		writeError(w, http.StatusBadRequest, ValidationErr(gwErr.Message, nil))
	case jobs.KindValidation:
		writeError(w, http.StatusBadRequest, ValidationErr(gwErr.Message, fieldDetails(gwErr.Fields)))
	case jobs.KindNotFound:
		writeError(w, http.StatusNotFound, NotFound("job"))
	default:
		middleware.GetLoggerFromContext(r.Context()).Warn("Upstream unavailable", "error", gwErr)
		writeError(w, http.StatusBadGateway, UpstreamErr(gwErr.Message))
	}
}

func errorSetDetails(errs jobs.ErrorSet) []ErrorDetail {
	return fieldDetails(map[string][]string(errs))
}
