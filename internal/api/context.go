package api

import (
	"encoding/json"
	"net/http"

	"github.com/jobdeck/admin-backend/internal/guard"
	"github.com/jobdeck/admin-backend/internal/logging"
	"github.com/jobdeck/admin-backend/internal/permission"
	"github.com/jobdeck/admin-backend/internal/registry"
	"github.com/jobdeck/admin-backend/internal/session"
)

type selectCompanyRequest struct {
	CompanyID string `json:"company_id"`
}

// SelectCompany enters a working context for one company. The previous guard
// for this session, if any, is stopped; the new one checks immediately and
// then keeps re-checking on its interval for as long as the selection stands.
func (s *Server) SelectCompany(w http.ResponseWriter, r *http.Request) {
	var req selectCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("company_id is required", nil))
		return
	}

	p, _ := session.PrincipalFromContext(r.Context())
	reg := s.registryFor(r)

	decision := permission.Decide(permission.ActionManageJobs, "", reg.Classification(), reg.Snapshot())
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, PermissionDenied(decision.Reason))
		return
	}

	g := guard.New(reg, s.guardInterval, s.revokedNotice(p.Email, reg))
	state := g.SetCompany(r.Context(), req.CompanyID)
	s.guards.Select(p.ID, g)

	writeJSON(w, http.StatusOK, map[string]any{"selected": true, "state": state})
}

// GetContext reports the guard state for the session's current selection.
func (s *Server) GetContext(w http.ResponseWriter, r *http.Request) {
	p, _ := session.PrincipalFromContext(r.Context())
	g, ok := s.guards.Get(p.ID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"selected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": true, "state": g.State()})
}

// ClearCompany leaves the working context and stops its guard.
func (s *Server) ClearCompany(w http.ResponseWriter, r *http.Request) {
	p, _ := session.PrincipalFromContext(r.Context())
	if g, ok := s.guards.Get(p.ID); ok {
		// Clearing an active selection is a revocation of the working context;
		// the guard reports it through the usual callback path.
		g.SetCompany(r.Context(), "")
	}
	s.guards.Clear(p.ID)
	w.WriteHeader(http.StatusNoContent)
}

// revokedNotice builds the guard callback that queues a notice email. The
// callback outlives the request, so it logs through the package logger and
// never fails the guard.
func (s *Server) revokedNotice(email string, reg *registry.Registry) guard.RevokedFunc {
	return func(companyID, reason string) {
		logging.Warn("Delegated access revoked",
			"email", email,
			"company_id", companyID,
			"reason", reason,
		)
		if s.notifier == nil || companyID == "" || email == "" {
			return
		}
		// The grant is usually gone by the time access flips; fall back to
		// the id when the name is no longer known.
		companyName := companyID
		if g := reg.Grant(companyID); g != nil {
			companyName = g.Name
		}
		if err := s.notifier.EnqueueAccessRevoked(email, companyID, companyName); err != nil {
			logging.Error("Failed to enqueue revocation notice", "error", err)
		}
	}
}
