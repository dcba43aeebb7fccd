// Package permission is the pure decision engine for delegated admin actions.
// Decisions are computed from the classification and a registry snapshot taken
// at call time; nothing here is cached, so every decision reflects the latest
// grant set the caller handed in.
package permission

import (
	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/metrics"
)

const (
	ActionPostJob       = "post_job"
	ActionManageJobs    = "manage_jobs"
	ActionViewCompanies = "view_companies"
)

const (
	ReasonNotAdmin      = "not a super admin"
	ReasonNoCompany     = "no company selected"
	ReasonNoAccess      = "no delegated access to this company"
	ReasonUnknownAction = "unknown action"
)

// Decision is a value: recomputed on demand, never stored.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Snapshot is the registry view decisions are made against.
type Snapshot interface {
	HasAccess(companyID string) bool
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide applies the action table. Company-scoped actions require a grant in
// the snapshot; no other flag or prior decision substitutes for that lookup.
func Decide(action, companyID string, cls identity.Classification, snap Snapshot) Decision {
	d := decide(action, companyID, cls, snap)
	metrics.PermissionDecision(action, d.Allowed)
	return d
}

func decide(action, companyID string, cls identity.Classification, snap Snapshot) Decision {
	switch action {
	case ActionPostJob:
		if !cls.IsAdmin {
			return deny(ReasonNotAdmin)
		}
		if companyID == "" {
			return deny(ReasonNoCompany)
		}
		if !snap.HasAccess(companyID) {
			return deny(ReasonNoAccess)
		}
		return allow()
	case ActionManageJobs, ActionViewCompanies:
		if !cls.IsAdmin {
			return deny(ReasonNotAdmin)
		}
		return allow()
	default:
		return deny(ReasonUnknownAction)
	}
}
