package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/metrics"
	"github.com/jobdeck/admin-backend/internal/permission"
	"github.com/jobdeck/admin-backend/internal/session"
	"github.com/jobdeck/admin-backend/internal/upstream"
)

// ErrorKind is the gateway's normalized error taxonomy.
type ErrorKind string

const (
	KindNotAdmin     ErrorKind = "not_admin"
	KindNoCompany    ErrorKind = "no_company_selected"
	KindAccessDenied ErrorKind = "access_denied"
	KindValidation   ErrorKind = "validation"
	KindPermission   ErrorKind = "permission"
	KindNotFound     ErrorKind = "not_found"
	KindUnavailable  ErrorKind = "unavailable"
)

// Error carries the kind, a combined human-readable message and, for
// structured backend 400s, the field-level map intact for rendering.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("job gateway: %s: %s", e.Kind, e.Message)
}

// Preconditioned reports whether the error was raised client-side before any
// network call (the defense-in-depth checks), as opposed to a backend verdict.
func (e *Error) Preconditioned() bool {
	switch e.Kind {
	case KindNotAdmin, KindNoCompany, KindAccessDenied:
		return true
	}
	return false
}

// AccessView is the registry surface the gateway consults at call time.
type AccessView interface {
	Classification() identity.Classification
	Snapshot() permission.Snapshot
}

// API is the upstream jobs surface.
type API interface {
	CreateJob(ctx context.Context, token string, payload upstream.JobPayload) (upstream.Job, error)
	UpdateJob(ctx context.Context, token, jobID string, payload upstream.JobPayload) (upstream.Job, error)
	DeleteJob(ctx context.Context, token, jobID string) error
	ListJobs(ctx context.Context, token, companyID string) ([]upstream.Job, error)
	SetJobActive(ctx context.Context, token, jobID string, active bool) (upstream.Job, error)
}

// Gateway performs job operations on behalf of a delegated company. Every
// mutation is precondition-checked client-side before any network call; this
// mirrors the backend's authorization to save round-trips, it never replaces it.
type Gateway struct {
	api API
}

func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

func (g *Gateway) Create(ctx context.Context, access AccessView, draft Draft) (upstream.Job, error) {
	if err := precheckMutation(access, draft.CompanyID); err != nil {
		metrics.GatewayRequest("create", string(err.Kind))
		return upstream.Job{}, err
	}
	job, err := g.api.CreateJob(ctx, session.TokenFromContext(ctx), toPayload(draft))
	return g.finish("create", job, err)
}

func (g *Gateway) Update(ctx context.Context, access AccessView, jobID string, draft Draft) (upstream.Job, error) {
	if err := precheckMutation(access, draft.CompanyID); err != nil {
		metrics.GatewayRequest("update", string(err.Kind))
		return upstream.Job{}, err
	}
	job, err := g.api.UpdateJob(ctx, session.TokenFromContext(ctx), jobID, toPayload(draft))
	return g.finish("update", job, err)
}

func (g *Gateway) Delete(ctx context.Context, access AccessView, jobID, companyID string) error {
	if err := precheckMutation(access, companyID); err != nil {
		metrics.GatewayRequest("delete", string(err.Kind))
		return err
	}
	if err := g.api.DeleteJob(ctx, session.TokenFromContext(ctx), jobID); err != nil {
		normalized := normalizeUpstream(err)
		metrics.GatewayRequest("delete", string(normalized.Kind))
		return normalized
	}
	metrics.GatewayRequest("delete", "ok")
	return nil
}

// List requires the admin classification; a company filter additionally
// requires delegated access to that company.
func (g *Gateway) List(ctx context.Context, access AccessView, companyID string) ([]upstream.Job, error) {
	cls := access.Classification()
	snap := access.Snapshot()
	if decision := permission.Decide(permission.ActionManageJobs, "", cls, snap); !decision.Allowed {
		err := &Error{Kind: KindNotAdmin, Message: decision.Reason}
		metrics.GatewayRequest("list", string(err.Kind))
		return nil, err
	}
	if companyID != "" && !snap.HasAccess(companyID) {
		err := &Error{Kind: KindAccessDenied, Message: permission.ReasonNoAccess}
		metrics.GatewayRequest("list", string(err.Kind))
		return nil, err
	}
	listed, err := g.api.ListJobs(ctx, session.TokenFromContext(ctx), companyID)
	if err != nil {
		normalized := normalizeUpstream(err)
		metrics.GatewayRequest("list", string(normalized.Kind))
		return nil, normalized
	}
	metrics.GatewayRequest("list", "ok")
	return listed, nil
}

func (g *Gateway) SetActive(ctx context.Context, access AccessView, jobID, companyID string, active bool) (upstream.Job, error) {
	op := "deactivate"
	if active {
		op = "activate"
	}
	if err := precheckMutation(access, companyID); err != nil {
		metrics.GatewayRequest(op, string(err.Kind))
		return upstream.Job{}, err
	}
	job, err := g.api.SetJobActive(ctx, session.TokenFromContext(ctx), jobID, active)
	return g.finish(op, job, err)
}

func (g *Gateway) finish(op string, job upstream.Job, err error) (upstream.Job, error) {
	if err != nil {
		normalized := normalizeUpstream(err)
		metrics.GatewayRequest(op, string(normalized.Kind))
		return upstream.Job{}, normalized
	}
	metrics.GatewayRequest(op, "ok")
	return job, nil
}

// precheckMutation applies the three client-side preconditions in order:
// admin classification, target company present, delegated access held. The
// first failing one is raised; nothing reaches the network until all pass.
func precheckMutation(access AccessView, companyID string) *Error {
	decision := permission.Decide(permission.ActionPostJob, companyID, access.Classification(), access.Snapshot())
	if decision.Allowed {
		return nil
	}
	switch decision.Reason {
	case permission.ReasonNotAdmin:
		return &Error{Kind: KindNotAdmin, Message: decision.Reason}
	case permission.ReasonNoCompany:
		return &Error{Kind: KindNoCompany, Message: decision.Reason}
	default:
		return &Error{Kind: KindAccessDenied, Message: decision.Reason}
	}
}

func normalizeUpstream(err error) *Error {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusBadRequest:
			return &Error{Kind: KindValidation, Message: apiErr.Message, Fields: apiErr.Fields}
		case apiErr.Status == http.StatusForbidden:
			return &Error{Kind: KindPermission, Message: apiErr.Message}
		case apiErr.Status == http.StatusNotFound:
			return &Error{Kind: KindNotFound, Message: apiErr.Message}
		default:
			return &Error{Kind: KindUnavailable, Message: apiErr.Message}
		}
	}
	return &Error{Kind: KindUnavailable, Message: err.Error()}
}

func toPayload(d Draft) upstream.JobPayload {
	return upstream.JobPayload{
		CompanyID:   d.CompanyID,
		Title:       d.Title,
		Description: d.Description,
		Skills:      d.Skills,
		SalaryMin:   d.SalaryMin,
		SalaryMax:   d.SalaryMax,
		Currency:    d.Currency,
		ApplyMethod: d.ApplyMethod,
		ApplyURL:    d.ApplyURL,
		ApplyEmail:  d.ApplyEmail,
		Deadline:    d.Deadline,
	}
}
