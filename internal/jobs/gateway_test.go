package jobs

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/permission"
	"github.com/jobdeck/admin-backend/internal/session"
	"github.com/jobdeck/admin-backend/internal/upstream"
)

type fakeAccess struct {
	cls    identity.Classification
	grants grantSet
}

func (f fakeAccess) Classification() identity.Classification { return f.cls }
func (f fakeAccess) Snapshot() permission.Snapshot           { return f.grants }

func adminAccess(companyIDs ...string) fakeAccess {
	grants := grantSet{}
	for _, id := range companyIDs {
		grants[id] = struct{}{}
	}
	return fakeAccess{cls: adminCls(), grants: grants}
}

type fakeAPI struct {
	calls      atomic.Int64
	err        error
	job        upstream.Job
	jobs       []upstream.Job
	lastToken  string
	lastActive bool
}

func (f *fakeAPI) CreateJob(ctx context.Context, token string, payload upstream.JobPayload) (upstream.Job, error) {
	f.calls.Add(1)
	f.lastToken = token
	return f.job, f.err
}

func (f *fakeAPI) UpdateJob(ctx context.Context, token, jobID string, payload upstream.JobPayload) (upstream.Job, error) {
	f.calls.Add(1)
	f.lastToken = token
	return f.job, f.err
}

func (f *fakeAPI) DeleteJob(ctx context.Context, token, jobID string) error {
	f.calls.Add(1)
	f.lastToken = token
	return f.err
}

func (f *fakeAPI) ListJobs(ctx context.Context, token, companyID string) ([]upstream.Job, error) {
	f.calls.Add(1)
	f.lastToken = token
	return f.jobs, f.err
}

func (f *fakeAPI) SetJobActive(ctx context.Context, token, jobID string, active bool) (upstream.Job, error) {
	f.calls.Add(1)
	f.lastToken = token
	f.lastActive = active
	return f.job, f.err
}

func tokenCtx(t *testing.T) context.Context {
	t.Helper()
	return session.WithPrincipal(context.Background(), identity.Principal{}, "tok-123")
}

func TestGateway_CreateForwardsCallerToken(t *testing.T) {
	api := &fakeAPI{job: upstream.Job{ID: "j-1"}}
	g := NewGateway(api)

	job, err := g.Create(tokenCtx(t), adminAccess("c-1"), validDraft())
	require.NoError(t, err)
	assert.Equal(t, "j-1", job.ID)
	assert.Equal(t, "tok-123", api.lastToken)
}

func TestGateway_PreconditionsBlockBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		access fakeAccess
		draft  Draft
		kind   ErrorKind
	}{
		{
			name:   "non-admin",
			access: fakeAccess{cls: identity.Classification{Rule: identity.RuleNone}, grants: grantSet{"c-1": {}}},
			draft:  validDraft(),
			kind:   KindNotAdmin,
		},
		{
			name:   "no company",
			access: adminAccess("c-1"),
			draft: func() Draft {
				d := validDraft()
				d.CompanyID = ""
				return d
			}(),
			kind: KindNoCompany,
		},
		{
			name:   "no delegated access",
			access: adminAccess("c-other"),
			draft:  validDraft(),
			kind:   KindAccessDenied,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			g := NewGateway(api)

			_, err := g.Create(tokenCtx(t), tc.access, tc.draft)
			var gwErr *Error
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tc.kind, gwErr.Kind)
			assert.True(t, gwErr.Preconditioned())
			assert.Equal(t, int64(0), api.calls.Load(), "no network call on a failed precondition")
		})
	}
}

func TestGateway_ValidationErrorKeepsFieldMap(t *testing.T) {
	api := &fakeAPI{err: &upstream.APIError{
		Status:  http.StatusBadRequest,
		Message: "title: This field is required.",
		Fields:  map[string][]string{"title": {"This field is required."}},
	}}
	g := NewGateway(api)

	_, err := g.Create(tokenCtx(t), adminAccess("c-1"), validDraft())
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindValidation, gwErr.Kind)
	assert.False(t, gwErr.Preconditioned())
	assert.Equal(t, []string{"This field is required."}, gwErr.Fields["title"])
}

func TestGateway_StatusTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusForbidden, KindPermission},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindUnavailable},
		{http.StatusBadGateway, KindUnavailable},
	}

	for _, tc := range tests {
		api := &fakeAPI{err: &upstream.APIError{Status: tc.status, Message: http.StatusText(tc.status)}}
		g := NewGateway(api)

		err := g.Delete(tokenCtx(t), adminAccess("c-1"), "j-1", "c-1")
		var gwErr *Error
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, tc.kind, gwErr.Kind, "status %d", tc.status)
	}
}

func TestGateway_TransportErrorIsUnavailable(t *testing.T) {
	api := &fakeAPI{err: errors.New("dial tcp: connection refused")}
	g := NewGateway(api)

	_, err := g.Update(tokenCtx(t), adminAccess("c-1"), "j-1", validDraft())
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindUnavailable, gwErr.Kind)
	assert.Contains(t, gwErr.Message, "connection refused")
}

func TestGateway_ListRequiresAdmin(t *testing.T) {
	api := &fakeAPI{}
	g := NewGateway(api)
	access := fakeAccess{cls: identity.Classification{Rule: identity.RuleNone}}

	_, err := g.List(tokenCtx(t), access, "")
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindNotAdmin, gwErr.Kind)
	assert.Equal(t, int64(0), api.calls.Load())
}

func TestGateway_ListCompanyFilterRequiresGrant(t *testing.T) {
	api := &fakeAPI{jobs: []upstream.Job{{ID: "j-1"}}}
	g := NewGateway(api)
	access := adminAccess("c-1")

	// Unfiltered list needs only the admin classification.
	jobs, err := g.List(tokenCtx(t), access, "")
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	// A company filter needs a grant for that company.
	_, err = g.List(tokenCtx(t), access, "c-other")
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindAccessDenied, gwErr.Kind)
}

func TestGateway_SetActivePassesFlag(t *testing.T) {
	api := &fakeAPI{job: upstream.Job{ID: "j-1", IsActive: false}}
	g := NewGateway(api)

	_, err := g.SetActive(tokenCtx(t), adminAccess("c-1"), "j-1", "c-1", false)
	require.NoError(t, err)
	assert.False(t, api.lastActive)
	assert.Equal(t, int64(1), api.calls.Load())
}
