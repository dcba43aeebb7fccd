package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/admin-backend/internal/config"
	"github.com/jobdeck/admin-backend/internal/guard"
	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/jobs"
	"github.com/jobdeck/admin-backend/internal/registry"
	"github.com/jobdeck/admin-backend/internal/session"
	"github.com/jobdeck/admin-backend/internal/upstream"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

var (
	adminID = uuid.MustParse("f3b3c9f0-7f30-4a5f-9a37-2a2c0d7a8f11")
	plainID = uuid.MustParse("9f0b4e51-1d4e-4c84-a1a3-6d0a9c2f4b02")
)

type fakeAuthenticator struct {
	claims map[string]*session.Claims
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*session.Claims, error) {
	if c, ok := f.claims[token]; ok {
		return c, nil
	}
	return nil, session.ErrTokenInvalid
}

type fakeLister struct {
	companies []upstream.Company
	err       error
	calls     atomic.Int64
}

func (f *fakeLister) ListAccessibleCompanies(ctx context.Context, token string) ([]upstream.Company, error) {
	f.calls.Add(1)
	return f.companies, f.err
}

type fakeJobsAPI struct {
	job   upstream.Job
	jobs  []upstream.Job
	err   error
	calls atomic.Int64
}

func (f *fakeJobsAPI) CreateJob(ctx context.Context, token string, payload upstream.JobPayload) (upstream.Job, error) {
	f.calls.Add(1)
	return f.job, f.err
}

func (f *fakeJobsAPI) UpdateJob(ctx context.Context, token, jobID string, payload upstream.JobPayload) (upstream.Job, error) {
	f.calls.Add(1)
	return f.job, f.err
}

func (f *fakeJobsAPI) DeleteJob(ctx context.Context, token, jobID string) error {
	f.calls.Add(1)
	return f.err
}

func (f *fakeJobsAPI) ListJobs(ctx context.Context, token, companyID string) ([]upstream.Job, error) {
	f.calls.Add(1)
	return f.jobs, f.err
}

func (f *fakeJobsAPI) SetJobActive(ctx context.Context, token, jobID string, active bool) (upstream.Job, error) {
	f.calls.Add(1)
	return f.job, f.err
}

type fakeNotifier struct {
	notices atomic.Int64
}

func (f *fakeNotifier) EnqueueAccessRevoked(email, companyID, companyName string) error {
	f.notices.Add(1)
	return nil
}

type fixture struct {
	router   http.Handler
	lister   *fakeLister
	jobsAPI  *fakeJobsAPI
	notifier *fakeNotifier
	guards   *guard.Manager
	server   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lister := &fakeLister{companies: []upstream.Company{
		{ID: "c-1", Name: "Acme Robotics"},
		{ID: "c-2", Name: "Globex"},
	}}
	jobsAPI := &fakeJobsAPI{}
	notifier := &fakeNotifier{}

	classifier := identity.NewClassifier(nil)
	registries := registry.NewManager(classifier, lister, 0, time.Hour)
	t.Cleanup(registries.Close)
	guards := guard.NewManager(time.Hour)
	t.Cleanup(guards.Close)

	auth := &fakeAuthenticator{claims: map[string]*session.Claims{
		adminToken: {
			TokenID: "jti-admin",
			Principal: identity.Principal{
				ID:       adminID,
				Email:    "admin@jobdeck.io",
				RoleType: identity.RoleTypeSuperAdmin,
			},
		},
		userToken: {
			TokenID: "jti-user",
			Principal: identity.Principal{
				ID:    plainID,
				Email: "user@jobdeck.io",
			},
		},
	}}

	server := NewServer(auth, registries, guards, jobs.NewGateway(jobsAPI), notifier, time.Hour)

	cfg := config.Load()
	cfg.Server.RatePerSecond = 1000
	cfg.Server.RateBurst = 1000

	router := server.Router(cfg)
	t.Cleanup(server.Close)

	return &fixture{
		router:   router,
		lister:   lister,
		jobsAPI:  jobsAPI,
		notifier: notifier,
		guards:   guards,
		server:   server,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
