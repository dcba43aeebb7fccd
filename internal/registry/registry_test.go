package registry

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu        sync.Mutex
	calls     atomic.Int64
	companies []upstream.Company
	err       error
	block     chan struct{} // when set, List waits until closed
}

func (f *fakeLister) ListAccessibleCompanies(ctx context.Context, token string) ([]upstream.Company, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]upstream.Company, len(f.companies))
	copy(out, f.companies)
	return out, nil
}

func (f *fakeLister) set(companies []upstream.Company, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.companies = companies
	f.err = err
}

func adminPrincipal() identity.Principal {
	return identity.Principal{ID: uuid.New(), Email: "admin@jobdeck.io", RoleType: identity.RoleTypeSuperAdmin}
}

func newTestRegistry(lister Lister) *Registry {
	return New(identity.NewClassifier(nil), lister, 0)
}

func TestRegistry_RefreshReplacesGrants(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{
		{ID: "c-1", Name: "Acme", Location: "Toronto"},
		{ID: "c-2", Name: "Globex"},
	}, nil)

	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "tok")

	require.NoError(t, r.Refresh(context.Background(), false))

	assert.True(t, r.HasAccess("c-1"))
	assert.True(t, r.HasAccess("c-2"))
	assert.False(t, r.HasAccess("c-3"))

	grant := r.Grant("c-1")
	require.NotNil(t, grant)
	assert.Equal(t, "Acme", grant.Name)

	state := r.State()
	assert.Len(t, state.Grants, 2)
	assert.True(t, state.FetchedOnce)
	assert.Nil(t, state.LastError)
	assert.False(t, state.Loading)
}

func TestRegistry_RefreshNoOpForNonAdmin(t *testing.T) {
	lister := &fakeLister{}
	r := newTestRegistry(lister)
	r.SetPrincipal(identity.Principal{ID: uuid.New(), RoleType: "employer"}, "tok")

	require.NoError(t, r.Refresh(context.Background(), true))
	assert.Equal(t, int64(0), lister.calls.Load())
}

func TestRegistry_RefreshNoOpWithoutToken(t *testing.T) {
	lister := &fakeLister{}
	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "")

	require.NoError(t, r.Refresh(context.Background(), true))
	assert.Equal(t, int64(0), lister.calls.Load())
}

func TestRegistry_SingleFlight(t *testing.T) {
	lister := &fakeLister{block: make(chan struct{})}
	lister.set([]upstream.Company{{ID: "c-1", Name: "Acme"}}, nil)

	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "tok")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Refresh(context.Background(), true)
		}(i)
	}

	// Let the goroutines pile up behind the blocked fetch, then release it.
	assert.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(lister.block)
	wg.Wait()

	assert.Equal(t, int64(1), lister.calls.Load())
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, r.HasAccess("c-1"))
}

func TestRegistry_FailureKeepsPriorGrants(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1", Name: "Acme"}}, nil)

	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "tok")
	require.NoError(t, r.Refresh(context.Background(), false))

	lister.set(nil, &upstream.APIError{Status: http.StatusForbidden, Message: "forbidden"})
	err := r.Refresh(context.Background(), true)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, CategoryPermissionDenied, refreshErr.Category)

	// Stale data stays visible, just marked errored.
	state := r.State()
	assert.Len(t, state.Grants, 1)
	require.NotNil(t, state.LastError)
	assert.Equal(t, CategoryPermissionDenied, state.LastError.Category)
}

func TestRegistry_ErrorCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"forbidden", &upstream.APIError{Status: http.StatusForbidden}, CategoryPermissionDenied},
		{"not found", &upstream.APIError{Status: http.StatusNotFound}, CategoryMisconfigured},
		{"server error", &upstream.APIError{Status: http.StatusInternalServerError, Message: "boom"}, CategoryUnavailable},
		{"transport error", context.DeadlineExceeded, CategoryUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.err).Category)
		})
	}
}

func TestRegistry_DemotionClearsGrants(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1"}}, nil)

	p := adminPrincipal()
	r := newTestRegistry(lister)
	r.SetPrincipal(p, "tok")
	require.NoError(t, r.Refresh(context.Background(), false))
	require.True(t, r.HasAccess("c-1"))

	p.RoleType = "employer"
	r.SetPrincipal(p, "tok")

	assert.False(t, r.HasAccess("c-1"))
	assert.Empty(t, r.State().Grants)
	assert.False(t, r.State().FetchedOnce)
}

func TestRegistry_EnsureFetchedRunsOnce(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1"}}, nil)

	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "tok")

	require.NoError(t, r.EnsureFetched(context.Background()))
	require.NoError(t, r.EnsureFetched(context.Background()))
	assert.Equal(t, int64(1), lister.calls.Load())
}

func TestRegistry_EnsureFetchedAgainAfterRepromotion(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1"}}, nil)

	p := adminPrincipal()
	r := newTestRegistry(lister)
	r.SetPrincipal(p, "tok")
	require.NoError(t, r.EnsureFetched(context.Background()))

	demoted := p
	demoted.RoleType = "employer"
	r.SetPrincipal(demoted, "tok")
	r.SetPrincipal(p, "tok")

	require.NoError(t, r.EnsureFetched(context.Background()))
	assert.Equal(t, int64(2), lister.calls.Load())
}

func TestRegistry_FreshnessWindow(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1"}}, nil)

	r := New(identity.NewClassifier(nil), lister, time.Hour)
	r.SetPrincipal(adminPrincipal(), "tok")

	require.NoError(t, r.Refresh(context.Background(), false))
	require.NoError(t, r.Refresh(context.Background(), false))
	assert.Equal(t, int64(1), lister.calls.Load(), "non-forced refresh inside the window skips I/O")

	require.NoError(t, r.Refresh(context.Background(), true))
	assert.Equal(t, int64(2), lister.calls.Load(), "forced refresh always fetches")
}

func TestRegistry_SnapshotReflectsCurrentGrants(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]upstream.Company{{ID: "c-1"}}, nil)

	r := newTestRegistry(lister)
	r.SetPrincipal(adminPrincipal(), "tok")
	require.NoError(t, r.Refresh(context.Background(), false))

	snap := r.Snapshot()
	assert.True(t, snap.HasAccess("c-1"))
	assert.False(t, snap.HasAccess("c-2"))
	assert.False(t, snap.HasAccess(""))

	// Revoke upstream: a new snapshot sees it, the old one is a point in time.
	lister.set(nil, nil)
	require.NoError(t, r.Refresh(context.Background(), true))
	assert.False(t, r.Snapshot().HasAccess("c-1"))
}

func TestManager_ForReusesRegistryPerUser(t *testing.T) {
	lister := &fakeLister{}
	m := NewManager(identity.NewClassifier(nil), lister, 0, time.Hour)
	defer m.Close()

	p := adminPrincipal()
	r1 := m.For(p, "tok-1")
	r2 := m.For(p, "tok-2")
	assert.Same(t, r1, r2)

	other := adminPrincipal()
	assert.NotSame(t, r1, m.For(other, "tok"))

	m.Drop(p.ID)
	assert.NotSame(t, r1, m.For(p, "tok-3"))
}
