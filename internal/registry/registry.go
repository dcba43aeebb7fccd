// Package registry owns the set of companies a super-admin may currently act
// on. Grants live here and nowhere else: a company id present in the registry
// at decision time is the only basis for acting on that company.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/metrics"
	"github.com/jobdeck/admin-backend/internal/upstream"
)

// Grant says "the admin may act for this company right now", plus the company
// metadata the UI renders. Grants are replaced wholesale on refresh, never
// mutated in place.
type Grant struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Industry  string `json:"industry,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
}

type ErrorCategory string

const (
	CategoryPermissionDenied ErrorCategory = "permission_denied"
	CategoryMisconfigured    ErrorCategory = "misconfigured"
	CategoryUnavailable      ErrorCategory = "unavailable"
)

// RefreshError is a categorized refresh failure. Prior grants stay visible
// when one is set; they just can no longer be trusted as fresh.
type RefreshError struct {
	Category ErrorCategory
	Message  string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("registry refresh: %s: %s", e.Category, e.Message)
}

// Lister fetches the accessible-company list with the caller's credentials.
type Lister interface {
	ListAccessibleCompanies(ctx context.Context, token string) ([]upstream.Company, error)
}

// State is a read-only view of the registry for rendering.
type State struct {
	Grants      []Grant       `json:"grants"`
	Loading     bool          `json:"loading"`
	FetchedOnce bool          `json:"fetched_once"`
	LastError   *RefreshError `json:"-"`
}

// Snapshot is the registry view the permission engine consumes. It is taken at
// decision time; decisions are never cached across snapshots.
type Snapshot struct {
	admin bool
	ids   map[string]struct{}
}

func (s Snapshot) HasAccess(companyID string) bool {
	if !s.admin || companyID == "" {
		return false
	}
	_, ok := s.ids[companyID]
	return ok
}

// Registry holds the grant set for one admin. All writes go through Refresh;
// the in-flight channel is the only synchronization beyond the mutex, and it
// guarantees at most one network fetch at a time.
type Registry struct {
	mu sync.Mutex

	classifier *identity.Classifier
	lister     Lister
	freshFor   time.Duration

	classification identity.Classification
	token          string

	grants      map[string]Grant
	order       []string
	loading     bool
	inflight    chan struct{}
	lastErr     *RefreshError
	fetchedOnce bool
	autoFetched bool
	lastSuccess time.Time
}

func New(classifier *identity.Classifier, lister Lister, freshFor time.Duration) *Registry {
	return &Registry{
		classifier: classifier,
		lister:     lister,
		freshFor:   freshFor,
		grants:     map[string]Grant{},
	}
}

// SetPrincipal re-derives the classification and stores the caller's current
// bearer token. Dropping out of admin clears the grant set entirely and resets
// the auto-fetch marker so a later re-promotion fetches again.
func (r *Registry) SetPrincipal(p identity.Principal, token string) {
	cls := r.classifier.Classify(p)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = token
	if cls == r.classification {
		return
	}
	r.classification = cls
	if !cls.IsAdmin {
		r.grants = map[string]Grant{}
		r.order = nil
		r.lastErr = nil
		r.fetchedOnce = false
		r.autoFetched = false
	}
}

// EnsureFetched runs the one automatic refresh owed after a principal first
// classifies as admin. Safe to call on every request.
func (r *Registry) EnsureFetched(ctx context.Context) error {
	r.mu.Lock()
	if !r.classification.IsAdmin || r.autoFetched {
		r.mu.Unlock()
		return nil
	}
	r.autoFetched = true
	r.mu.Unlock()

	return r.Refresh(ctx, false)
}

// Refresh re-fetches the grant set. No-op unless the principal classifies as
// admin and a session token is present. If a refresh is already in flight the
// call issues no second network request; it waits for the in-flight one and
// observes its outcome. On success grants are replaced wholesale and the error
// cleared; on failure grants are left untouched and a categorized error is
// set. A non-forced call inside the freshness window returns without I/O.
func (r *Registry) Refresh(ctx context.Context, force bool) error {
	r.mu.Lock()
	if !r.classification.IsAdmin || r.token == "" {
		r.mu.Unlock()
		return nil
	}

	if ch := r.inflight; ch != nil {
		r.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.lastErr != nil {
			return r.lastErr
		}
		return nil
	}

	if !force && r.fetchedOnce && r.lastErr == nil && time.Since(r.lastSuccess) < r.freshFor {
		r.mu.Unlock()
		return nil
	}

	ch := make(chan struct{})
	r.inflight = ch
	r.loading = true
	token := r.token
	r.mu.Unlock()

	companies, err := r.lister.ListAccessibleCompanies(ctx, token)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	r.inflight = nil
	close(ch)

	if err != nil {
		r.lastErr = categorize(err)
		metrics.RegistryRefresh(string(r.lastErr.Category))
		return r.lastErr
	}

	grants := make(map[string]Grant, len(companies))
	order := make([]string, 0, len(companies))
	for _, c := range companies {
		if c.ID == "" {
			continue
		}
		grants[c.ID] = Grant{
			CompanyID: c.ID,
			Name:      c.Name,
			Location:  c.Location,
			Industry:  c.Industry,
			LogoURL:   c.LogoURL,
		}
		order = append(order, c.ID)
	}
	r.grants = grants
	r.order = order
	r.lastErr = nil
	r.fetchedOnce = true
	r.lastSuccess = time.Now()
	metrics.RegistryRefresh("success")
	return nil
}

// HasAccess reports whether the admin currently holds a grant for companyID.
// Always false for non-admin classifications, whatever the grant set contains.
func (r *Registry) HasAccess(companyID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.classification.IsAdmin || companyID == "" {
		return false
	}
	_, ok := r.grants[companyID]
	return ok
}

func (r *Registry) Grant(companyID string) *Grant {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.classification.IsAdmin {
		return nil
	}
	if g, ok := r.grants[companyID]; ok {
		copied := g
		return &copied
	}
	return nil
}

func (r *Registry) Classification() identity.Classification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classification
}

func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	grants := make([]Grant, 0, len(r.order))
	for _, id := range r.order {
		grants = append(grants, r.grants[id])
	}
	return State{
		Grants:      grants,
		Loading:     r.loading,
		FetchedOnce: r.fetchedOnce,
		LastError:   r.lastErr,
	}
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]struct{}, len(r.grants))
	for id := range r.grants {
		ids[id] = struct{}{}
	}
	return Snapshot{admin: r.classification.IsAdmin, ids: ids}
}

func categorize(err error) *RefreshError {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusForbidden:
			return &RefreshError{
				Category: CategoryPermissionDenied,
				Message:  "you do not have permission to view accessible companies",
			}
		case http.StatusNotFound:
			return &RefreshError{
				Category: CategoryMisconfigured,
				Message:  "accessible companies endpoint not found; check backend configuration",
			}
		default:
			return &RefreshError{
				Category: CategoryUnavailable,
				Message:  fmt.Sprintf("failed to load accessible companies: %s", apiErr.Message),
			}
		}
	}
	return &RefreshError{
		Category: CategoryUnavailable,
		Message:  fmt.Sprintf("failed to load accessible companies: %v", err),
	}
}
