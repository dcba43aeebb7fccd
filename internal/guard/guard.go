// Package guard continuously re-validates delegated access to one company.
// A guard wraps a privileged working context: it checks on activation, then on
// an interval, reports revocation to its owner exactly once per transition,
// and fails closed when access cannot be confirmed.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/jobdeck/admin-backend/internal/metrics"
)

type Validity string

const (
	ValidityUnknown Validity = "unknown"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
)

const DefaultInterval = 30 * time.Second

// AccessChecker is the registry surface the guard needs.
type AccessChecker interface {
	Refresh(ctx context.Context, force bool) error
	HasAccess(companyID string) bool
}

// RevokedFunc is called when access flips from valid to invalid, once per
// transition, never once per poll.
type RevokedFunc func(companyID, reason string)

// State is the guard's externally visible condition.
type State struct {
	CompanyID     string    `json:"company_id"`
	Validity      Validity  `json:"validity"`
	Checking      bool      `json:"checking"`
	LastCheckedAt time.Time `json:"last_checked_at,omitzero"`
	Error         string    `json:"error,omitempty"`
}

// ShowContent reports whether guarded content may be shown. Unknown counts as
// showable so the first paint is not blocked before the first check resolves;
// Invalid never is.
func (s State) ShowContent() bool {
	return s.Validity != ValidityInvalid
}

type Guard struct {
	mu sync.Mutex

	checker   AccessChecker
	interval  time.Duration
	onRevoked RevokedFunc

	companyID   string
	validity    Validity
	checking    bool
	lastChecked time.Time
	errMsg      string

	gen     int // bumped on company change and stop; stale results are dropped
	cancel  context.CancelFunc
	stopped bool
}

func New(checker AccessChecker, interval time.Duration, onRevoked RevokedFunc) *Guard {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Guard{
		checker:   checker,
		interval:  interval,
		onRevoked: onRevoked,
		validity:  ValidityUnknown,
	}
}

// SetCompany points the guard at a company: the old timer is cancelled before
// anything else so two timers never coexist, state resets to Unknown, an
// immediate check runs, and a fresh timer is armed. An empty id tears the
// timer down and marks the guard invalid.
func (g *Guard) SetCompany(ctx context.Context, companyID string) State {
	g.mu.Lock()
	if g.stopped {
		defer g.mu.Unlock()
		return g.stateLocked()
	}
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	prev := g.validity
	g.companyID = companyID
	g.validity = ValidityUnknown
	g.checking = false
	g.errMsg = ""

	if companyID == "" {
		g.validity = ValidityInvalid
		g.errMsg = "no company selected"
		state := g.stateLocked()
		g.mu.Unlock()
		if prev == ValidityValid && g.onRevoked != nil {
			g.onRevoked("", "no company selected")
		}
		metrics.GuardTransition(string(ValidityInvalid))
		return state
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	go g.loop(loopCtx)
	g.mu.Unlock()

	return g.Validate(ctx, true)
}

// Validate runs one check: refresh the registry (single-flight collapses any
// overlap with a timer check), then confirm the grant. showLoading=false is
// for background polls, which must not flicker a loading state.
func (g *Guard) Validate(ctx context.Context, showLoading bool) State {
	g.mu.Lock()
	if g.stopped {
		defer g.mu.Unlock()
		return g.stateLocked()
	}
	gen := g.gen
	companyID := g.companyID
	if companyID == "" {
		defer g.mu.Unlock()
		return g.stateLocked()
	}
	if showLoading {
		g.checking = true
	}
	g.mu.Unlock()

	refreshErr := g.checker.Refresh(ctx, false)
	hasAccess := refreshErr == nil && g.checker.HasAccess(companyID)

	g.mu.Lock()
	if g.stopped || g.gen != gen {
		// The guard moved on while we were checking; this result is dead.
		defer g.mu.Unlock()
		return g.stateLocked()
	}
	g.checking = false
	g.lastChecked = time.Now()
	prev := g.validity

	switch {
	case refreshErr != nil:
		// Inability to confirm access is treated as no access.
		g.validity = ValidityInvalid
		g.errMsg = refreshErr.Error()
	case hasAccess:
		g.validity = ValidityValid
		g.errMsg = ""
	default:
		g.validity = ValidityInvalid
		g.errMsg = "delegated access to this company has been revoked"
	}

	state := g.stateLocked()
	revoked := prev == ValidityValid && g.validity == ValidityInvalid
	changed := prev != g.validity
	reason := g.errMsg
	g.mu.Unlock()

	if changed {
		metrics.GuardTransition(string(state.Validity))
	}
	if revoked && g.onRevoked != nil {
		g.onRevoked(companyID, reason)
	}
	return state
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// Stop tears the guard down: the timer is cancelled and any in-flight check
// result is discarded rather than applied.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.stopped = true
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

func (g *Guard) loop(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Validate(ctx, false)
		}
	}
}

func (g *Guard) stateLocked() State {
	return State{
		CompanyID:     g.companyID,
		Validity:      g.validity,
		Checking:      g.checking,
		LastCheckedAt: g.lastChecked,
		Error:         g.errMsg,
	}
}
