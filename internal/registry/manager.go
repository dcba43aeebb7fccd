package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jobdeck/admin-backend/internal/identity"
)

// Manager keeps one Registry per admin user. The browser equivalent is one
// registry per session; server-side the session comes back on every request,
// so entries are keyed by user id and evicted after an idle TTL.
type Manager struct {
	mu         sync.Mutex
	classifier *identity.Classifier
	lister     Lister
	freshFor   time.Duration
	idleTTL    time.Duration

	entries map[uuid.UUID]*managedRegistry
	stop    chan struct{}
	once    sync.Once
}

type managedRegistry struct {
	registry *Registry
	lastSeen time.Time
}

func NewManager(classifier *identity.Classifier, lister Lister, freshFor, idleTTL time.Duration) *Manager {
	m := &Manager{
		classifier: classifier,
		lister:     lister,
		freshFor:   freshFor,
		idleTTL:    idleTTL,
		entries:    map[uuid.UUID]*managedRegistry{},
		stop:       make(chan struct{}),
	}
	go m.janitor()
	return m
}

// For returns the caller's registry, creating it on first sight and updating
// its principal/token on every call.
func (m *Manager) For(p identity.Principal, token string) *Registry {
	m.mu.Lock()
	entry, ok := m.entries[p.ID]
	if !ok {
		entry = &managedRegistry{registry: New(m.classifier, m.lister, m.freshFor)}
		m.entries[p.ID] = entry
	}
	entry.lastSeen = time.Now()
	m.mu.Unlock()

	entry.registry.SetPrincipal(p, token)
	return entry.registry
}

// Drop removes a user's registry, e.g. on logout.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
}

func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for id, entry := range m.entries {
				if now.Sub(entry.lastSeen) > m.idleTTL {
					delete(m.entries, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
