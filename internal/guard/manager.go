package guard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks the selected-company guard for each admin session. Selecting
// a new company stops the previous guard before the replacement is stored, so
// a session never has two live timers. Guards whose session has gone idle are
// stopped and evicted by a janitor, so an abandoned selection does not keep
// polling the registry forever.
type Manager struct {
	mu      sync.Mutex
	idleTTL time.Duration
	guards  map[uuid.UUID]*managedGuard
	stop    chan struct{}
	once    sync.Once
}

type managedGuard struct {
	guard    *Guard
	lastSeen time.Time
}

func NewManager(idleTTL time.Duration) *Manager {
	m := &Manager{
		idleTTL: idleTTL,
		guards:  map[uuid.UUID]*managedGuard{},
		stop:    make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Manager) Select(userID uuid.UUID, g *Guard) {
	m.mu.Lock()
	var prev *Guard
	if entry, ok := m.guards[userID]; ok {
		prev = entry.guard
	}
	m.guards[userID] = &managedGuard{guard: g, lastSeen: time.Now()}
	m.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
}

func (m *Manager) Get(userID uuid.UUID) (*Guard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.guards[userID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.guard, true
}

func (m *Manager) Clear(userID uuid.UUID) {
	m.mu.Lock()
	entry := m.guards[userID]
	delete(m.guards, userID)
	m.mu.Unlock()
	if entry != nil {
		entry.guard.Stop()
	}
}

func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	guards := m.guards
	m.guards = map[uuid.UUID]*managedGuard{}
	m.mu.Unlock()
	for _, entry := range guards {
		entry.guard.Stop()
	}
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

// evictIdle stops and drops guards not seen within the idle TTL. Stopping
// kills the guard's timer, so an abandoned session cannot keep refreshing a
// registry with a token that will eventually go stale and misreport a
// revocation.
func (m *Manager) evictIdle(now time.Time) {
	m.mu.Lock()
	var stopped []*Guard
	for id, entry := range m.guards {
		if now.Sub(entry.lastSeen) > m.idleTTL {
			stopped = append(stopped, entry.guard)
			delete(m.guards, id)
		}
	}
	m.mu.Unlock()
	for _, g := range stopped {
		g.Stop()
	}
}
