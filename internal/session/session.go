package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager holds process-local login sessions keyed by opaque token. It
// replaces a single global "current user" slot so any number of sessions can
// coexist; a dropped session simply expires with no effect on stored records.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	email     string
	expiresAt time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create registers a new session for the account and returns its token.
func (m *Manager) Create(email string) string {
	token := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = &entry{
		email:     email,
		expiresAt: m.now().Add(m.ttl),
	}
	return token
}

// Resolve maps a token back to its account. A hit renews the expiry (rolling
// session); a miss or an expired token reports not ok.
func (m *Manager) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	now := m.now()
	if now.After(e.expiresAt) {
		delete(m.sessions, token)
		return "", false
	}
	e.expiresAt = now.Add(m.ttl)
	return e.email, true
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len reports the number of live sessions, expired ones included until their
// next Resolve.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
