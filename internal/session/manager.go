// internal/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

const gaugeActiveSessions = "sessions_active"

// Manager owns every live session and expires idle ones.
type Manager struct {
	searcher Searcher
	details  DetailFetcher
	recaps   RecapGenerator
	ttl      time.Duration
	metrics  *utils.MetricsCollector
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewManager creates a manager. A ttl of zero disables expiry.
func NewManager(searcher Searcher, details DetailFetcher, recaps RecapGenerator, ttl time.Duration, metrics *utils.MetricsCollector) *Manager {
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	return &Manager{
		searcher: searcher,
		details:  details,
		recaps:   recaps,
		ttl:      ttl,
		metrics:  metrics,
		now:      time.Now,
		sessions: make(map[string]*Controller),
	}
}

// Create starts a new session with empty state.
func (m *Manager) Create() *Controller {
	c := NewController(uuid.NewString(), m.searcher, m.details, m.recaps)
	c.now = m.now
	c.lastActive = m.now()

	m.mu.Lock()
	m.sessions[c.ID()] = c
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetGauge(gaugeActiveSessions, int64(count))
	m.metrics.IncrementCounter("sessions_created_total")
	utils.GetLogger().Info("session created", map[string]interface{}{"session": c.ID()})
	return c
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	c, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("Session not found: "+id, nil)
	}
	return c, nil
}

// Delete ends the session with id. It reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}
	c.Close()
	m.metrics.SetGauge(gaugeActiveSessions, int64(count))
	utils.GetLogger().Info("session closed", map[string]interface{}{"session": id})
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the ttl and returns how many.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	var expired []string
	m.mu.RLock()
	for id, c := range m.sessions {
		if c.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Delete(id)
	}
	if len(expired) > 0 {
		m.metrics.AddCounter("sessions_expired_total", int64(len(expired)))
		utils.GetLogger().Info("expired idle sessions", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) {
	if m.ttl > 0 {
		interval := m.ttl / 2
		if interval < time.Second {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				m.Sweep()
			}
		}
	} else {
		<-ctx.Done()
	}

	m.CloseAll()
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	m.metrics.SetGauge(gaugeActiveSessions, 0)
}
