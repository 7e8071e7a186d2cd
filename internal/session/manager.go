package session

import (
	"context"
	"sync"
	"time"

	"github.com/jogardn/fooddash/internal/cart"
	"github.com/sirupsen/logrus"
)

type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	onChange func(customerID string, m cart.Mutation)
	logger   *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// OnCartChange registers a hook for cart mutations of every session created
// after the call.
func (m *Manager) OnCartChange(fn func(customerID string, mutation cart.Mutation)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onChange = fn
}

func (m *Manager) GetOrCreate(customerID string) *Session {
	m.mutex.RLock()
	s, exists := m.sessions[customerID]
	m.mutex.RUnlock()
	if exists {
		return s
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, exists := m.sessions[customerID]; exists {
		return s
	}

	var hook func(cart.Mutation)
	if fn := m.onChange; fn != nil {
		hook = func(mutation cart.Mutation) { fn(customerID, mutation) }
	}
	s = newSession(customerID, hook)
	m.sessions[customerID] = s

	m.logger.WithField("customer_id", customerID).Debug("Session created")
	return s
}

func (m *Manager) Get(customerID string) *Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.sessions[customerID]
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(m.sessions),
		}).Info("Idle sessions evicted")
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}
