package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ManagerConfig struct {
	SessionTTL time.Duration
}

type liveSession struct {
	session *Session
	userID  uint
	touched time.Time
}

/*
Manager keys live editing sessions by an opaque token handed to the
browser. Sessions idle past the TTL are swept up and closed so their
notification timers are released.
*/
type Manager struct {
	ttl         time.Duration
	mu          sync.Mutex
	sessions    map[string]*liveSession
	sweepTicker *time.Ticker
	stopSweep   chan struct{}
	wg          *sync.WaitGroup
}

func NewManager(config ManagerConfig) *Manager {
	ttl := config.SessionTTL

	if ttl <= 0 {
		ttl = time.Minute * 30
	}

	return &Manager{
		ttl:       ttl,
		sessions:  map[string]*liveSession{},
		stopSweep: make(chan struct{}),
		wg:        &sync.WaitGroup{},
	}
}

/*
Create registers a session for a user and returns its token.
*/
func (m *Manager) Create(userID uint, session *Session) string {
	token := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[token] = &liveSession{
		session: session,
		userID:  userID,
		touched: time.Now(),
	}

	return token
}

/*
Get returns the session for a token if it exists and belongs to the
user, refreshing its idle clock.
*/
func (m *Manager) Get(token string, userID uint) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, ok := m.sessions[token]

	if !ok || live.userID != userID {
		return nil, false
	}

	live.touched = time.Now()
	return live.session, true
}

/*
Release closes a session and forgets its token.
*/
func (m *Manager) Release(token string) {
	m.mu.Lock()
	live, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		live.session.Close()
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// StartSweeping starts a periodic routine that closes idle sessions
func (m *Manager) StartSweeping(interval time.Duration) {
	m.stopSweep = make(chan struct{})
	m.sweepTicker = time.NewTicker(interval)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		for {
			select {
			case <-m.sweepTicker.C:
				m.sweepExpired()
			case <-m.stopSweep:
				m.sweepTicker.Stop()
				return
			}
		}
	}()

	slog.Info("editor session sweep routine started", "interval", interval)
}

// StopSweeping stops the sweep routine
func (m *Manager) StopSweeping() {
	if m.sweepTicker != nil {
		close(m.stopSweep)
		m.wg.Wait()
		slog.Info("editor session sweep routine stopped")
	}
}

/*
sweepExpired closes and forgets every session idle past the TTL.
*/
func (m *Manager) sweepExpired() {
	cutoff := time.Now().Add(-m.ttl)
	expired := []*liveSession{}

	m.mu.Lock()

	for token, live := range m.sessions {
		if live.touched.Before(cutoff) {
			expired = append(expired, live)
			delete(m.sessions, token)
		}
	}

	m.mu.Unlock()

	for _, live := range expired {
		live.session.Close()
	}

	if len(expired) > 0 {
		slog.Info("closed idle editor sessions", "count", len(expired))
	}
}
