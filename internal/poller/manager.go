package poller

import (
	"sort"
	"strings"
	"sync"
)

// #region manager-struct

// Manager owns at most one session per subject identifier. Starting a new
// session for a subject tears down the prior one before installing the new
// state, so duplicate fetch loops cannot overlap.
type Manager struct {
	fetcher  Fetcher
	cfg      Config
	recorder Recorder

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. recorder may be nil to disable persistence.
func NewManager(fetcher Fetcher, cfg Config, recorder Recorder) *Manager {
	return &Manager{
		fetcher:  fetcher,
		cfg:      cfg.normalized(),
		recorder: recorder,
		sessions: make(map[string]*Session),
	}
}

// #endregion manager-struct

// #region start

// Start begins polling for the subject. An active session for the same
// subject is cancelled first; restarting is idempotent with respect to the
// number of live timers. Returns ErrEmptySubject for a blank identifier.
func (m *Manager) Start(subjectID string) (*Session, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrEmptySubject
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[subjectID]; ok {
		old.Stop()
	}
	s := newSession(subjectID, m.cfg, m.fetcher, m.recorder)
	m.sessions[subjectID] = s
	return s, nil
}

// #endregion start

// #region stop

// Stop cancels the subject's session if one exists. Returns whether a
// session was found.
func (m *Manager) Stop(subjectID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[subjectID]
	if ok {
		s.Stop()
	}
	return ok
}

// StopAll cancels every session, for process shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Stop()
	}
}

// #endregion stop

// #region views

// View returns the latest session projection for a subject. Terminal
// sessions remain visible until replaced, so callers can read the terminal
// reason after polling stops.
func (m *Manager) View(subjectID string) (SessionView, bool) {
	m.mu.Lock()
	s, ok := m.sessions[subjectID]
	m.mu.Unlock()
	if !ok {
		return SessionView{}, false
	}
	return s.View(), true
}

// Views returns projections for all known sessions, ordered by subject.
func (m *Manager) Views() []SessionView {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	views := make([]SessionView, len(sessions))
	for i, s := range sessions {
		views[i] = s.View()
	}
	sort.Slice(views, func(i, j int) bool { return views[i].SubjectID < views[j].SubjectID })
	return views
}

// #endregion views
