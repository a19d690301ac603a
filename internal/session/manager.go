package session

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrSessionNotFound is returned when a session cannot be found by ID.
var ErrSessionNotFound = errors.New("session not found")

// Event is a progress report broadcast to a session's subscribers.
// Delivery is at-most-once and best-effort: there is no buffering or replay,
// and a subscriber that joins late simply misses earlier events.
type Event struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Subscriber receives events for the one session it is currently joined to.
type Subscriber interface {
	// Send delivers an event. A returned error drops the subscriber.
	Send(ev Event) error
}

// Manager owns the registry of active upload sessions and their subscribers.
// It replaces a process-global session map with explicit create/lookup/evict
// operations whose lifecycle is tied to the upload request.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	subs     map[string]map[Subscriber]struct{}
	current  map[Subscriber]string
	logger   *slog.Logger
}

// NewManager creates an empty Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[Subscriber]struct{}),
		current:  make(map[Subscriber]string),
		logger:   logger,
	}
}

// Create registers a session for the given client-supplied ID.
// An existing session with the same ID is reused so a subscriber can join
// before the upload request arrives.
func (m *Manager) Create(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := newSession(id)
	m.sessions[id] = s
	return s
}

// Lookup returns the session with the given ID.
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Evict removes a session and detaches its subscribers. Subscribers stay
// connected; they are simply no longer joined to any session.
func (m *Manager) Evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for sub := range m.subs[id] {
		delete(m.current, sub)
	}
	delete(m.subs, id)
}

// Subscribe joins a subscriber to a session, creating the session if it does
// not exist yet (clients announce the session before starting the upload).
// The subscriber is evicted from any previously joined session first: one
// session membership at a time per connection.
func (m *Manager) Subscribe(id string, sub Subscriber) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.current[sub]; ok {
		if members, ok := m.subs[prev]; ok {
			delete(members, sub)
			if len(members) == 0 {
				delete(m.subs, prev)
			}
		}
	}

	s, ok := m.sessions[id]
	if !ok {
		s = newSession(id)
		m.sessions[id] = s
	}

	if m.subs[id] == nil {
		m.subs[id] = make(map[Subscriber]struct{})
	}
	m.subs[id][sub] = struct{}{}
	m.current[sub] = id
	return s
}

// Unsubscribe detaches a subscriber entirely, e.g. on disconnect.
// The upload itself proceeds regardless of whether anyone is listening.
func (m *Manager) Unsubscribe(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.current[sub]
	if !ok {
		return
	}
	delete(m.current, sub)
	if members, ok := m.subs[id]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(m.subs, id)
		}
	}
}

// Update applies a state change to the session and broadcasts it to the
// session's subscribers. Unknown sessions and invalid transitions are
// ignored: progress is advisory and must never affect the upload.
func (m *Manager) Update(id string, status Status, progress int, message string) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return
	}

	if err := s.Update(status, progress, message); err != nil {
		m.logger.Debug("ignored session transition",
			slog.String("session_id", id),
			slog.String("status", string(status)),
		)
		return
	}

	m.broadcast(id, Event{
		Status:   string(status),
		Progress: s.Snapshot().Progress,
		Message:  message,
	})
}

func (m *Manager) broadcast(id string, ev Event) {
	m.mu.RLock()
	members := make([]Subscriber, 0, len(m.subs[id]))
	for sub := range m.subs[id] {
		members = append(members, sub)
	}
	m.mu.RUnlock()

	for _, sub := range members {
		if err := sub.Send(ev); err != nil {
			// Dead connection; progress delivery is best-effort.
			m.Unsubscribe(sub)
		}
	}
}
