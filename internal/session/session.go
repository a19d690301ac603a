// Package session tracks ephemeral upload sessions and relays progress
// events to subscribed clients. Sessions exist only in memory for the
// duration of one upload request; they are purely advisory and never gate
// upload correctness.
package session

import (
	"errors"
	"sync"
	"time"
)

// Status represents the current state of an upload session.
type Status string

const (
	// StatusIdle indicates no work has started yet.
	StatusIdle Status = "idle"
	// StatusCompressing indicates the video is being transcoded.
	StatusCompressing Status = "compressing"
	// StatusUploading indicates the buffer is being pushed to the object store.
	StatusUploading Status = "uploading"
	// StatusDone indicates the upload finished successfully.
	StatusDone Status = "done"
	// StatusFailed indicates the upload failed.
	StatusFailed Status = "failed"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusIdle:        {StatusCompressing, StatusUploading, StatusDone, StatusFailed},
	StatusCompressing: {StatusCompressing, StatusUploading, StatusDone, StatusFailed},
	StatusUploading:   {StatusUploading, StatusDone, StatusFailed},
	StatusDone:        {},
	StatusFailed:      {},
}

func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Session is the ephemeral progress record for one upload request,
// keyed by a client-supplied identifier.
type Session struct {
	mu sync.RWMutex

	// ID is the client-correlated session identifier.
	ID string
	// Status is the current state.
	Status Status
	// Progress is the completion percentage (0-100).
	Progress int
	// Message is the latest human-readable status note.
	Message string
	// CreatedAt is when the session was created.
	CreatedAt time.Time
	// UpdatedAt is when the session was last updated.
	UpdatedAt time.Time
}

// newSession creates a Session in StatusIdle.
func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update applies a state change, clamping progress to 0-100.
// Returns ErrInvalidTransition when the session is already terminal.
func (s *Session) Update(status Status, progress int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.Status, status) {
		return ErrInvalidTransition
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.Status = status
	s.Progress = progress
	s.Message = message
	s.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns a copy of the session for safe reads.
func (s *Session) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		ID:        s.ID,
		Status:    s.Status,
		Progress:  s.Progress,
		Message:   s.Message,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// IsTerminal returns true if the session reached done or failed.
func (s *Session) IsTerminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == StatusDone || s.Status == StatusFailed
}
