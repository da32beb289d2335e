package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opensupplyhub/os-hub-mcp/protocol"
)

// Session tracks the initialization state of one client connection.
// A session starts uninitialized; a successful initialize request
// moves it to initialized and it never moves back. Gated methods must
// call RequireInitialized before doing any work.
type Session struct {
	id    string
	probe func(ctx context.Context) error

	mu          sync.Mutex
	initialized bool
}

// NewSession creates an uninitialized session. The probe, if non-nil,
// is run on every Initialize call to verify the upstream is reachable.
func NewSession(probe func(ctx context.Context) error) *Session {
	return &Session{
		id:    uuid.NewString(),
		probe: probe,
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Initialize runs the liveness probe and, on success, marks the
// session initialized. A repeated initialize probes again; a probe
// failure after a successful one does not clear the state.
func (s *Session) Initialize(ctx context.Context) error {
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// Initialized reports whether the session completed a successful
// initialize.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// RequireInitialized returns a protocol error when the session has not
// completed initialization yet.
func (s *Session) RequireInitialized() error {
	if !s.Initialized() {
		return protocol.NewNotInitialized("server not initialized: call initialize first")
	}
	return nil
}
