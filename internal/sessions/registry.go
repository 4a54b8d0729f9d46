package sessions

import (
	"context"
	"fmt"

	"codeberg.org/codepair/server/internal/logger"
)

func NewRegistry(catalog Catalog) *Registry {
	return &Registry{
		catalog:  catalog,
		sessions: make(map[string]*Session),
	}
}

// returns the live session for exerciseID, creating one seeded from the
// catalog when there is none. unknown ids fail without creating anything.
func (r *Registry) GetOrCreate(ctx context.Context, exerciseID string) (*Session, error) {
	if s, ok := r.Lookup(exerciseID); ok {
		return s, nil
	}

	// catalog lookup may block, so it happens outside the lock and the
	// insert below re-checks
	block, err := r.catalog.Get(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load code block %s: %w", exerciseID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[exerciseID]; ok && !s.isClosed() {
		return s, nil
	}

	s := newSession(exerciseID, block.InitialCode, block.Solution)
	r.sessions[exerciseID] = s

	logger.Info("session created", "exercise_id", exerciseID)

	return s, nil
}

// returns the live session without creating one
func (r *Registry) Lookup(exerciseID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[exerciseID]
	if !ok || s.isClosed() {
		return nil, false
	}

	return s, true
}

// drops s if it is still the registered session for its exercise and it
// is either terminated or empty. a join that slipped in after the caller
// released the session lock keeps the session alive.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed && (len(s.participants) > 0 || s.reservedIdentity != "") {
		return false
	}

	s.closed = true

	if cur, ok := r.sessions[s.exerciseID]; ok && cur == s {
		delete(r.sessions, s.exerciseID)

		logger.Info("session removed", "exercise_id", s.exerciseID)

		return true
	}

	return false
}

// number of live sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func newSession(exerciseID, initialCode, solution string) *Session {
	return &Session{
		exerciseID:   exerciseID,
		initialCode:  initialCode,
		solution:     solution,
		participants: make(map[string]participant),
		currentCode:  initialCode,
	}
}

func (s *Session) ExerciseID() string {
	return s.exerciseID
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
