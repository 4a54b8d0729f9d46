package sessions

import (
	"context"
	"strings"
	"time"

	"codeberg.org/codepair/server/internal/logger"
)

func NewCoordinator(registry *Registry, transport Transport, opts Options) *Coordinator {
	return &Coordinator{
		registry:  registry,
		transport: transport,
		opts:      opts,
	}
}

// registers connID in the session for exerciseID and returns its role.
// identity is an optional client-chosen id used only for mentor reclaim.
func (c *Coordinator) Join(ctx context.Context, exerciseID, connID, identity string) (Role, error) {
	for {
		s, err := c.registry.GetOrCreate(ctx, exerciseID)
		if err != nil {
			return "", err
		}

		role, ok, err := c.join(s, connID, identity)
		if ok {
			if err != nil {
				// the connection never made it into the group; drop the
				// session if this join was all that kept it around
				c.registry.Remove(s)
			}

			return role, err
		}

		// the session was torn down between lookup and lock; try again
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

func (c *Coordinator) join(s *Session, connID, identity string) (Role, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false, nil
	}

	if p, exists := s.participants[connID]; exists {
		logger.Debug("duplicate join ignored",
			"exercise_id", s.exerciseID,
			"conn_id", connID,
			"role", p.role,
		)

		c.send(connID, EventRole, p.role)

		return p.role, true, nil
	}

	role := RoleStudent

	switch {
	case s.reservedIdentity != "" && identity == s.reservedIdentity:
		role = RoleMentor
		c.cancelReclaimLocked(s)

		logger.Info("mentor reclaimed session",
			"exercise_id", s.exerciseID,
			"conn_id", connID,
		)
	case s.mentorConnID == "" && s.reservedIdentity == "":
		role = RoleMentor
	}

	if err := c.transport.AddToGroup(s.exerciseID, connID); err != nil {
		return "", true, err
	}

	s.participants[connID] = participant{role: role, identity: identity}

	if role == RoleMentor {
		s.mentorConnID = connID
	}

	logger.Info("participant joined",
		"exercise_id", s.exerciseID,
		"conn_id", connID,
		"role", role,
		"participants", len(s.participants),
	)

	c.send(connID, EventRole, role)
	c.send(connID, EventCodeUpdate, s.payloadLocked())
	c.transport.Broadcast(s.exerciseID, EventStudentsCount, s.studentCountLocked(), "")

	return role, true, nil
}

// applies an edit from connID and relays it to the rest of the group.
// edits are accepted one at a time per session, so every receiver sees
// them in the same order.
func (c *Coordinator) SubmitEdit(exerciseID, connID, code string) error {
	code = stripMarker(code)

	if strings.TrimSpace(code) == "" {
		return ErrEmptyEdit
	}

	if c.opts.MaxCodeSize > 0 && len(code) > c.opts.MaxCodeSize {
		return ErrCodeTooLarge
	}

	s, ok := c.registry.Lookup(exerciseID)
	if !ok {
		return ErrNotParticipant
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotParticipant
	}

	p, ok := s.participants[connID]
	if !ok {
		return ErrNotParticipant
	}

	if p.role == RoleMentor && c.opts.MentorReadOnly {
		return ErrReadOnly
	}

	wasSolved := s.solved

	s.currentCode = code
	s.solved = matchesSolution(code, s.solution)

	if s.solved != wasSolved {
		logger.Info("solution state changed",
			"exercise_id", exerciseID,
			"conn_id", connID,
			"solved", s.solved,
		)
	}

	c.transport.Broadcast(exerciseID, EventCodeUpdate, s.payloadLocked(), connID)

	return nil
}

// removes connID from its session. safe to call more than once per
// connection; repeats and unknown connections are no-ops.
func (c *Coordinator) Leave(exerciseID, connID string) {
	s, ok := c.registry.Lookup(exerciseID)
	if !ok {
		logger.Debug("leave for inactive session ignored",
			"exercise_id", exerciseID,
			"conn_id", connID,
		)
		return
	}

	s.mu.Lock()

	p, ok := s.participants[connID]
	if !ok || s.closed {
		s.mu.Unlock()
		logger.Debug("leave for unknown participant ignored",
			"exercise_id", exerciseID,
			"conn_id", connID,
		)
		return
	}

	delete(s.participants, connID)
	c.transport.RemoveFromGroup(exerciseID, connID)

	logger.Info("participant left",
		"exercise_id", exerciseID,
		"conn_id", connID,
		"role", p.role,
		"participants", len(s.participants),
	)

	if p.role == RoleMentor {
		s.mentorConnID = ""

		if c.opts.MentorReclaimGrace > 0 && p.identity != "" {
			c.reserveMentorLocked(s, p.identity)
			c.transport.Broadcast(exerciseID, EventStudentsCount, s.studentCountLocked(), "")
			s.mu.Unlock()
			return
		}

		evicted := c.terminateLocked(s)
		s.mu.Unlock()

		c.evict(s, evicted)
		return
	}

	c.transport.Broadcast(exerciseID, EventStudentsCount, s.studentCountLocked(), "")

	empty := len(s.participants) == 0 && s.reservedIdentity == ""
	s.mu.Unlock()

	if empty {
		c.registry.Remove(s)
	}
}

// number of students (mentor excluded) in the session, 0 when inactive
func (c *Coordinator) StudentCount(exerciseID string) int {
	s, ok := c.registry.Lookup(exerciseID)
	if !ok {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.studentCountLocked()
}

func (c *Coordinator) Snapshot(exerciseID string) (Snapshot, bool) {
	s, ok := c.registry.Lookup(exerciseID)
	if !ok {
		return Snapshot{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	participants := make(map[string]Role, len(s.participants))
	for id, p := range s.participants {
		participants[id] = p.role
	}

	return Snapshot{
		ExerciseID:   s.exerciseID,
		MentorConnID: s.mentorConnID,
		CurrentCode:  s.currentCode,
		Solved:       s.solved,
		Participants: participants,
		StudentCount: s.studentCountLocked(),
	}, true
}

// number of live sessions
func (c *Coordinator) SessionCount() int {
	return c.registry.Count()
}

// notifies and clears every remaining participant and marks the session
// closed. returns the connections to close once the lock is released.
func (c *Coordinator) terminateLocked(s *Session) []string {
	c.cancelReclaimLocked(s)

	c.transport.Broadcast(s.exerciseID, EventMentorLeft, nil, "")

	evicted := make([]string, 0, len(s.participants))
	for id := range s.participants {
		c.transport.RemoveFromGroup(s.exerciseID, id)
		evicted = append(evicted, id)
	}

	s.participants = make(map[string]participant)
	s.mentorConnID = ""
	s.currentCode = ""
	s.solved = false
	s.closed = true

	logger.Info("mentor left, session terminated",
		"exercise_id", s.exerciseID,
		"evicted", len(evicted),
	)

	return evicted
}

func (c *Coordinator) evict(s *Session, connIDs []string) {
	for _, id := range connIDs {
		c.transport.CloseConn(id)
	}

	c.registry.Remove(s)
}

func (c *Coordinator) reserveMentorLocked(s *Session, identity string) {
	s.reservedIdentity = identity
	s.reclaimGen++
	gen := s.reclaimGen

	s.reclaimTimer = time.AfterFunc(c.opts.MentorReclaimGrace, func() {
		c.expireReclaim(s, gen)
	})

	logger.Info("mentor slot reserved",
		"exercise_id", s.exerciseID,
		"grace", c.opts.MentorReclaimGrace,
	)
}

func (c *Coordinator) cancelReclaimLocked(s *Session) {
	if s.reclaimTimer != nil {
		s.reclaimTimer.Stop()
		s.reclaimTimer = nil
	}

	s.reservedIdentity = ""
	s.reclaimGen++
}

// runs when the reclaim grace runs out without the mentor coming back
func (c *Coordinator) expireReclaim(s *Session, gen uint64) {
	s.mu.Lock()

	if s.closed || s.reclaimGen != gen || s.reservedIdentity == "" {
		s.mu.Unlock()
		return
	}

	evicted := c.terminateLocked(s)
	s.mu.Unlock()

	c.evict(s, evicted)
}

func (c *Coordinator) send(connID, event string, payload any) {
	if err := c.transport.SendTo(connID, event, payload); err != nil {
		logger.Debug("failed to deliver event",
			"conn_id", connID,
			"event", event,
			"error", err,
		)
	}
}

// buffer as sent on the wire: marked when it matches the solution
func (s *Session) payloadLocked() string {
	if s.solved {
		return s.currentCode + " " + SolutionMarker
	}

	return s.currentCode
}

func (s *Session) studentCountLocked() int {
	n := 0

	for _, p := range s.participants {
		if p.role == RoleStudent {
			n++
		}
	}

	return n
}

func matchesSolution(code, solution string) bool {
	return strings.TrimSpace(code) == strings.TrimSpace(solution)
}

// older clients append the marker themselves; the canonical buffer never
// carries it
func stripMarker(code string) string {
	trimmed := strings.TrimRight(code, " \t\r\n")

	if strings.HasSuffix(trimmed, SolutionMarker) {
		return strings.TrimRight(strings.TrimSuffix(trimmed, SolutionMarker), " ")
	}

	return code
}
