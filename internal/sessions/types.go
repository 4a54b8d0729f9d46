package sessions

import (
	"context"
	"sync"
	"time"

	"codeberg.org/codepair/server/codepair/codeblocks"
)

type Role string

const (
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

// appended to a codeUpdate payload when the buffer matches the solution
const SolutionMarker = "/* SOLUTION MATCHED */"

// events emitted by the coordinator
const (
	// unicast to a joiner, payload is the Role
	EventRole = "role"

	// payload is the code, possibly carrying SolutionMarker
	EventCodeUpdate = "codeUpdate"

	// payload is the number of students in the session
	EventStudentsCount = "studentsCountUpdate"

	// sent to every remaining participant right before they are disconnected
	EventMentorLeft = "mentorLeft"
)

// delivery side the coordinator drives. implemented by the websocket hub.
type Transport interface {
	// adds a live connection to the broadcast group for groupID
	AddToGroup(groupID, connID string) error

	RemoveFromGroup(groupID, connID string)

	// delivers an event to one connection
	SendTo(connID, event string, payload any) error

	// delivers an event to every member of groupID except excludeConnID
	Broadcast(groupID, event string, payload any, excludeConnID string)

	// force-closes a connection after its queued events are flushed
	CloseConn(connID string)
}

// lookup side of the exercise catalog the registry needs
type Catalog interface {
	Get(ctx context.Context, id string) (*codeblocks.CodeBlock, error)
}

type participant struct {
	role     Role
	identity string
}

// live state for one code block while anyone is connected. every field
// below mu is guarded by it.
type Session struct {
	exerciseID  string
	initialCode string
	solution    string

	mu sync.Mutex

	// connection holding the mentor role, empty when none
	mentorConnID string

	participants map[string]participant

	// canonical buffer, never carries the solution marker
	currentCode string
	solved      bool

	// set once the registry has dropped this session or the mentor cascade
	// has run; a handle that observes it must go back to the registry
	closed bool

	// identity whose mentor slot is held open during the reclaim grace
	reservedIdentity string
	reclaimTimer     *time.Timer
	reclaimGen       uint64
}

// process-wide exercise id -> session mapping
type Registry struct {
	catalog Catalog

	mu       sync.Mutex
	sessions map[string]*Session
}

type Options struct {
	// mentors observe but cannot drive edits
	MentorReadOnly bool

	// keeps a departed mentor's slot for the same identity this long;
	// zero ends the session as soon as the mentor leaves
	MentorReclaimGrace time.Duration

	// maximum accepted code size in bytes, zero for no limit
	MaxCodeSize int
}

// owns mutation of every session: role assignment, buffer replication,
// solution matching, presence and termination
type Coordinator struct {
	registry  *Registry
	transport Transport
	opts      Options
}

// read-only copy of a session's state
type Snapshot struct {
	ExerciseID   string
	MentorConnID string
	CurrentCode  string
	Solved       bool
	Participants map[string]Role
	StudentCount int
}
