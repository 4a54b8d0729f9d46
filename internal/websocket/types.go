package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"codeberg.org/codepair/server/internal/sessions"
)

// message type constants for websocket communication
const (
	// is sent by a client to enter the session for a code block
	TypeJoinCodeBlock = "joinCodeBlock"

	// is sent by a client when its editor buffer changes
	TypeCodeChange = "codeChange"

	// is sent to a joiner with its assigned role
	TypeRole = sessions.EventRole

	// is sent with the current shared buffer
	TypeCodeUpdate = sessions.EventCodeUpdate

	// is sent when the number of students in a session changes
	TypeStudentsCount = sessions.EventStudentsCount

	// is sent to students right before the session is torn down
	TypeMentorLeft = sessions.EventMentorLeft

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "serverShutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// outbound messages queued per client before it is dropped
	sendBufferSize = 256

	// bound on catalog lookups done while handling a join
	joinTimeout = 5 * time.Second
)

// errors
var (
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrClientNotFound    = errors.New("client not found")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotJoined         = errors.New("join a code block first")
)

// represents a websocket frame with typed payload
type Message struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Sequence uint64          `json:"seq,omitempty"`

	// internal only, not sent to clients
	ClientID string `json:"-"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// what the session handlers drive; satisfied by *sessions.Coordinator
type SessionCoordinator interface {
	Join(ctx context.Context, exerciseID, connID, identity string) (sessions.Role, error)
	SubmitEdit(exerciseID, connID, code string) error
	Leave(exerciseID, connID string)
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// IP address of the client (for logging)
	IPAddress string

	// logger carrying client_id and ip on every record
	log *slog.Logger

	// optional client-chosen identity, used to reclaim a mentor slot
	Identity string

	// websocket connection
	conn *websocket.Conn

	// hub reference for dispatch and unregistering
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// code block this client joined, empty until a join succeeds
	exerciseID string

	// inbound message limiter
	limiter *rate.Limiter
}

// tracks live connections and the broadcast groups they belong to
type Hub struct {
	// registered clients by client ID
	clients map[string]*Client

	// broadcast groups by group ID and client ID
	groups map[string]map[string]*Client

	// group each client currently belongs to
	membership map[string]string

	// mutex for thread-safe access to the maps above
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// sequence numbers per group for message ordering
	groupSequences map[string]uint64

	// callback for client disconnect, runs outside the hub lock
	onClientDisconnect func(client *Client)

	// set once Shutdown has run
	shuttingDown bool
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
