package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	apierrors "codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/logger"
)

// creates a new websocket client connection. messagesPerSecond bounds
// inbound traffic; zero or less disables the limit.
func NewClient(id, ipAddress, identity string, messagesPerSecond int, conn *websocket.Conn, hub *Hub) *Client {
	limit := rate.Inf
	burst := 0

	if messagesPerSecond > 0 {
		limit = rate.Limit(messagesPerSecond)
		burst = messagesPerSecond
	}

	return &Client{
		ID:        id,
		IPAddress: ipAddress,
		Identity:  identity,
		log:       logger.With("client_id", id, "ip", ipAddress),
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendBufferSize),
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// reads messages from the websocket connection and dispatches them in order
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket error",
					"exercise_id", c.ExerciseID(),
					"error", err,
				)
			}

			break
		}

		if !c.limiter.Allow() {
			c.SendError(apierrors.CodeTooManyRequests, "too many messages, slow down", "")
			continue
		}

		// parse the message
		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil || msg.Type == "" {
			c.log.Debug("failed to unmarshal message",
				"error", err,
			)

			c.SendError(apierrors.CodeBadRequest, "invalid message format", "")
			continue
		}

		msg.ClientID = c.ID

		c.hub.Dispatch(c, &msg)
	}
}

// writes queued messages to the websocket connection, one frame each
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// channel closed after everything queued was written
				c.conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck,gosec // G104: close message
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queues a message for the client. a client whose buffer is full is
// closed rather than allowed to stall its group.
func (c *Client) Send(msg *Message) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()

	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}

	select {
	case c.send <- messageBytes:
		c.mu.RUnlock()
		return nil
	default:
	}

	c.mu.RUnlock()

	c.log.Warn("client send buffer full, closing connection",
		"exercise_id", c.ExerciseID(),
	)

	c.Close()

	return ErrConnectionClosed
}

// sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	if details != "" {
		details = apierrors.SanitizeString(details)
	}

	errorMsg, err := NewMessage(TypeError, apierrors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
	if err != nil {
		c.log.Error("failed to create error message",
			"error", err,
			"error_code", code,
		)
		return
	}

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the outbound channel; the write pump flushes what is queued and
// then closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// code block the client joined, empty before a successful join
func (c *Client) ExerciseID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.exerciseID
}

func (c *Client) setExerciseID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exerciseID = id
}
