package websocket

import (
	"fmt"

	apierrors "codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:        make(map[string]*Client),
		groups:         make(map[string]map[string]*Client),
		membership:     make(map[string]string),
		handlers:       make(map[string]MessageHandler),
		groupSequences: make(map[string]uint64),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// sets callback to be called when a client disconnects
func (h *Hub) OnClientDisconnect(callback func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// adds a client to the hub. must complete before the client's pumps start
// so that its first message can already be routed.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shuttingDown {
		return ErrConnectionClosed
	}

	h.clients[client.ID] = client

	logger.Info("client registered",
		"client_id", client.ID,
		"ip", client.IPAddress,
	)

	return nil
}

// removes a client from the hub and reports the disconnect once.
// repeated calls for the same client are no-ops.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	// capture callback reference under lock
	callback := h.onClientDisconnect

	if _, exists := h.clients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.ID)
	h.removeFromGroup(client.ID)
	client.Close()

	logger.Info("client unregistered",
		"client_id", client.ID,
		"exercise_id", client.ExerciseID(),
	)

	h.mu.Unlock()

	// call disconnect callback outside lock (takes session locks)
	if callback != nil {
		callback(client)
	}
}

// adds a registered connection to a broadcast group
func (h *Hub) AddToGroup(groupID, connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[connID]
	if !exists || client.IsClosed() {
		return fmt.Errorf("%w: %w", apierrors.ErrTransport, ErrClientNotFound)
	}

	if current, ok := h.membership[connID]; ok && current != groupID {
		h.removeFromGroup(connID)
	}

	if h.groups[groupID] == nil {
		h.groups[groupID] = make(map[string]*Client)
	}

	h.groups[groupID][connID] = client
	h.membership[connID] = groupID

	return nil
}

func (h *Hub) RemoveFromGroup(groupID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.membership[connID] != groupID {
		return
	}

	h.removeFromGroup(connID)
}

// must be called with lock held
func (h *Hub) removeFromGroup(connID string) {
	groupID, ok := h.membership[connID]
	if !ok {
		return
	}

	delete(h.membership, connID)

	members := h.groups[groupID]
	delete(members, connID)

	if len(members) == 0 {
		delete(h.groups, groupID)
		delete(h.groupSequences, groupID)
	}
}

// delivers an event to a single connection
func (h *Hub) SendTo(connID, eventType string, payload any) error {
	h.mu.RLock()
	client, exists := h.clients[connID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %w", apierrors.ErrTransport, ErrClientNotFound)
	}

	msg, err := NewMessage(eventType, payload)
	if err != nil {
		return err
	}

	return client.Send(msg)
}

// delivers an event to every member of a group except excludeConnID
func (h *Hub) Broadcast(groupID, eventType string, payload any, excludeConnID string) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		logger.ErrorErr(err, "failed to create broadcast message",
			"group_id", groupID,
			"message_type", eventType,
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToGroup(groupID, msg, excludeConnID)
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToGroup(groupID string, msg *Message, excludeConnID string) {
	members, exists := h.groups[groupID]
	if !exists {
		return
	}

	// assign sequence number to message
	h.groupSequences[groupID]++
	msg.Sequence = h.groupSequences[groupID]

	for connID, client := range members {
		if connID == excludeConnID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.Warn("failed to send message to client",
				"client_id", connID,
				"group_id", groupID,
				"error", err,
			)
		}
	}
}

// closes a connection once its queued messages are written. the read side
// then unregisters it like any other disconnect.
func (h *Hub) CloseConn(connID string) {
	h.mu.RLock()
	client, exists := h.clients[connID]
	h.mu.RUnlock()

	if exists {
		client.Close()
	}
}

// number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// number of groups with at least one member
func (h *Hub) GroupCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// returns the number of clients in a group
func (h *Hub) GroupSize(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}

// routes an inbound message to its handler on the caller's goroutine, so a
// connection's messages are handled in the order they were read
func (h *Hub) Dispatch(client *Client, msg *Message) {
	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		// reject unhandled message types
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", client.ID,
		)

		client.SendError(apierrors.CodeBadRequest, "unsupported message type", "message type not recognized")
		return
	}

	if err := handler(h, client, msg); err != nil {
		client.reportError(msg.Type, err)
	}
}

// tells every client the server is going away and closes them. queued
// messages, including the notice, are flushed before each close frame.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shuttingDown {
		return
	}

	h.shuttingDown = true

	logger.Info("notifying clients of server shutdown", "clients", len(h.clients))

	shutdownMsg, err := NewMessage(TypeServerShutdown, ServerShutdownPayload{
		Reason: "server is shutting down",
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create shutdown message")
	}

	for clientID, client := range h.clients {
		if shutdownMsg != nil {
			if err := client.Send(shutdownMsg); err != nil {
				logger.Debug("failed to send shutdown notification",
					"client_id", clientID,
					"error", err,
				)
			}
		}

		client.Close()
	}
}
