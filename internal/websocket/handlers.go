package websocket

import (
	"context"
	"errors"
	"strings"

	apierrors "codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/sessions"
)

// wires the session message handlers and the disconnect path into hub
func RegisterSessionHandlers(hub *Hub, coordinator SessionCoordinator) {
	hub.RegisterHandler(TypeJoinCodeBlock, JoinHandler(coordinator))
	hub.RegisterHandler(TypeCodeChange, CodeChangeHandler(coordinator))
	hub.RegisterHandler(TypePing, PingHandler())

	hub.OnClientDisconnect(func(client *Client) {
		if exerciseID := client.ExerciseID(); exerciseID != "" {
			coordinator.Leave(exerciseID, client.ID)
		}
	})
}

// handles join messages. payload is the code block id.
func JoinHandler(coordinator SessionCoordinator) MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		var exerciseID string
		if err := msg.UnmarshalPayload(&exerciseID); err != nil {
			return err
		}

		exerciseID = strings.TrimSpace(exerciseID)
		if exerciseID == "" {
			return ErrInvalidMessage
		}

		// switching code blocks leaves the previous session first
		if current := client.ExerciseID(); current != "" && current != exerciseID {
			coordinator.Leave(current, client.ID)
			client.setExerciseID("")
		}

		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()

		role, err := coordinator.Join(ctx, exerciseID, client.ID, client.Identity)
		if err != nil {
			return err
		}

		client.setExerciseID(exerciseID)

		client.log.Debug("client joined code block",
			"exercise_id", exerciseID,
			"role", role,
		)

		return nil
	}
}

// handles code change messages. payload is the full buffer.
func CodeChangeHandler(coordinator SessionCoordinator) MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		exerciseID := client.ExerciseID()
		if exerciseID == "" {
			return ErrNotJoined
		}

		var code string
		if err := msg.UnmarshalPayload(&code); err != nil {
			return err
		}

		return coordinator.SubmitEdit(exerciseID, client.ID, code)
	}
}

// handles ping messages from clients (keep-alive)
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		pongMsg, err := NewMessage(TypePong, nil)
		if err != nil {
			return err
		}

		client.Send(pongMsg) //nolint:errcheck,gosec // best-effort pong
		return nil
	}
}

// surfaces a handler error to the sender according to its kind
func (c *Client) reportError(msgType string, err error) {
	switch {
	case apierrors.IsRaceRecovered(err):
		c.log.Debug("message dropped",
			"message_type", msgType,
			"reason", err,
		)

	case errors.Is(err, sessions.ErrReadOnly):
		c.SendError(apierrors.CodeForbidden, "mentors have read-only access", "")

	case apierrors.IsValidation(err):
		c.SendError(apierrors.CodeValidationError, err.Error(), "")

	case apierrors.IsNotFound(err):
		c.SendError(apierrors.CodeNotFound, "code block not found", "")

	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrNotJoined):
		c.SendError(apierrors.CodeBadRequest, err.Error(), "")

	case errors.Is(err, apierrors.ErrTransport):
		c.log.Debug("transport error while handling message",
			"message_type", msgType,
			"error", err,
		)

	default:
		c.log.Error("handler error",
			"message_type", msgType,
			"error", err,
		)

		c.SendError(apierrors.CodeServerError, "failed to process message", err.Error())
	}
}
