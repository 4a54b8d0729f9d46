package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apierrors "codeberg.org/codepair/server/internal/errors"
	"codeberg.org/codepair/server/internal/logger"
)

func newTestClient(hub *Hub, id string) *Client {
	return &Client{
		ID:      id,
		log:     logger.With("client_id", id),
		hub:     hub,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
}

func registerTestClient(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	client := newTestClient(hub, id)
	require.NoError(t, hub.Register(client))

	return client
}

// waits for the next queued message for client
func nextMessage(t *testing.T, client *Client) Message {
	t.Helper()

	select {
	case raw, ok := <-client.send:
		require.True(t, ok, "send channel closed")

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no message for %s", client.ID)
		return Message{}
	}
}

func assertNoMessage(t *testing.T, client *Client) {
	t.Helper()

	select {
	case raw := <-client.send:
		t.Errorf("%s should not have received %s", client.ID, raw)
	default:
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	registerTestClient(t, hub, "c1")
	registerTestClient(t, hub, "c2")

	assert.Equal(t, 2, hub.ClientCount())
	assert.Zero(t, hub.GroupCount())
}

func TestHubAddToGroupRequiresRegisteredClient(t *testing.T) {
	hub := NewHub()

	err := hub.AddToGroup("E1", "ghost")
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.ErrorIs(t, err, apierrors.ErrTransport)
}

func TestHubBroadcastExcludesSender(t *testing.T) {
	hub := NewHub()

	sender := registerTestClient(t, hub, "sender")
	receiver := registerTestClient(t, hub, "receiver")
	outsider := registerTestClient(t, hub, "outsider")

	require.NoError(t, hub.AddToGroup("E1", sender.ID))
	require.NoError(t, hub.AddToGroup("E1", receiver.ID))
	require.NoError(t, hub.AddToGroup("E2", outsider.ID))

	hub.Broadcast("E1", TypeCodeUpdate, "let x = 1", sender.ID)

	msg := nextMessage(t, receiver)
	assert.Equal(t, TypeCodeUpdate, msg.Type)
	assert.JSONEq(t, `"let x = 1"`, string(msg.Payload))

	assertNoMessage(t, sender)
	assertNoMessage(t, outsider)
}

func TestHubBroadcastSequencesPerGroup(t *testing.T) {
	hub := NewHub()

	a := registerTestClient(t, hub, "a")
	b := registerTestClient(t, hub, "b")
	require.NoError(t, hub.AddToGroup("E1", a.ID))
	require.NoError(t, hub.AddToGroup("E2", b.ID))

	hub.Broadcast("E1", TypeStudentsCount, 1, "")
	hub.Broadcast("E1", TypeStudentsCount, 2, "")
	hub.Broadcast("E2", TypeStudentsCount, 1, "")

	assert.Equal(t, uint64(1), nextMessage(t, a).Sequence)
	assert.Equal(t, uint64(2), nextMessage(t, a).Sequence)
	assert.Equal(t, uint64(1), nextMessage(t, b).Sequence)
}

func TestHubSendTo(t *testing.T) {
	hub := NewHub()

	client := registerTestClient(t, hub, "c1")

	require.NoError(t, hub.SendTo(client.ID, TypeRole, "mentor"))

	msg := nextMessage(t, client)
	assert.Equal(t, TypeRole, msg.Type)
	assert.JSONEq(t, `"mentor"`, string(msg.Payload))

	assert.ErrorIs(t, hub.SendTo("ghost", TypeRole, "mentor"), ErrClientNotFound)
}

func TestHubAddToGroupMovesMembership(t *testing.T) {
	hub := NewHub()

	client := registerTestClient(t, hub, "c1")

	require.NoError(t, hub.AddToGroup("E1", client.ID))
	require.NoError(t, hub.AddToGroup("E2", client.ID))

	assert.Zero(t, hub.GroupSize("E1"))
	assert.Equal(t, 1, hub.GroupSize("E2"))
	assert.Equal(t, 1, hub.GroupCount())

	// removing from a group it already left does nothing
	hub.RemoveFromGroup("E1", client.ID)
	assert.Equal(t, 1, hub.GroupSize("E2"))

	hub.RemoveFromGroup("E2", client.ID)
	assert.Zero(t, hub.GroupCount())
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	calls := 0

	hub.OnClientDisconnect(func(*Client) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	client := registerTestClient(t, hub, "c1")
	require.NoError(t, hub.AddToGroup("E1", client.ID))

	hub.Unregister(client)
	hub.Unregister(client)

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, hub.GroupSize("E1"))
	assert.True(t, client.IsClosed())
}

func TestHubCloseConnFlushesQueuedMessages(t *testing.T) {
	hub := NewHub()

	client := registerTestClient(t, hub, "c1")
	require.NoError(t, hub.AddToGroup("E1", client.ID))

	hub.Broadcast("E1", TypeMentorLeft, nil, "")
	hub.CloseConn(client.ID)

	msg := nextMessage(t, client)
	assert.Equal(t, TypeMentorLeft, msg.Type)
	assert.JSONEq(t, `null`, string(msg.Payload))

	_, ok := <-client.send
	assert.False(t, ok, "channel closed after the queued message")

	// still registered until its read side unregisters it
	assert.Equal(t, 1, hub.ClientCount())
	assert.Error(t, hub.AddToGroup("E1", client.ID))
}

func TestHubShutdownNotifiesClients(t *testing.T) {
	hub := NewHub()

	c1 := registerTestClient(t, hub, "c1")
	c2 := registerTestClient(t, hub, "c2")

	hub.Shutdown()
	hub.Shutdown()

	for _, c := range []*Client{c1, c2} {
		msg := nextMessage(t, c)
		assert.Equal(t, TypeServerShutdown, msg.Type)

		var payload ServerShutdownPayload
		require.NoError(t, msg.UnmarshalPayload(&payload))
		assert.NotEmpty(t, payload.Reason)

		assert.True(t, c.IsClosed())
	}

	assert.ErrorIs(t, hub.Register(newTestClient(hub, "late")), ErrConnectionClosed)
}

func TestHubDispatchUnknownType(t *testing.T) {
	hub := NewHub()
	client := registerTestClient(t, hub, "c1")

	hub.Dispatch(client, &Message{Type: "nope"})

	msg := nextMessage(t, client)
	assert.Equal(t, TypeError, msg.Type)

	var payload apierrors.ErrorResponse
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, apierrors.CodeBadRequest, payload.Error)
}

func TestHubDispatchRunsHandlersInOrder(t *testing.T) {
	hub := NewHub()
	client := registerTestClient(t, hub, "c1")

	var seen []string
	hub.RegisterHandler("record", func(_ *Hub, _ *Client, msg *Message) error {
		var s string
		require.NoError(t, msg.UnmarshalPayload(&s))
		seen = append(seen, s)
		return nil
	})

	for _, s := range []string{"a", "b", "c"} {
		raw, _ := json.Marshal(s)
		hub.Dispatch(client, &Message{Type: "record", Payload: raw})
	}

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestHubConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()

	const members = 10
	clients := make([]*Client, members)

	for i := range members {
		clients[i] = registerTestClient(t, hub, string(rune('a'+i)))
		require.NoError(t, hub.AddToGroup("E1", clients[i].ID))
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.Broadcast("E1", TypeStudentsCount, i, "")
		}(i)
	}
	wg.Wait()

	// every member sees the same order
	var first []uint64
	for i, c := range clients {
		var seqs []uint64
		for range 20 {
			seqs = append(seqs, nextMessage(t, c).Sequence)
		}

		if i == 0 {
			first = seqs
			continue
		}

		assert.Equal(t, first, seqs)
	}
}
