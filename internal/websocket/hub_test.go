package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	alice1 := NewClient(hub, nil, "alice")
	alice2 := NewClient(hub, nil, "alice")
	bob := NewClient(hub, nil, "bob")
	for _, c := range []*Client{alice1, alice2, bob} {
		require.NoError(t, hub.Join(c))
	}

	require.NoError(t, hub.NotifyChange(ctx, "alice", "transaction.create", map[string]string{"id": "t1"}))

	for _, c := range []*Client{alice1, alice2} {
		var msg Message
		require.NoError(t, json.Unmarshal(receive(t, c), &msg))
		assert.Equal(t, "transaction.create", msg.Action)
		assert.Equal(t, map[string]any{"id": "t1"}, msg.Payload)
	}
	assertQuiet(t, bob)
}

func TestHub_SendToSingleClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	a := NewClient(hub, nil, "alice")
	b := NewClient(hub, nil, "alice")
	require.NoError(t, hub.Join(a))
	require.NoError(t, hub.Join(b))

	a.Reply(NewErrorMessage("nope"))
	assert.JSONEq(t, `{"action":"error","payload":{"message":"nope"}}`, string(receive(t, a)))
	assertQuiet(t, b)
}

func TestHub_LeaveAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	gone := NewClient(hub, nil, "alice")
	stay := NewClient(hub, nil, "alice")
	require.NoError(t, hub.Join(gone))
	require.NoError(t, hub.Join(stay))

	hub.Leave(gone)
	_, ok := <-gone.Send
	assert.False(t, ok, "left client should have its channel closed")

	cancel()
	<-stopped
	_, ok = <-stay.Send
	assert.False(t, ok, "shutdown should close remaining clients")

	assert.Error(t, hub.Join(NewClient(hub, nil, "late")))
	assert.Error(t, hub.BroadcastTo(context.Background(), "alice", []byte("x")))
	hub.Leave(stay)
}
