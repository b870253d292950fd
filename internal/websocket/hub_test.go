package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient("c1", "u1", hub, nil)
	hub.Register <- client
	waitFor(t, func() bool { return hub.HasClient("c1") })
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister <- client
	waitFor(t, func() bool { return !hub.HasClient("c1") })
	assert.Equal(t, 0, hub.ClientCount())

	// unregister closes the send channel
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := NewClient("c1", "u1", hub, nil)
	other := NewClient("c2", "u2", hub, nil)
	hub.Register <- mine
	hub.Register <- other
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.SendToUser("u1", []byte("ping"))

	select {
	case msg := <-mine.Send:
		assert.Equal(t, "ping", string(msg))
	case <-time.After(time.Second):
		t.Fatal("expected message for u1")
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("u2 must not receive u1's message, got %q", msg)
	default:
	}
}

func TestHubSendToUserAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := NewClient("c1", "u1", hub, nil)
	second := NewClient("c2", "u1", hub, nil)
	hub.Register <- first
	hub.Register <- second
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.SendToUser("u1", []byte("ping"))

	for _, c := range []*Client{first, second} {
		select {
		case msg := <-c.Send:
			require.Equal(t, "ping", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the message", c.ID)
		}
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := NewClient("c1", "u1", hub, nil)
	b := NewClient("c2", "u2", hub, nil)
	hub.Register <- a
	hub.Register <- b
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast <- []byte("tous")

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			require.Equal(t, "tous", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the broadcast", c.ID)
		}
	}
}
