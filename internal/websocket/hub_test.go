package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/shared/testutil"
	"flowpulse/pkg/contracts/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(nil, logger)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient(hub *Hub, owner string) *Client {
	return NewClient(hub, newMockConn(), owner, ClientOptions{}, nil)
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send queue closed")
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected event %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_StartStopIdempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RegisterSendsConnectionEvent(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub, "alice")

	hub.Register(c)
	ev := nextEvent(t, c)
	assert.Equal(t, TypeConnection, ev.Type)
	assert.Equal(t, c.ID(), ev.ClientID)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_EventsReachOnlyTheOwner(t *testing.T) {
	hub := newTestHub(t)
	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register(c)
		nextEvent(t, c)
	}

	hub.DatasetCreated("alice", 7)
	hub.DatasetRemoved("alice", 3, true)
	hub.DatasetRemoved("alice", 7, false)

	for _, c := range []*Client{alice1, alice2} {
		created := nextEvent(t, c)
		assert.Equal(t, TypeDatasetCreated, created.Type)
		assert.Equal(t, domain.DatasetID(7), created.DatasetID)
		assert.False(t, created.Timestamp.IsZero())

		evicted := nextEvent(t, c)
		assert.Equal(t, TypeDatasetEvicted, evicted.Type)
		assert.Equal(t, domain.DatasetID(3), evicted.DatasetID)

		deleted := nextEvent(t, c)
		assert.Equal(t, TypeDatasetDeleted, deleted.Type)
	}
	assertNoEvent(t, bob)
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub, "alice")
	hub.Register(c)
	nextEvent(t, c)

	hub.Unregister(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.send
	assert.False(t, ok)

	// a second unregister must not close the queue twice
	hub.Unregister(c)
	hub.DatasetCreated("alice", 1)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub, "alice")
	hub.Register(c)

	for i := 0; i < clientSendQueueSize+5; i++ {
		hub.DatasetCreated("alice", domain.DatasetID(i+1))
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	drained := 0
	for range c.send {
		drained++
	}
	assert.Equal(t, clientSendQueueSize, drained)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Start()
	c := newTestClient(hub, "alice")
	hub.Register(c)
	nextEvent(t, c)

	hub.Stop()
	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// registering after stop closes the queue instead of blocking
	late := newTestClient(hub, "alice")
	hub.Register(late)
	_, ok = <-late.send
	assert.False(t, ok)
}
