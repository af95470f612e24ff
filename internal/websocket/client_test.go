package websocket

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, newMockConn(), "alice", ClientOptions{PingPeriod: time.Minute, PongWait: time.Second}, nil)

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, "alice", c.ownerID)
	assert.Equal(t, "127.0.0.1:9999", c.remoteAddr)
	assert.Equal(t, time.Second, c.opts.PongWait)
	assert.Less(t, c.opts.PingPeriod, c.opts.PongWait)
}

func TestClient_WritePump(t *testing.T) {
	conn := newMockConn()
	c := NewClient(nil, conn, "alice", ClientOptions{PingPeriod: time.Hour, PongWait: 2 * time.Hour}, nil)

	c.send <- []byte(`{"type":"dataset.created"}`)
	close(c.send)

	done := make(chan struct{})
	go func() {
		c.WritePump()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}

	msgs := conn.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, websocket.TextMessage, msgs[0].Type)
	assert.JSONEq(t, `{"type":"dataset.created"}`, string(msgs[0].Data))
	assert.Equal(t, websocket.CloseMessage, msgs[1].Type)
	assert.True(t, conn.isClosed())
}

func TestClient_WritePumpPings(t *testing.T) {
	conn := newMockConn()
	c := NewClient(nil, conn, "alice", ClientOptions{PingPeriod: 10 * time.Millisecond, PongWait: time.Second}, nil)

	go c.WritePump()
	assert.Eventually(t, func() bool {
		for _, m := range conn.messages() {
			if m.Type == websocket.PingMessage {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	close(c.send)
}

func TestClient_ReadPumpUnregistersOnError(t *testing.T) {
	hub := newTestHub(t)
	conn := newMockConn()
	conn.readErr = errors.New("peer went away")
	c := NewClient(hub, conn, "alice", ClientOptions{}, nil)

	hub.Register(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	c.ReadPump()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, conn.isClosed())

	conn.mu.Lock()
	pong := conn.pong
	conn.mu.Unlock()
	require.NotNil(t, pong)
	assert.NoError(t, pong(""))
}
