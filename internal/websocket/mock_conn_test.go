package websocket

import (
	"errors"
	"sync"
	"time"
)

type writtenMessage struct {
	Type int
	Data []byte
}

// mockConn blocks reads until closed and records writes
type mockConn struct {
	mu       sync.Mutex
	written  []writtenMessage
	closed   chan struct{}
	once     sync.Once
	readErr  error
	pong     func(string) error
	deadline time.Time
}

func newMockConn() *mockConn {
	return &mockConn{closed: make(chan struct{})}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
		return errors.New("connection closed")
	default:
	}
	m.written = append(m.written, writtenMessage{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	err := m.readErr
	m.mu.Unlock()
	if err != nil {
		return 0, nil, err
	}
	<-m.closed
	return 0, nil, errors.New("connection closed")
}

func (m *mockConn) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConn) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }
func (m *mockConn) SetReadLimit(int64)               {}

func (m *mockConn) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pong = h
}

func (m *mockConn) RemoteAddr() string { return "127.0.0.1:9999" }

func (m *mockConn) messages() []writtenMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]writtenMessage(nil), m.written...)
}

func (m *mockConn) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}
