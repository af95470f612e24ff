package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/config"
	"flowpulse/internal/infrastructure"
	"flowpulse/pkg/contracts/domain"
)

func withOwner(owner string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(infrastructure.WithOwnerID(r.Context(), owner)))
	})
}

func TestHandler_StreamsOwnerEvents(t *testing.T) {
	hub := newTestHub(t)
	handler := NewHandler(hub, config.Default().WebSocket, nil, nil)
	server := httptest.NewServer(withOwner("alice", handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var hello Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, TypeConnection, hello.Type)

	hub.DatasetCreated("bob", 1)
	hub.DatasetCreated("alice", 3)

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeDatasetCreated, ev.Type)
	assert.Equal(t, domain.DatasetID(3), ev.DatasetID)
}

func TestHandler_RequiresOwner(t *testing.T) {
	handler := NewHandler(NewHub(nil, nil), config.Default().WebSocket, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	hub := newTestHub(t)
	handler := NewHandler(hub, config.Default().WebSocket, []string{"https://app.example.com"}, nil)
	server := httptest.NewServer(withOwner("alice", handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
