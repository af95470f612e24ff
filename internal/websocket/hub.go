package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"flowpulse/internal/infrastructure"
	"flowpulse/pkg/contracts/domain"
)

// Event types pushed to clients
const (
	TypeConnection      = "connection"
	TypeDatasetCreated  = "dataset.created"
	TypeDatasetEvicted  = "dataset.evicted"
	TypeDatasetDeleted  = "dataset.deleted"
	eventQueueSize      = 256
	clientSendQueueSize = 64
)

// Event is the JSON document written to a client
type Event struct {
	Type      string           `json:"type"`
	DatasetID domain.DatasetID `json:"dataset_id,omitempty"`
	ClientID  string           `json:"client_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type ownerEvent struct {
	ownerID string
	payload []byte
}

// Hub fans dataset events out to the connections of the owning user.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	events     chan ownerEvent
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	count   int
	running bool
	quit    chan struct{}
	done    chan struct{}

	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHub creates a hub. A nil metrics value disables push client metrics.
func NewHub(metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		events:     make(chan ownerEvent, eventQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		now:        time.Now,
	}
}

// Start launches the hub loop. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client's send queue
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			h.logger.Info("Hub shutting down")
			return

		case c := <-h.register:
			set, ok := h.clients[c.ownerID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.ownerID] = set
			}
			set[c] = struct{}{}
			h.adjustCount(1)

			h.logger.Info("Client registered",
				slog.String("client_id", c.id),
				slog.String("owner_id", c.ownerID),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("total_clients", h.ClientCount()))

			if payload, err := json.Marshal(Event{Type: TypeConnection, ClientID: c.id, Timestamp: h.now().UTC()}); err == nil {
				h.deliver(c, payload)
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c.ownerID][c]; ok {
				h.drop(c)
				h.logger.Info("Client unregistered",
					slog.String("client_id", c.id),
					slog.Duration("connection_duration", time.Since(c.connectedAt)),
					slog.Int("total_clients", h.ClientCount()))
			}

		case ev := <-h.events:
			for c := range h.clients[ev.ownerID] {
				h.deliver(c, ev.payload)
			}
		}
	}
}

// deliver queues a payload without blocking; a client whose queue is full is dropped
func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("Client send buffer full, disconnecting",
			slog.String("client_id", c.id),
			slog.String("owner_id", c.ownerID))
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	set := h.clients[c.ownerID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.ownerID)
	}
	close(c.send)
	h.adjustCount(-1)
}

func (h *Hub) adjustCount(delta int) {
	h.mu.Lock()
	h.count += delta
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RecordPushClient(context.Background(), int64(delta))
	}
}

// Register hands a client to the hub loop
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		close(c.send)
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients across all owners
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// DatasetCreated publishes a dataset.created event to the owner
func (h *Hub) DatasetCreated(ownerID string, id domain.DatasetID) {
	h.publish(ownerID, TypeDatasetCreated, id)
}

// DatasetRemoved publishes dataset.evicted or dataset.deleted to the owner
func (h *Hub) DatasetRemoved(ownerID string, id domain.DatasetID, evicted bool) {
	typ := TypeDatasetDeleted
	if evicted {
		typ = TypeDatasetEvicted
	}
	h.publish(ownerID, typ, id)
}

// publish never blocks: it is called while the store holds the owner lock
func (h *Hub) publish(ownerID, typ string, id domain.DatasetID) {
	payload, err := json.Marshal(Event{Type: typ, DatasetID: id, Timestamp: h.now().UTC()})
	if err != nil {
		h.logger.Error("Error marshaling event", slog.String("type", typ), slog.String("error", err.Error()))
		return
	}

	select {
	case h.events <- ownerEvent{ownerID: ownerID, payload: payload}:
	default:
		h.logger.Warn("Event queue full, dropping event",
			slog.String("type", typ),
			slog.String("owner_id", ownerID),
			slog.Int64("dataset_id", int64(id)))
	}
}
