package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"flowpulse/internal/config"
	"flowpulse/internal/infrastructure"
)

// Handler upgrades requests to websocket connections subscribed to the caller's events.
// The owner must already be on the request context.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	opts     ClientOptions
	logger   *slog.Logger
}

// NewHandler creates the /ws endpoint. With no allowed origins every origin is accepted.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "websocket.handler"))

	h := &Handler{
		hub:    hub,
		opts:   ClientOptionsFrom(cfg),
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			if slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.Warn("WebSocket origin not allowed", slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ownerID := infrastructure.GetOwnerID(r.Context())
	if ownerID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	logger := h.logger.With(
		slog.String("owner_id", ownerID),
		slog.String("trace_id", infrastructure.GetTraceID(r.Context())))
	client := NewClient(h.hub, wrapConn(conn), ownerID, h.opts, logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
