// Package websocket pushes graph projections to rendering-surface
// subscribers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/pkg/observability"
)

// MessageTypeProjection labels projection push frames
const MessageTypeProjection = "GRAPH_PROJECTION"

// Hub maintains active WebSocket connections per session and broadcasts
// projection updates to them
type Hub struct {
	// Session connections - one session can have multiple subscribers
	connections map[string]map[*Client]bool // sessionID -> set of clients
	mu          sync.RWMutex

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Message broadcasting
	broadcast chan *BroadcastMessage

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	metrics *observability.Metrics
}

// BroadcastMessage represents a message for every subscriber of one session
type BroadcastMessage struct {
	SessionID string          `json:"-"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// NewHub creates a new WebSocket hub. queueSize bounds the broadcast
// backlog; beyond it projection frames are dropped rather than blocking
// the engine.
func NewHub(queueSize int, metrics *observability.Metrics, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		connections: make(map[string]map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		broadcast:   make(chan *BroadcastMessage, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToSession(message)
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}

// PublishProjection implements services.ProjectionPublisher. Slow or absent
// subscribers never block the engine: the frame is dropped instead.
func (h *Hub) PublishProjection(sessionID string, projection aggregates.Projection) {
	data, err := json.Marshal(projection)
	if err != nil {
		h.logger.Error("failed to marshal projection", zap.Error(err))
		return
	}

	message := &BroadcastMessage{
		SessionID: sessionID,
		Type:      MessageTypeProjection,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, projection frame dropped",
			zap.String("sessionID", sessionID),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.connections[client.sessionID] == nil {
		h.connections[client.sessionID] = make(map[*Client]bool)
	}
	h.connections[client.sessionID][client] = true
	h.mu.Unlock()

	h.metrics.WSConnections.Inc()
	h.logger.Info("websocket subscriber connected",
		zap.String("sessionID", client.sessionID),
		zap.String("connectionID", client.id),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.connections[client.sessionID]
	if ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.connections, client.sessionID)
			}
			h.metrics.WSConnections.Dec()
		}
	}
	h.mu.Unlock()
}

func (h *Hub) broadcastToSession(message *BroadcastMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := h.connections[message.SessionID]
	targets := make([]*Client, 0, len(clients))
	for client := range clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- payload:
		default:
			// Subscriber is not draining; disconnect it.
			h.logger.Warn("dropping slow websocket subscriber",
				zap.String("sessionID", client.sessionID),
				zap.String("connectionID", client.id),
			)
			select {
			case h.unregister <- client:
			default:
			}
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.connections {
		for client := range clients {
			close(client.send)
			client.conn.Close()
		}
		delete(h.connections, sessionID)
	}
}
