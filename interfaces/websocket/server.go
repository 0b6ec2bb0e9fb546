package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/pkg/common"
)

// ProjectionSource yields the current projection of a session, used to
// validate subscriptions and send the initial frame.
type ProjectionSource interface {
	Projection(id aggregates.SessionID) (aggregates.Projection, error)
}

// Server upgrades HTTP requests to projection subscriptions
type Server struct {
	hub      *Hub
	source   ProjectionSource
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a WebSocket subscription endpoint
func NewServer(hub *Hub, source ProjectionSource, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The rendering surface may be served from a different origin
			// in development; access control happens at the REST layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleSubscribe handles GET /ws/sessions/{sessionID}
func (s *Server) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	id, err := aggregates.ParseSessionID(sessionID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	projection, err := s.source.Projection(id)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(sessionID, s.hub, conn, s.logger)
	client.Start()

	// Send the current projection immediately so the subscriber does not
	// have to wait for the next mutation.
	if data, err := json.Marshal(projection); err == nil {
		frame, _ := json.Marshal(&BroadcastMessage{
			Type:      MessageTypeProjection,
			Data:      data,
			Timestamp: time.Now().Unix(),
		})
		select {
		case client.send <- frame:
		default:
		}
	}
}
