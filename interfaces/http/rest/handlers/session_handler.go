// Package handlers contains the REST request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptgraph-backend/application/services"
	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/traversal"
	"conceptgraph-backend/pkg/common"
	pkgerrors "conceptgraph-backend/pkg/errors"
	"conceptgraph-backend/pkg/utils"
)

// BootstrapRequest carries the initial subgraph for a new or reset session
type BootstrapRequest struct {
	AnchorContext   string               `json:"anchorContext" validate:"required,min=1,max=4000"`
	Depth           *int                 `json:"depth" validate:"omitempty,gte=-1,lte=2"`
	Nodes           []entities.GraphNode `json:"nodes" validate:"required,min=1"`
	Edges           []entities.GraphEdge `json:"edges"`
	MatchedEntities []string             `json:"matchedEntities"`
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	SessionID  string                `json:"sessionId"`
	Projection aggregates.Projection `json:"projection"`
}

// SessionHandler handles session lifecycle requests
type SessionHandler struct {
	service *services.ExplorationService
	logger  *zap.Logger
}

// NewSessionHandler creates a session lifecycle handler
func NewSessionHandler(service *services.ExplorationService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeBootstrap(w, r)
	if !ok {
		return
	}

	id, projection, err := h.service.Bootstrap(r.Context(), input)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, SessionResponse{
		SessionID:  id.String(),
		Projection: projection,
	})
}

// ResetSession handles POST /api/v1/sessions/{sessionID}/reset
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	input, ok := decodeBootstrap(w, r)
	if !ok {
		return
	}

	projection, err := h.service.Reset(r.Context(), id, input)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, SessionResponse{
		SessionID:  id.String(),
		Projection: projection,
	})
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Teardown(r.Context(), id); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondNoContent(w)
}

// sessionID extracts and validates the session id path parameter, writing
// the error response itself when invalid
func sessionID(w http.ResponseWriter, r *http.Request) (aggregates.SessionID, bool) {
	id, err := aggregates.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		common.RespondAppError(w, err)
		return "", false
	}
	return id, true
}

// decodeBootstrap parses and validates a bootstrap payload
func decodeBootstrap(w http.ResponseWriter, r *http.Request) (services.BootstrapInput, bool) {
	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid JSON payload"))
		return services.BootstrapInput{}, false
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError(err.Error()))
		return services.BootstrapInput{}, false
	}

	for i := range req.Nodes {
		if req.Nodes[i].ID == "" || req.Nodes[i].Label == "" {
			common.RespondAppError(w, pkgerrors.NewValidationError("every node needs an id and a label"))
			return services.BootstrapInput{}, false
		}
		normalizeNode(&req.Nodes[i])
	}
	for i := range req.Edges {
		if req.Edges[i].From == "" || req.Edges[i].To == "" {
			common.RespondAppError(w, pkgerrors.NewValidationError("every edge needs from and to node ids"))
			return services.BootstrapInput{}, false
		}
		if !req.Edges[i].Relationship.IsValid() {
			req.Edges[i].Relationship = entities.RelCorrelatesWith
		}
	}

	depth := traversal.Depth(1)
	if req.Depth != nil {
		depth = traversal.Depth(*req.Depth)
	}
	if !depth.IsValid() {
		common.RespondAppError(w, pkgerrors.NewValidationError("depth must be 0, 1, 2 or -1 for unbounded"))
		return services.BootstrapInput{}, false
	}

	return services.BootstrapInput{
		AnchorContext:   req.AnchorContext,
		Depth:           depth,
		Nodes:           req.Nodes,
		Edges:           req.Edges,
		MatchedEntities: req.MatchedEntities,
	}, true
}

// normalizeNode fills defaults client payloads commonly omit
func normalizeNode(node *entities.GraphNode) {
	if !node.Type.IsValid() {
		node.Type = entities.NodeTypeConcept
	}
	switch node.ExpansionState {
	case entities.ExpansionCollapsed, entities.ExpansionExpanded:
	default:
		node.ExpansionState = entities.ExpansionCollapsed
	}
	node.LastError = ""
}
