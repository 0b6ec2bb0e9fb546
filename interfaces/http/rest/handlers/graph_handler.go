package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"conceptgraph-backend/application/services"
	"conceptgraph-backend/domain/traversal"
	"conceptgraph-backend/pkg/common"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// DepthRequest sets the visibility threshold
type DepthRequest struct {
	Depth int `json:"depth"`
}

// SelectionRequest selects a node or an edge; an empty body clears the
// selection. At most one of the two fields may be set.
type SelectionRequest struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// GraphHandler handles graph view and expansion requests
type GraphHandler struct {
	service *services.ExplorationService
	logger  *zap.Logger
}

// NewGraphHandler creates a graph view handler
func NewGraphHandler(service *services.ExplorationService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{service: service, logger: logger}
}

// GetGraph handles GET /api/v1/sessions/{sessionID}/graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	projection, err := h.service.Projection(id)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, projection)
}

// SetDepth handles PUT /api/v1/sessions/{sessionID}/depth
func (h *GraphHandler) SetDepth(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req DepthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid JSON payload"))
		return
	}

	projection, err := h.service.SetDepth(r.Context(), id, traversal.Depth(req.Depth))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, projection)
}

// UpdateSelection handles PUT /api/v1/sessions/{sessionID}/selection
func (h *GraphHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("invalid JSON payload"))
		return
	}
	if req.NodeID != "" && req.EdgeID != "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("select either a node or an edge, not both"))
		return
	}

	var (
		view services.SelectionView
		err  error
	)
	switch {
	case req.NodeID != "":
		view, err = h.service.SelectNode(r.Context(), id, req.NodeID)
	case req.EdgeID != "":
		view, err = h.service.SelectEdge(r.Context(), id, req.EdgeID)
	default:
		err = h.service.ClearSelection(r.Context(), id)
	}
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// GetSelection handles GET /api/v1/sessions/{sessionID}/selection
func (h *GraphHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Selection(id)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ExpandNode handles POST /api/v1/sessions/{sessionID}/nodes/{nodeID}/expand.
// Requests against nodes that cannot expand right now are acknowledged with
// the current projection rather than rejected.
func (h *GraphHandler) ExpandNode(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("node id is required"))
		return
	}

	projection, err := h.service.Expand(r.Context(), id, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, projection)
}
