package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appevents "conceptgraph-backend/application/events"
	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/core/entities"
	domainevents "conceptgraph-backend/domain/events"
	"conceptgraph-backend/domain/traversal"
	"conceptgraph-backend/infrastructure/acl"
	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/pkg/errors"
	"conceptgraph-backend/pkg/observability"
)

// ProjectionPublisher pushes a fresh projection to the rendering surface
// after every recomputation
type ProjectionPublisher interface {
	PublishProjection(sessionID string, projection aggregates.Projection)
}

// BootstrapInput carries the initial subgraph for an anchor claim
type BootstrapInput struct {
	AnchorContext   string
	Depth           traversal.Depth
	Nodes           []entities.GraphNode
	Edges           []entities.GraphEdge
	MatchedEntities []string
}

// SelectionView is the inspector payload for whatever is currently selected
type SelectionView struct {
	Selection aggregates.Selection      `json:"selection"`
	Node      *aggregates.NodeInspector `json:"node,omitempty"`
	Edge      *aggregates.EdgeInspector `json:"edge,omitempty"`
}

// sessionEntry pairs a session with the lock serializing access to it.
// Mutation and recomputation run as one synchronous batch under this lock;
// the only suspension point, the oracle call, happens with the lock
// released so selection and depth changes stay responsive.
type sessionEntry struct {
	mu      sync.Mutex
	session *aggregates.ExplorationSession
}

// ExplorationService hosts the live exploration sessions and coordinates
// graph expansion against the concept expansion oracle.
type ExplorationService struct {
	mu       sync.RWMutex
	sessions map[aggregates.SessionID]*sessionEntry

	expander   ports.ConceptExpander
	translator *acl.ExpansionTranslator
	dispatcher *appevents.Dispatcher
	publisher  ProjectionPublisher
	runtime    *config.Watcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewExplorationService creates the session host
func NewExplorationService(
	expander ports.ConceptExpander,
	translator *acl.ExpansionTranslator,
	dispatcher *appevents.Dispatcher,
	runtime *config.Watcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ExplorationService {
	return &ExplorationService{
		sessions:   make(map[aggregates.SessionID]*sessionEntry),
		expander:   expander,
		translator: translator,
		dispatcher: dispatcher,
		runtime:    runtime,
		metrics:    metrics,
		logger:     logger,
	}
}

// SetProjectionPublisher wires the push channel to the rendering surface.
// Wired late because the hub lives in the interfaces layer.
func (s *ExplorationService) SetProjectionPublisher(p ProjectionPublisher) {
	s.publisher = p
}

// Bootstrap creates a session around an initial subgraph and seed list
func (s *ExplorationService) Bootstrap(ctx context.Context, input BootstrapInput) (aggregates.SessionID, aggregates.Projection, error) {
	limits := s.runtime.Current().Limits

	s.mu.Lock()
	if len(s.sessions) >= limits.MaxSessions {
		s.mu.Unlock()
		return "", aggregates.Projection{}, errors.NewConflictError("session limit reached")
	}
	s.mu.Unlock()

	if len(input.Nodes) > limits.MaxNodesPerSession {
		return "", aggregates.Projection{}, errors.NewValidationError("bootstrap graph exceeds node limit")
	}

	session, err := aggregates.NewExplorationSession(input.AnchorContext, input.Depth)
	if err != nil {
		return "", aggregates.Projection{}, err
	}
	s.applyBootstrap(session, input)

	entry := &sessionEntry{session: session}
	s.mu.Lock()
	s.sessions[session.ID()] = entry
	s.mu.Unlock()

	s.metrics.SessionsStarted.Inc()
	s.metrics.ActiveSessions.Inc()

	entry.mu.Lock()
	events, projection := s.collect(session)
	entry.mu.Unlock()
	s.emit(ctx, session.ID(), events, projection)

	s.logger.Info("exploration session bootstrapped",
		zap.String("sessionID", session.ID().String()),
		zap.Int("nodes", session.NodeCount()),
		zap.Int("edges", session.EdgeCount()),
	)

	return session.ID(), projection, nil
}

// Reset discards the session's graph wholesale and rebootstraps it for a
// new anchor. The epoch advance fences out any expansion still in flight
// against the previous anchor.
func (s *ExplorationService) Reset(ctx context.Context, id aggregates.SessionID, input BootstrapInput) (aggregates.Projection, error) {
	entry, err := s.entry(id)
	if err != nil {
		return aggregates.Projection{}, err
	}

	if len(input.Nodes) > s.runtime.Current().Limits.MaxNodesPerSession {
		return aggregates.Projection{}, errors.NewValidationError("bootstrap graph exceeds node limit")
	}

	entry.mu.Lock()
	fresh, err := aggregates.ReconstructSession(id, entry.session.Epoch()+1, input.AnchorContext, input.Depth)
	if err != nil {
		entry.mu.Unlock()
		return aggregates.Projection{}, err
	}
	s.applyBootstrap(fresh, input)
	entry.session = fresh
	events, projection := s.collect(fresh)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)

	s.logger.Info("exploration session reset",
		zap.String("sessionID", id.String()),
		zap.Int("epoch", fresh.Epoch()),
	)

	return projection, nil
}

// Teardown removes a session. A torn-down session's in-flight expansion
// result, if any, is discarded when it arrives.
func (s *ExplorationService) Teardown(ctx context.Context, id aggregates.SessionID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return errors.NewNotFoundError("session")
	}
	s.metrics.ActiveSessions.Dec()
	s.logger.Info("exploration session torn down", zap.String("sessionID", id.String()))
	return nil
}

// Projection returns the current rendering projection
func (s *ExplorationService) Projection(id aggregates.SessionID) (aggregates.Projection, error) {
	entry, err := s.entry(id)
	if err != nil {
		return aggregates.Projection{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.CurrentProjection(), nil
}

// SetDepth changes the visibility threshold and returns the fresh projection
func (s *ExplorationService) SetDepth(ctx context.Context, id aggregates.SessionID, depth traversal.Depth) (aggregates.Projection, error) {
	entry, err := s.entry(id)
	if err != nil {
		return aggregates.Projection{}, err
	}

	entry.mu.Lock()
	if err := entry.session.SetDepth(depth); err != nil {
		entry.mu.Unlock()
		return aggregates.Projection{}, err
	}
	events, projection := s.collect(entry.session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)
	return projection, nil
}

// SelectNode marks a node as inspected and returns its inspector payload
func (s *ExplorationService) SelectNode(ctx context.Context, id aggregates.SessionID, nodeID string) (SelectionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return SelectionView{}, err
	}

	entry.mu.Lock()
	if err := entry.session.SelectNode(nodeID); err != nil {
		entry.mu.Unlock()
		return SelectionView{}, err
	}
	view, viewErr := s.selectionView(entry.session)
	events, projection := s.collect(entry.session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)
	return view, viewErr
}

// SelectEdge marks an edge as inspected and returns its inspector payload
func (s *ExplorationService) SelectEdge(ctx context.Context, id aggregates.SessionID, edgeID string) (SelectionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return SelectionView{}, err
	}

	entry.mu.Lock()
	if err := entry.session.SelectEdge(edgeID); err != nil {
		entry.mu.Unlock()
		return SelectionView{}, err
	}
	view, viewErr := s.selectionView(entry.session)
	events, projection := s.collect(entry.session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)
	return view, viewErr
}

// ClearSelection deselects everything
func (s *ExplorationService) ClearSelection(ctx context.Context, id aggregates.SessionID) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	entry.session.ClearSelection()
	events, projection := s.collect(entry.session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)
	return nil
}

// Selection returns the inspector payload for the current selection
func (s *ExplorationService) Selection(id aggregates.SessionID) (SelectionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return SelectionView{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.selectionView(entry.session)
}

// Expand grows the graph around a node via the concept expansion oracle.
// Precondition failures (node unknown, not Collapsed, or another expansion
// in flight) are silent no-ops per the engine contract. Only transport
// failures surface as errors; they are also recorded against the node so
// the inspector can show them.
func (s *ExplorationService) Expand(ctx context.Context, id aggregates.SessionID, nodeID string) (aggregates.Projection, error) {
	entry, err := s.entry(id)
	if err != nil {
		return aggregates.Projection{}, err
	}

	entry.mu.Lock()
	session := entry.session
	if !session.BeginExpansion(nodeID) {
		projection := session.CurrentProjection()
		entry.mu.Unlock()
		s.logger.Debug("expansion request ignored",
			zap.String("sessionID", id.String()),
			zap.String("nodeID", nodeID),
			zap.String("expanding", projection.ExpandingNodeID),
		)
		s.metrics.ExpansionsTotal.WithLabelValues("noop").Inc()
		return projection, nil
	}

	epoch := session.Epoch()
	node, _ := session.Node(nodeID)
	anchorContext := session.AnchorContext()
	events, projection := s.collect(session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)

	knobs := s.runtime.Current().Expansion
	req := ports.ExpansionRequest{
		ConceptName:             node.Label,
		ConceptContext:          anchorContext,
		MaxSourceResults:        knobs.MaxSourceResults,
		IncludeCounterArguments: knobs.IncludeCounterArguments,
		IncludeCrossDomain:      knobs.IncludeCrossDomain,
	}

	start := time.Now()
	resp, expandErr := s.expander.Expand(ctx, req)

	// The session may have been torn down or reset while the oracle call
	// was in flight; a stale result must not touch the new graph.
	entry, err = s.entry(id)
	if err != nil {
		s.metrics.ObserveExpansion("discarded", start)
		s.logger.Info("discarding expansion result for torn-down session",
			zap.String("sessionID", id.String()),
			zap.String("nodeID", nodeID),
		)
		return aggregates.Projection{}, err
	}

	entry.mu.Lock()
	session = entry.session
	if session.Epoch() != epoch {
		projection := session.CurrentProjection()
		entry.mu.Unlock()
		s.metrics.ObserveExpansion("discarded", start)
		s.logger.Info("discarding expansion result from a previous epoch",
			zap.String("sessionID", id.String()),
			zap.String("nodeID", nodeID),
			zap.Int("epoch", epoch),
		)
		return projection, nil
	}

	if expandErr != nil {
		session.FailExpansion(nodeID, expandErr.Error())
		events, projection := s.collect(session)
		entry.mu.Unlock()
		s.emit(ctx, id, events, projection)
		s.metrics.ObserveExpansion("failure", start)
		s.logger.Warn("concept expansion failed",
			zap.String("sessionID", id.String()),
			zap.String("nodeID", nodeID),
			zap.Error(expandErr),
		)
		return projection, expandErr
	}

	newNodes, newEdges := s.translator.Translate(node, resp)
	addedNodes, addedEdges := session.CompleteExpansion(nodeID, newNodes, newEdges)
	events, projection = s.collect(session)
	entry.mu.Unlock()
	s.emit(ctx, id, events, projection)
	s.metrics.ObserveExpansion("success", start)

	s.logger.Info("concept expansion merged",
		zap.String("sessionID", id.String()),
		zap.String("nodeID", nodeID),
		zap.Int("addedNodes", addedNodes),
		zap.Int("addedEdges", addedEdges),
	)

	return projection, nil
}

// SessionCount returns the number of live sessions
func (s *ExplorationService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Private helpers

func (s *ExplorationService) entry(id aggregates.SessionID) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError("session")
	}
	return entry, nil
}

func (s *ExplorationService) applyBootstrap(session *aggregates.ExplorationSession, input BootstrapInput) {
	session.MergeNodes(input.Nodes)
	_, dropped := session.MergeEdges(input.Edges)
	session.SetMatchedEntities(input.MatchedEntities)

	if len(dropped) > 0 {
		s.logger.Warn("dropped bootstrap edges with missing endpoints",
			zap.String("sessionID", session.ID().String()),
			zap.Strings("edges", dropped),
		)
	}
	if unresolved := session.UnresolvedSeeds(); len(unresolved) > 0 {
		s.logger.Warn("matched entities resolved to no seed nodes",
			zap.String("sessionID", session.ID().String()),
			zap.Strings("identifiers", unresolved),
		)
	}
}

func (s *ExplorationService) selectionView(session *aggregates.ExplorationSession) (SelectionView, error) {
	selection := session.CurrentSelection()
	view := SelectionView{Selection: selection}

	switch {
	case selection.NodeID != "":
		inspector, err := session.NodeInspectorPayload(selection.NodeID)
		if err != nil {
			return view, err
		}
		view.Node = &inspector
	case selection.EdgeID != "":
		inspector, err := session.EdgeInspectorPayload(selection.EdgeID)
		if err != nil {
			return view, err
		}
		view.Edge = &inspector
	}

	return view, nil
}

// collect drains the session's uncommitted events and snapshots the
// projection while the entry lock is still held
func (s *ExplorationService) collect(session *aggregates.ExplorationSession) ([]domainevents.DomainEvent, aggregates.Projection) {
	events := session.GetUncommittedEvents()
	session.MarkEventsAsCommitted()
	return events, session.CurrentProjection()
}

// emit runs outside the entry lock
func (s *ExplorationService) emit(ctx context.Context, id aggregates.SessionID, events []domainevents.DomainEvent, projection aggregates.Projection) {
	if len(events) > 0 {
		s.dispatcher.Dispatch(ctx, events)
	}
	if s.publisher != nil {
		s.publisher.PublishProjection(id.String(), projection)
	}
}
