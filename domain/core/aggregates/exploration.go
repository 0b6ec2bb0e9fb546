package aggregates

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"conceptgraph-backend/domain/core/entities"
	"conceptgraph-backend/domain/events"
	"conceptgraph-backend/domain/seeds"
	"conceptgraph-backend/domain/traversal"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// SessionID represents a unique exploration session identifier
type SessionID string

// NewSessionID creates a new random SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ParseSessionID validates and converts a string to a SessionID
func ParseSessionID(s string) (SessionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", pkgerrors.NewValidationError("invalid session id format")
	}
	return SessionID(s), nil
}

// String returns the string representation
func (id SessionID) String() string {
	return string(id)
}

// Selection holds the currently inspected entity; at most one of the two
// fields is non-empty.
type Selection struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// IsEmpty reports whether nothing is selected
func (s Selection) IsEmpty() bool {
	return s.NodeID == "" && s.EdgeID == ""
}

// Projection is the read-only view handed to the rendering layer after every
// recomputation.
type Projection struct {
	VisibleNodes    []entities.GraphNode `json:"visibleNodes"`
	VisibleEdges    []entities.GraphEdge `json:"visibleEdges"`
	HiddenCount     int                  `json:"hiddenCount"`
	Depth           traversal.Depth      `json:"depth"`
	SeedIDs         []string             `json:"seedIds"`
	ExpandingNodeID string               `json:"expandingNodeId,omitempty"`
}

// NodeInspector is the inspector-panel payload for a selected node
type NodeInspector struct {
	ID             string                    `json:"id"`
	Label          string                    `json:"label"`
	Type           entities.NodeType         `json:"type"`
	Description    string                    `json:"description,omitempty"`
	RelevanceNote  string                    `json:"relevanceNote,omitempty"`
	Papers         []entities.PaperReference `json:"papers,omitempty"`
	ExpansionState entities.ExpansionState   `json:"expansionState"`
	CanExpand      bool                      `json:"canExpand"`
	IsSeed         bool                      `json:"isSeed"`
	Confidence     *float64                  `json:"confidence,omitempty"`
	LastError      string                    `json:"lastError,omitempty"`
}

// EdgeInspector is the inspector-panel payload for a selected edge
type EdgeInspector struct {
	ID            string                `json:"id"`
	FromID        string                `json:"fromId"`
	FromLabel     string                `json:"fromLabel"`
	ToID          string                `json:"toId"`
	ToLabel       string                `json:"toLabel"`
	Relationship  entities.Relationship `json:"relationship"`
	Label         string                `json:"label,omitempty"`
	EvidenceQuote string                `json:"evidenceQuote,omitempty"`
	Confidence    *float64              `json:"confidence,omitempty"`
	SourcePaperID string                `json:"sourcePaperId,omitempty"`
}

// ExplorationSession is the aggregate root for one concept-graph exploration.
// It owns the accumulated node/edge store, the matched-entity seed set, the
// visibility depth, the selection, and the single in-flight expansion slot.
// All mutation funnels through its methods; every mutating method finishes
// with one synchronous recomputation of seeds, distances and visibility, so
// readers never observe a half-updated view.
//
// The aggregate is not safe for concurrent use; the owning service
// serializes access.
type ExplorationSession struct {
	id            SessionID
	epoch         int
	anchorContext string

	nodes     map[string]*entities.GraphNode
	nodeOrder []string
	edges     map[string]*entities.GraphEdge
	edgeOrder []string
	edgeSeq   map[string]int

	matched    []string
	seedIDs    map[string]struct{}
	unresolved []string

	depth     traversal.Depth
	distances map[string]int
	visible   traversal.VisibleSet

	selection Selection
	expanding string

	resolver  *seeds.Resolver
	events    []events.DomainEvent
	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewExplorationSession creates an empty session for a fresh anchor
func NewExplorationSession(anchorContext string, depth traversal.Depth) (*ExplorationSession, error) {
	return reconstructSession(NewSessionID(), 1, anchorContext, depth)
}

// ReconstructSession creates a session with a caller-fixed id and epoch.
// Used when a session is reset to a new anchor: the id survives, the epoch
// advances, and any in-flight expansion result from the previous epoch is
// thereby fenced out.
func ReconstructSession(id SessionID, epoch int, anchorContext string, depth traversal.Depth) (*ExplorationSession, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("session id cannot be empty")
	}
	if epoch < 1 {
		return nil, pkgerrors.NewValidationError("session epoch must be positive")
	}
	return reconstructSession(id, epoch, anchorContext, depth)
}

func reconstructSession(id SessionID, epoch int, anchorContext string, depth traversal.Depth) (*ExplorationSession, error) {
	if !depth.IsValid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unsupported depth threshold: %d", depth))
	}

	now := time.Now()
	s := &ExplorationSession{
		id:            id,
		epoch:         epoch,
		anchorContext: anchorContext,
		nodes:         make(map[string]*entities.GraphNode),
		edges:         make(map[string]*entities.GraphEdge),
		edgeSeq:       make(map[string]int),
		seedIDs:       make(map[string]struct{}),
		depth:         depth,
		distances:     make(map[string]int),
		resolver:      seeds.NewResolver(),
		events:        []events.DomainEvent{},
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
	s.recompute()
	return s, nil
}

// ID returns the session's unique identifier
func (s *ExplorationSession) ID() SessionID { return s.id }

// Epoch returns the session's reset generation, the guard token carried by
// in-flight expansions
func (s *ExplorationSession) Epoch() int { return s.epoch }

// AnchorContext returns the free-text context that seeded the session
func (s *ExplorationSession) AnchorContext() string { return s.anchorContext }

// Depth returns the current visibility threshold
func (s *ExplorationSession) Depth() traversal.Depth { return s.depth }

// Version returns the mutation counter
func (s *ExplorationSession) Version() int { return s.version }

// NodeCount returns the number of stored nodes
func (s *ExplorationSession) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of stored edges
func (s *ExplorationSession) EdgeCount() int { return len(s.edges) }

// Node returns a copy of a stored node
func (s *ExplorationSession) Node(id string) (entities.GraphNode, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return entities.GraphNode{}, false
	}
	return node.Clone(), true
}

// Edge returns a copy of a stored edge
func (s *ExplorationSession) Edge(id string) (entities.GraphEdge, bool) {
	edge, ok := s.edges[id]
	if !ok {
		return entities.GraphEdge{}, false
	}
	return edge.Clone(), true
}

// IsSeed reports whether a node currently resolves as a seed
func (s *ExplorationSession) IsSeed(id string) bool {
	_, ok := s.seedIDs[id]
	return ok
}

// Distance returns the hop distance for a node id
func (s *ExplorationSession) Distance(id string) (int, bool) {
	d, ok := s.distances[id]
	return d, ok
}

// ExpandingNodeID returns the node currently Expanding, if any
func (s *ExplorationSession) ExpandingNodeID() string { return s.expanding }

// UnresolvedSeeds returns matched identifiers the resolution pipeline could
// not place
func (s *ExplorationSession) UnresolvedSeeds() []string {
	out := make([]string, len(s.unresolved))
	copy(out, s.unresolved)
	return out
}

// MergeNodes merges nodes into the store, first-write-wins. Re-adding an
// existing id is a no-op and never overwrites any field. Returns the ids
// actually added.
func (s *ExplorationSession) MergeNodes(nodes []entities.GraphNode) []string {
	added := s.mergeNodes(nodes)
	if len(added) > 0 {
		s.touch()
		s.addEvent(events.NewNodesMerged(s.id.String(), added))
	}
	s.recompute()
	return added
}

// MergeEdges merges edges into the store. Edges referencing a missing
// endpoint are dropped, never raised as an error. Returns the ids added and
// the ids dropped.
func (s *ExplorationSession) MergeEdges(edges []entities.GraphEdge) (added []string, dropped []string) {
	added, dropped = s.mergeEdges(edges)
	if len(added) > 0 || len(dropped) > 0 {
		s.touch()
		s.addEvent(events.NewEdgesMerged(s.id.String(), added, dropped))
	}
	s.recompute()
	return added, dropped
}

// SetMatchedEntities replaces the caller-supplied matched-entity identifiers
// and re-resolves the seed set
func (s *ExplorationSession) SetMatchedEntities(identifiers []string) {
	s.matched = make([]string, len(identifiers))
	copy(s.matched, identifiers)
	s.touch()
	s.recompute()
}

// SetDepth changes the visibility threshold
func (s *ExplorationSession) SetDepth(depth traversal.Depth) error {
	if !depth.IsValid() {
		return pkgerrors.NewValidationError(fmt.Sprintf("unsupported depth threshold: %d", depth))
	}
	if depth == s.depth {
		return nil
	}
	s.depth = depth
	s.touch()
	s.addEvent(events.NewDepthChanged(s.id.String(), int(depth)))
	s.recompute()
	return nil
}

// SelectNode marks a node as inspected, clearing any edge selection
func (s *ExplorationSession) SelectNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	s.selection = Selection{NodeID: id}
	s.addEvent(events.NewSelectionChanged(s.id.String(), id, ""))
	return nil
}

// SelectEdge marks an edge as inspected, clearing any node selection
func (s *ExplorationSession) SelectEdge(id string) error {
	if _, ok := s.edges[id]; !ok {
		return pkgerrors.NewNotFoundError("edge")
	}
	s.selection = Selection{EdgeID: id}
	s.addEvent(events.NewSelectionChanged(s.id.String(), "", id))
	return nil
}

// ClearSelection deselects everything
func (s *ExplorationSession) ClearSelection() {
	if s.selection.IsEmpty() {
		return
	}
	s.selection = Selection{}
	s.addEvent(events.NewSelectionChanged(s.id.String(), "", ""))
}

// CurrentSelection returns the current selection
func (s *ExplorationSession) CurrentSelection() Selection {
	return s.selection
}

// NodeInspectorPayload builds the inspector panel data for a node
func (s *ExplorationSession) NodeInspectorPayload(id string) (NodeInspector, error) {
	node, ok := s.nodes[id]
	if !ok {
		return NodeInspector{}, pkgerrors.NewNotFoundError("node")
	}
	clone := node.Clone()
	return NodeInspector{
		ID:             clone.ID,
		Label:          clone.Label,
		Type:           clone.Type,
		Description:    clone.Description,
		RelevanceNote:  clone.RelevanceNote,
		Papers:         clone.PaperReferences,
		ExpansionState: clone.ExpansionState,
		CanExpand:      clone.CanExpand() && s.expanding == "",
		IsSeed:         s.IsSeed(id),
		Confidence:     clone.Confidence,
		LastError:      clone.LastError,
	}, nil
}

// EdgeInspectorPayload builds the inspector panel data for an edge
func (s *ExplorationSession) EdgeInspectorPayload(id string) (EdgeInspector, error) {
	edge, ok := s.edges[id]
	if !ok {
		return EdgeInspector{}, pkgerrors.NewNotFoundError("edge")
	}
	fromLabel, toLabel := "", ""
	if from, ok := s.nodes[edge.From]; ok {
		fromLabel = from.Label
	}
	if to, ok := s.nodes[edge.To]; ok {
		toLabel = to.Label
	}
	clone := edge.Clone()
	return EdgeInspector{
		ID:            clone.ID,
		FromID:        clone.From,
		FromLabel:     fromLabel,
		ToID:          clone.To,
		ToLabel:       toLabel,
		Relationship:  clone.Relationship,
		Label:         clone.Label,
		EvidenceQuote: clone.EvidenceQuote,
		Confidence:    clone.Confidence,
		SourcePaperID: clone.SourcePaperID,
	}, nil
}

// BeginExpansion moves a node into the Expanding state. Preconditions: the
// node exists, is Collapsed, and no other node in the session is Expanding.
// A failed precondition is a silent no-op, reported via the false return so
// the caller can log it.
func (s *ExplorationSession) BeginExpansion(nodeID string) bool {
	if s.expanding != "" {
		return false
	}
	node, ok := s.nodes[nodeID]
	if !ok || !node.CanExpand() {
		return false
	}
	node.ExpansionState = entities.ExpansionExpanding
	s.expanding = nodeID
	s.touch()
	s.addEvent(events.NewExpansionStarted(s.id.String(), nodeID))
	return true
}

// CompleteExpansion merges the translated oracle entities and marks the
// expanded node Expanded. Strictly additive: pre-existing nodes and edges
// are untouched thanks to first-write-wins merge semantics. Ignored unless
// nodeID is the one currently Expanding.
func (s *ExplorationSession) CompleteExpansion(nodeID string, nodes []entities.GraphNode, edges []entities.GraphEdge) (addedNodes, addedEdges int) {
	if s.expanding != nodeID {
		return 0, 0
	}
	node := s.nodes[nodeID]

	newNodes := s.mergeNodes(nodes)
	newEdges, droppedEdges := s.mergeEdges(edges)

	node.ExpansionState = entities.ExpansionExpanded
	node.LastError = ""
	s.expanding = ""
	s.touch()

	if len(newNodes) > 0 {
		s.addEvent(events.NewNodesMerged(s.id.String(), newNodes))
	}
	if len(newEdges) > 0 || len(droppedEdges) > 0 {
		s.addEvent(events.NewEdgesMerged(s.id.String(), newEdges, droppedEdges))
	}
	s.addEvent(events.NewExpansionCompleted(s.id.String(), nodeID, len(newNodes), len(newEdges)))
	s.recompute()
	return len(newNodes), len(newEdges)
}

// FailExpansion rolls the Expanding node back to Collapsed and records the
// failure against it. The store is left untouched. Ignored unless nodeID is
// the one currently Expanding.
func (s *ExplorationSession) FailExpansion(nodeID, reason string) {
	if s.expanding != nodeID {
		return
	}
	node := s.nodes[nodeID]
	node.ExpansionState = entities.ExpansionCollapsed
	node.LastError = reason
	s.expanding = ""
	s.touch()
	s.addEvent(events.NewExpansionFailed(s.id.String(), nodeID, reason))
}

// CurrentProjection returns the rendering projection for the current state
func (s *ExplorationSession) CurrentProjection() Projection {
	p := Projection{
		VisibleNodes:    make([]entities.GraphNode, 0, len(s.visible.Nodes)),
		VisibleEdges:    make([]entities.GraphEdge, 0, len(s.visible.Edges)),
		HiddenCount:     s.visible.HiddenCount,
		Depth:           s.depth,
		SeedIDs:         make([]string, 0, len(s.seedIDs)),
		ExpandingNodeID: s.expanding,
	}
	for _, id := range s.nodeOrder {
		if s.visible.NodeVisible(id) {
			p.VisibleNodes = append(p.VisibleNodes, s.nodes[id].Clone())
		}
	}
	for _, id := range s.edgeOrder {
		if s.visible.EdgeVisible(id) {
			p.VisibleEdges = append(p.VisibleEdges, s.edges[id].Clone())
		}
	}
	for _, id := range s.nodeOrder {
		if s.IsSeed(id) {
			p.SeedIDs = append(p.SeedIDs, id)
		}
	}
	return p
}

// GetUncommittedEvents returns all uncommitted domain events
func (s *ExplorationSession) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

// MarkEventsAsCommitted clears the uncommitted events
func (s *ExplorationSession) MarkEventsAsCommitted() {
	s.events = []events.DomainEvent{}
}

// Private helpers

func (s *ExplorationSession) mergeNodes(nodes []entities.GraphNode) []string {
	var added []string
	for _, node := range nodes {
		if node.ID == "" {
			continue
		}
		if _, exists := s.nodes[node.ID]; exists {
			continue
		}
		clone := node.Clone()
		if !clone.Type.IsValid() {
			clone.Type = entities.NodeTypeConcept
		}
		if clone.ExpansionState == "" {
			clone.ExpansionState = entities.ExpansionCollapsed
		}
		s.nodes[clone.ID] = &clone
		s.nodeOrder = append(s.nodeOrder, clone.ID)
		added = append(added, clone.ID)
	}
	return added
}

func (s *ExplorationSession) mergeEdges(edges []entities.GraphEdge) (added []string, dropped []string) {
	for _, edge := range edges {
		if _, ok := s.nodes[edge.From]; !ok {
			dropped = append(dropped, s.describeEdge(edge))
			continue
		}
		if _, ok := s.nodes[edge.To]; !ok {
			dropped = append(dropped, s.describeEdge(edge))
			continue
		}

		clone := edge.Clone()
		if clone.ID == "" {
			clone.ID = s.nextEdgeID(clone.From, clone.To)
		}
		if _, exists := s.edges[clone.ID]; exists {
			continue
		}
		s.edges[clone.ID] = &clone
		s.edgeOrder = append(s.edgeOrder, clone.ID)
		added = append(added, clone.ID)
	}
	return added, dropped
}

// nextEdgeID allocates the next free (from, to, sequence) id for edges
// supplied without one
func (s *ExplorationSession) nextEdgeID(from, to string) string {
	key := from + "|" + to
	for {
		id := entities.EdgeID(from, to, s.edgeSeq[key])
		s.edgeSeq[key]++
		if _, exists := s.edges[id]; !exists {
			return id
		}
	}
}

func (s *ExplorationSession) describeEdge(edge entities.GraphEdge) string {
	if edge.ID != "" {
		return edge.ID
	}
	return entities.EdgeID(edge.From, edge.To, 0)
}

// recompute runs the full read-path pipeline as one synchronous batch:
// seed resolution, multi-source BFS, then visibility filtering.
func (s *ExplorationSession) recompute() {
	candidates := make([]seeds.Candidate, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		candidates = append(candidates, seeds.Candidate{
			ID:          node.ID,
			Label:       node.Label,
			DirectMatch: node.IsDirectMatch,
		})
	}
	s.seedIDs, s.unresolved = s.resolver.Resolve(s.matched, candidates)

	allEdges := make([]entities.GraphEdge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		allEdges = append(allEdges, *s.edges[id])
	}

	adj := traversal.BuildAdjacency(allEdges)
	s.distances = traversal.HopDistances(s.nodeOrder, adj, s.seedIDs)
	s.visible = traversal.Visible(s.nodeOrder, allEdges, s.distances, s.depth)
}

func (s *ExplorationSession) touch() {
	s.updatedAt = time.Now()
	s.version++
}

func (s *ExplorationSession) addEvent(event events.DomainEvent) {
	s.events = append(s.events, event)
}
