package events

import "time"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time  { return e.Timestamp }

func newBase(sessionID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: sessionID,
		EventType:   eventType,
		Timestamp:   time.Now(),
	}
}

// SessionBootstrapped is raised when a session is created for an anchor
type SessionBootstrapped struct {
	BaseEvent
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// NewSessionBootstrapped creates a SessionBootstrapped event
func NewSessionBootstrapped(sessionID string, nodeCount, edgeCount int) SessionBootstrapped {
	return SessionBootstrapped{
		BaseEvent: newBase(sessionID, "session.bootstrapped"),
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}

// NodesMerged is raised when new nodes enter the graph store
type NodesMerged struct {
	BaseEvent
	NodeIDs []string `json:"node_ids"`
}

// NewNodesMerged creates a NodesMerged event
func NewNodesMerged(sessionID string, nodeIDs []string) NodesMerged {
	return NodesMerged{
		BaseEvent: newBase(sessionID, "graph.nodes_merged"),
		NodeIDs:   nodeIDs,
	}
}

// EdgesMerged is raised when new edges enter the graph store. Dropped ids
// are edges whose endpoints were missing at merge time.
type EdgesMerged struct {
	BaseEvent
	EdgeIDs    []string `json:"edge_ids"`
	DroppedIDs []string `json:"dropped_ids,omitempty"`
}

// NewEdgesMerged creates an EdgesMerged event
func NewEdgesMerged(sessionID string, edgeIDs, droppedIDs []string) EdgesMerged {
	return EdgesMerged{
		BaseEvent:  newBase(sessionID, "graph.edges_merged"),
		EdgeIDs:    edgeIDs,
		DroppedIDs: droppedIDs,
	}
}

// ExpansionStarted is raised when a node enters the Expanding state
type ExpansionStarted struct {
	BaseEvent
	NodeID string `json:"node_id"`
}

// NewExpansionStarted creates an ExpansionStarted event
func NewExpansionStarted(sessionID, nodeID string) ExpansionStarted {
	return ExpansionStarted{
		BaseEvent: newBase(sessionID, "node.expansion_started"),
		NodeID:    nodeID,
	}
}

// ExpansionCompleted is raised when an expansion merged successfully
type ExpansionCompleted struct {
	BaseEvent
	NodeID     string `json:"node_id"`
	AddedNodes int    `json:"added_nodes"`
	AddedEdges int    `json:"added_edges"`
}

// NewExpansionCompleted creates an ExpansionCompleted event
func NewExpansionCompleted(sessionID, nodeID string, addedNodes, addedEdges int) ExpansionCompleted {
	return ExpansionCompleted{
		BaseEvent:  newBase(sessionID, "node.expansion_completed"),
		NodeID:     nodeID,
		AddedNodes: addedNodes,
		AddedEdges: addedEdges,
	}
}

// ExpansionFailed is raised when an expansion is rolled back
type ExpansionFailed struct {
	BaseEvent
	NodeID string `json:"node_id"`
	Reason string `json:"reason"`
}

// NewExpansionFailed creates an ExpansionFailed event
func NewExpansionFailed(sessionID, nodeID, reason string) ExpansionFailed {
	return ExpansionFailed{
		BaseEvent: newBase(sessionID, "node.expansion_failed"),
		NodeID:    nodeID,
		Reason:    reason,
	}
}

// DepthChanged is raised when the visibility threshold moves
type DepthChanged struct {
	BaseEvent
	Depth int `json:"depth"`
}

// NewDepthChanged creates a DepthChanged event
func NewDepthChanged(sessionID string, depth int) DepthChanged {
	return DepthChanged{
		BaseEvent: newBase(sessionID, "view.depth_changed"),
		Depth:     depth,
	}
}

// SelectionChanged is raised when the inspected node or edge changes
type SelectionChanged struct {
	BaseEvent
	NodeID string `json:"node_id,omitempty"`
	EdgeID string `json:"edge_id,omitempty"`
}

// NewSelectionChanged creates a SelectionChanged event
func NewSelectionChanged(sessionID, nodeID, edgeID string) SelectionChanged {
	return SelectionChanged{
		BaseEvent: newBase(sessionID, "view.selection_changed"),
		NodeID:    nodeID,
		EdgeID:    edgeID,
	}
}
