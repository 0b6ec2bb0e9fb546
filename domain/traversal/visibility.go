package traversal

import "conceptgraph-backend/domain/core/entities"

// Depth is the user-chosen visibility threshold on hop distance
type Depth int

// DepthUnbounded admits every node, including ones unreachable from the seeds
const DepthUnbounded Depth = -1

// IsValid reports whether the depth is one of the supported thresholds
func (d Depth) IsValid() bool {
	return d == DepthUnbounded || d == 0 || d == 1 || d == 2
}

// VisibleSet is the subset of the graph exposed to the rendering layer
type VisibleSet struct {
	Nodes       map[string]struct{}
	Edges       map[string]struct{}
	HiddenCount int
}

// NodeVisible reports whether a node id is in the visible set
func (v VisibleSet) NodeVisible(id string) bool {
	_, ok := v.Nodes[id]
	return ok
}

// EdgeVisible reports whether an edge id is in the visible set
func (v VisibleSet) EdgeVisible(id string) bool {
	_, ok := v.Edges[id]
	return ok
}

// Visible computes the visible node and edge sets for a depth threshold.
// A node is visible iff its distance is known and does not exceed the
// threshold; DepthUnbounded admits everything, Unreachable included. An edge
// is visible iff both endpoints are. Pure function: identical inputs always
// yield identical outputs.
func Visible(nodeIDs []string, edges []entities.GraphEdge, distances map[string]int, depth Depth) VisibleSet {
	result := VisibleSet{
		Nodes: make(map[string]struct{}, len(nodeIDs)),
		Edges: make(map[string]struct{}, len(edges)),
	}

	for _, id := range nodeIDs {
		dist, known := distances[id]
		if !known {
			continue
		}
		if depth == DepthUnbounded || (dist != Unreachable && dist <= int(depth)) {
			result.Nodes[id] = struct{}{}
		} else {
			result.HiddenCount++
		}
	}

	for _, e := range edges {
		if result.NodeVisible(e.From) && result.NodeVisible(e.To) {
			result.Edges[e.ID] = struct{}{}
		}
	}

	return result
}
