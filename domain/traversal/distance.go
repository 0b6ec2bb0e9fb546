package traversal

import "conceptgraph-backend/domain/core/entities"

// Unreachable marks nodes in a different connected component than every seed
const Unreachable = -1

// Adjacency is an undirected adjacency list keyed by node id
type Adjacency map[string][]string

// BuildAdjacency builds the undirected adjacency list for hop-distance
// computation. Edge direction carries semantics for rendering but not for
// reachability.
func BuildAdjacency(edges []entities.GraphEdge) Adjacency {
	adj := make(Adjacency, len(edges))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}
	return adj
}

// HopDistances computes the minimum hop distance from the seed set to every
// node via multi-source BFS. All seeds are enqueued at distance 0; a node is
// assigned a distance the first time it is reached and never re-enqueued, so
// the result is independent of iteration order.
//
// An empty seed set is the "no anchor, show everything" mode: every node is
// assigned distance 0. That is distinct from all nodes being Unreachable.
func HopDistances(nodeIDs []string, adj Adjacency, seedIDs map[string]struct{}) map[string]int {
	distances := make(map[string]int, len(nodeIDs))

	if len(seedIDs) == 0 {
		for _, id := range nodeIDs {
			distances[id] = 0
		}
		return distances
	}

	for _, id := range nodeIDs {
		distances[id] = Unreachable
	}

	queue := make([]string, 0, len(seedIDs))
	for _, id := range nodeIDs {
		if _, ok := seedIDs[id]; ok {
			distances[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adj[current] {
			existing, known := distances[neighbor]
			if !known {
				// Edge endpoint outside the node set; ignore.
				continue
			}
			if existing != Unreachable {
				continue
			}
			distances[neighbor] = distances[current] + 1
			queue = append(queue, neighbor)
		}
	}

	return distances
}
