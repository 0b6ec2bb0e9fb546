package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conceptgraph-backend/domain/core/entities"
)

func edge(from, to string) entities.GraphEdge {
	return entities.GraphEdge{
		ID:           entities.EdgeID(from, to, 0),
		From:         from,
		To:           to,
		Relationship: entities.RelCorrelatesWith,
	}
}

func seeds(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestHopDistances_Path(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	adj := BuildAdjacency([]entities.GraphEdge{
		edge("a", "b"), edge("b", "c"), edge("c", "d"),
	})

	distances := HopDistances(nodes, adj, seeds("a"))

	assert.Equal(t, 0, distances["a"])
	assert.Equal(t, 1, distances["b"])
	assert.Equal(t, 2, distances["c"])
	assert.Equal(t, 3, distances["d"])
}

func TestHopDistances_MultiSourceTakesMinimum(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	adj := BuildAdjacency([]entities.GraphEdge{
		edge("a", "b"), edge("b", "c"), edge("c", "d"),
	})

	distances := HopDistances(nodes, adj, seeds("a", "d"))

	assert.Equal(t, 0, distances["a"])
	assert.Equal(t, 1, distances["b"])
	assert.Equal(t, 1, distances["c"])
	assert.Equal(t, 0, distances["d"])
}

func TestHopDistances_DirectionIsIgnored(t *testing.T) {
	// Both edges point away from b, yet b reaches both endpoints.
	nodes := []string{"a", "b", "c"}
	adj := BuildAdjacency([]entities.GraphEdge{
		edge("b", "a"), edge("b", "c"),
	})

	distances := HopDistances(nodes, adj, seeds("b"))

	assert.Equal(t, 1, distances["a"])
	assert.Equal(t, 0, distances["b"])
	assert.Equal(t, 1, distances["c"])
}

func TestHopDistances_DisconnectedComponentIsUnreachable(t *testing.T) {
	nodes := []string{"a", "b", "x", "y"}
	adj := BuildAdjacency([]entities.GraphEdge{
		edge("a", "b"), edge("x", "y"),
	})

	distances := HopDistances(nodes, adj, seeds("a"))

	assert.Equal(t, 0, distances["a"])
	assert.Equal(t, 1, distances["b"])
	assert.Equal(t, Unreachable, distances["x"])
	assert.Equal(t, Unreachable, distances["y"])
}

func TestHopDistances_EmptySeedSetShowsEverythingAtZero(t *testing.T) {
	nodes := []string{"a", "b", "x"}
	adj := BuildAdjacency([]entities.GraphEdge{edge("a", "b")})

	distances := HopDistances(nodes, adj, nil)

	for _, id := range nodes {
		assert.Equal(t, 0, distances[id], "node %s", id)
	}
}

func TestHopDistances_CycleTerminates(t *testing.T) {
	nodes := []string{"a", "b", "c"}
	adj := BuildAdjacency([]entities.GraphEdge{
		edge("a", "b"), edge("b", "c"), edge("c", "a"),
	})

	distances := HopDistances(nodes, adj, seeds("a"))

	assert.Equal(t, 0, distances["a"])
	assert.Equal(t, 1, distances["b"])
	assert.Equal(t, 1, distances["c"])
}

func TestHopDistances_EdgeEndpointOutsideNodeSetIsIgnored(t *testing.T) {
	nodes := []string{"a"}
	adj := BuildAdjacency([]entities.GraphEdge{edge("a", "ghost")})

	distances := HopDistances(nodes, adj, seeds("a"))

	assert.Len(t, distances, 1)
	assert.Equal(t, 0, distances["a"])
}
