package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidates() []Candidate {
	return []Candidate{
		{ID: "bioelectric_signaling", Label: "Bioelectric Signaling", DirectMatch: true},
		{ID: "gap_junction", Label: "Gap Junction"},
		{ID: "planaria", Label: "Planaria", DirectMatch: true},
		{ID: "vmem", Label: "Membrane Voltage"},
	}
}

func TestResolve_ExactIDWins(t *testing.T) {
	resolver := NewResolver()

	seedIDs, unresolved := resolver.Resolve([]string{"gap_junction"}, candidates())

	assert.Empty(t, unresolved)
	assert.Len(t, seedIDs, 1)
	assert.Contains(t, seedIDs, "gap_junction")
}

func TestResolve_DirectMatchByLabelFold(t *testing.T) {
	resolver := NewResolver()

	seedIDs, unresolved := resolver.Resolve([]string{"bioelectric signaling"}, candidates())

	assert.Empty(t, unresolved)
	assert.Contains(t, seedIDs, "bioelectric_signaling")
}

func TestResolve_LabelFoldFallback(t *testing.T) {
	resolver := NewResolver()

	// Not an id, not direct-match flagged; only the label strategy places it.
	seedIDs, unresolved := resolver.Resolve([]string{"membrane voltage"}, candidates())

	assert.Empty(t, unresolved)
	assert.Contains(t, seedIDs, "vmem")
}

func TestResolve_UnresolvedDegradesSilently(t *testing.T) {
	resolver := NewResolver()

	seedIDs, unresolved := resolver.Resolve(
		[]string{"planaria", "xenobot"}, candidates())

	assert.Equal(t, []string{"xenobot"}, unresolved)
	assert.Len(t, seedIDs, 1)
	assert.Contains(t, seedIDs, "planaria")
}

func TestResolve_MergesAcrossIdentifiers(t *testing.T) {
	resolver := NewResolver()

	seedIDs, unresolved := resolver.Resolve(
		[]string{"planaria", "gap_junction", "Planaria"}, candidates())

	assert.Empty(t, unresolved)
	assert.Len(t, seedIDs, 2)
}

func TestResolve_NoIdentifiersYieldsEmptySeedSet(t *testing.T) {
	resolver := NewResolver()

	seedIDs, unresolved := resolver.Resolve(nil, candidates())

	assert.Empty(t, seedIDs)
	assert.Empty(t, unresolved)
}
