package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/domain/core/entities"
)

func expandedNode() entities.GraphNode {
	return entities.NewGraphNode("vmem", "Membrane Voltage", entities.NodeTypeConcept)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "gap_junction", Slug("Gap Junction"))
	assert.Equal(t, "v_mem_gradients", Slug("  V-mem gradients!  "))
	assert.Equal(t, "hcn2", Slug("HCN2"))
	assert.Equal(t, "", Slug("---"))
	assert.Equal(t, Slug("Gap Junction"), Slug("gap junction"))
	long := Slug("a very long finding about depolarization propagating across the blastema over many hours")
	assert.LessOrEqual(t, len(long), 64)
}

func TestTranslate_RelatedConceptRunsOutward(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())
	confidence := 0.92

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		RelatedConcepts: []ports.RelatedConcept{{
			Name:          "Gap Junction",
			Type:          "molecule",
			Relationship:  "regulates",
			EvidenceQuote: "gap junctions couple Vmem domains",
			PaperID:       "p1",
			PaperTitle:    "Bioelectric networks",
			Confidence:    &confidence,
		}},
	})

	require.Len(t, nodes, 1)
	assert.Equal(t, "gap_junction", nodes[0].ID)
	assert.Equal(t, entities.NodeTypeMolecule, nodes[0].Type)
	assert.Equal(t, entities.ExpansionCollapsed, nodes[0].ExpansionState)
	require.Len(t, nodes[0].PaperReferences, 1)
	assert.Equal(t, "p1", nodes[0].PaperReferences[0].PaperID)

	require.Len(t, edges, 1)
	assert.Equal(t, "vmem", edges[0].From)
	assert.Equal(t, "gap_junction", edges[0].To)
	assert.Equal(t, entities.RelRegulates, edges[0].Relationship)
}

func TestTranslate_EvidencePointsAtExpandedNode(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		SupportingEvidence: []ports.SupportingEvidence{{
			Finding: "Depolarization precedes head regeneration",
			PaperID: "p2",
			Quote:   "observed in planaria",
		}},
	})

	require.Len(t, nodes, 1)
	assert.Equal(t, entities.NodeTypeEvidence, nodes[0].Type)

	require.Len(t, edges, 1)
	assert.Equal(t, nodes[0].ID, edges[0].From)
	assert.Equal(t, "vmem", edges[0].To)
	assert.Equal(t, entities.RelSupports, edges[0].Relationship)
}

func TestTranslate_CounterArgumentContradicts(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		CounterArguments: []ports.CounterArgument{{
			Argument:       "Effect not replicated in amphibians",
			LimitationType: "species_specificity",
		}},
	})

	require.Len(t, nodes, 1)
	assert.Equal(t, entities.NodeTypeCounterArgument, nodes[0].Type)
	assert.Equal(t, "species_specificity", nodes[0].RelevanceNote)

	require.Len(t, edges, 1)
	assert.Equal(t, "vmem", edges[0].To)
	assert.Equal(t, entities.RelContradicts, edges[0].Relationship)
}

func TestTranslate_CrossDomainExtendsOutward(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		CrossDomain: []ports.CrossDomainConnection{{
			Domain:     "developmental biology",
			Concept:    "Left-right asymmetry",
			Connection: "same ion-flux machinery",
		}},
	})

	require.Len(t, nodes, 1)
	assert.Equal(t, entities.NodeTypeCrossDomain, nodes[0].Type)
	assert.Equal(t, "developmental biology", nodes[0].RelevanceNote)

	require.Len(t, edges, 1)
	assert.Equal(t, "vmem", edges[0].From)
	assert.Equal(t, entities.RelExtends, edges[0].Relationship)
}

func TestTranslate_UnknownEnumsFallBack(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		RelatedConcepts: []ports.RelatedConcept{{
			Name:         "Something",
			Type:         "galaxy",
			Relationship: "orbits",
		}},
	})

	require.Len(t, nodes, 1)
	assert.Equal(t, entities.NodeTypeConcept, nodes[0].Type)
	require.Len(t, edges, 1)
	assert.Equal(t, entities.RelCorrelatesWith, edges[0].Relationship)
	// The raw oracle wording survives as the display label.
	assert.Equal(t, "orbits", edges[0].Label)
}

func TestTranslate_ParallelEdgesGetDistinctIDs(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	_, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		RelatedConcepts: []ports.RelatedConcept{
			{Name: "Gap Junction", Relationship: "regulates"},
			{Name: "Gap-Junction", Relationship: "inhibits"},
		},
	})

	require.Len(t, edges, 2)
	assert.Equal(t, entities.EdgeID("vmem", "gap_junction", 0), edges[0].ID)
	assert.Equal(t, entities.EdgeID("vmem", "gap_junction", 1), edges[1].ID)
}

func TestTranslate_IsDeterministic(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())
	resp := &ports.ExpansionResponse{
		RelatedConcepts:    []ports.RelatedConcept{{Name: "Gap Junction"}},
		SupportingEvidence: []ports.SupportingEvidence{{Finding: "Some finding"}},
	}

	nodesA, edgesA := translator.Translate(expandedNode(), resp)
	nodesB, edgesB := translator.Translate(expandedNode(), resp)

	assert.Equal(t, nodesA, nodesB)
	assert.Equal(t, edgesA, edgesB)
}

func TestTranslate_SkipsEmptyNames(t *testing.T) {
	translator := NewExpansionTranslator(zap.NewNop())

	nodes, edges := translator.Translate(expandedNode(), &ports.ExpansionResponse{
		RelatedConcepts:  []ports.RelatedConcept{{Name: "   "}},
		CounterArguments: []ports.CounterArgument{{Argument: "!!!"}},
	})

	assert.Empty(t, nodes)
	assert.Empty(t, edges)
}
