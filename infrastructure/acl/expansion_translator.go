// Package acl is the anti-corruption layer between the concept expansion
// service's wire format and the domain graph entities.
package acl

import (
	"strings"

	"go.uber.org/zap"

	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/domain/core/entities"
)

// maxSlugLength caps node ids derived from long evidence findings
const maxSlugLength = 64

// ExpansionTranslator turns oracle responses into graph nodes and edges.
// Node ids are deterministic slugs of entity names, so re-expansion and
// cross-expansion dedupe naturally through the store's idempotent merge.
type ExpansionTranslator struct {
	logger *zap.Logger
}

// NewExpansionTranslator creates a translator
func NewExpansionTranslator(logger *zap.Logger) *ExpansionTranslator {
	return &ExpansionTranslator{logger: logger}
}

// Translate partitions a response into its four categories and emits one
// node plus one edge per entry. Direction and relationship encode the
// category: evidence points "supports" at the expanded node, counter-
// arguments point "contradicts" at it, cross-domain connections run
// "extends" outward from it, and related concepts use the oracle-supplied
// relationship outward.
func (t *ExpansionTranslator) Translate(expanded entities.GraphNode, resp *ports.ExpansionResponse) ([]entities.GraphNode, []entities.GraphEdge) {
	var nodes []entities.GraphNode
	var edges []entities.GraphEdge
	seq := make(map[string]int)

	addEdge := func(edge entities.GraphEdge) {
		key := edge.From + "|" + edge.To
		edge.ID = entities.EdgeID(edge.From, edge.To, seq[key])
		seq[key]++
		edges = append(edges, edge)
	}

	for _, rc := range resp.RelatedConcepts {
		id := Slug(rc.Name)
		if id == "" {
			t.logger.Debug("skipping related concept with empty name")
			continue
		}

		node := entities.NewGraphNode(id, rc.Name, conceptType(rc.Type))
		node.Confidence = rc.Confidence
		if rc.PaperID != "" {
			node.PaperReferences = []entities.PaperReference{{
				PaperID: rc.PaperID,
				Title:   rc.PaperTitle,
				Excerpt: rc.EvidenceQuote,
				Section: rc.Section,
			}}
		}
		nodes = append(nodes, node)

		addEdge(entities.GraphEdge{
			From:          expanded.ID,
			To:            id,
			Relationship:  conceptRelationship(rc.Relationship),
			Label:         rc.Relationship,
			EvidenceQuote: rc.EvidenceQuote,
			Confidence:    rc.Confidence,
			SourcePaperID: rc.PaperID,
		})
	}

	for _, ev := range resp.SupportingEvidence {
		id := Slug(ev.Finding)
		if id == "" {
			continue
		}

		node := entities.NewGraphNode(id, ev.Finding, entities.NodeTypeEvidence)
		if ev.PaperID != "" {
			node.PaperReferences = []entities.PaperReference{{
				PaperID: ev.PaperID,
				Title:   ev.PaperTitle,
				Excerpt: ev.Quote,
				Section: ev.Section,
			}}
		}
		nodes = append(nodes, node)

		addEdge(entities.GraphEdge{
			From:          id,
			To:            expanded.ID,
			Relationship:  entities.RelSupports,
			Label:         "supports",
			EvidenceQuote: ev.Quote,
			SourcePaperID: ev.PaperID,
		})
	}

	for _, ca := range resp.CounterArguments {
		id := Slug(ca.Argument)
		if id == "" {
			continue
		}

		node := entities.NewGraphNode(id, ca.Argument, entities.NodeTypeCounterArgument)
		node.RelevanceNote = ca.LimitationType
		if ca.PaperID != "" {
			node.PaperReferences = []entities.PaperReference{{
				PaperID: ca.PaperID,
				Title:   ca.PaperTitle,
			}}
		}
		nodes = append(nodes, node)

		addEdge(entities.GraphEdge{
			From:          id,
			To:            expanded.ID,
			Relationship:  entities.RelContradicts,
			Label:         "contradicts",
			SourcePaperID: ca.PaperID,
		})
	}

	for _, cd := range resp.CrossDomain {
		id := Slug(cd.Concept)
		if id == "" {
			continue
		}

		node := entities.NewGraphNode(id, cd.Concept, entities.NodeTypeCrossDomain)
		node.Description = cd.Connection
		node.RelevanceNote = cd.Domain
		if cd.PaperID != "" {
			node.PaperReferences = []entities.PaperReference{{
				PaperID: cd.PaperID,
				Excerpt: cd.EvidenceQuote,
			}}
		}
		nodes = append(nodes, node)

		addEdge(entities.GraphEdge{
			From:          expanded.ID,
			To:            id,
			Relationship:  entities.RelExtends,
			Label:         "extends",
			EvidenceQuote: cd.EvidenceQuote,
			SourcePaperID: cd.PaperID,
		})
	}

	return nodes, edges
}

// conceptType maps an oracle type string onto the domain enum, defaulting
// to concept for anything unrecognized
func conceptType(raw string) entities.NodeType {
	t := entities.NodeType(strings.ToLower(strings.TrimSpace(raw)))
	if t.IsValid() {
		return t
	}
	return entities.NodeTypeConcept
}

// conceptRelationship maps an oracle relationship string onto the domain
// enum, defaulting to correlates_with for anything unrecognized
func conceptRelationship(raw string) entities.Relationship {
	r := entities.Relationship(strings.ToLower(strings.TrimSpace(raw)))
	if r.IsValid() {
		return r
	}
	return entities.RelCorrelatesWith
}

// Slug derives a stable node id from an entity name: lowercase, runs of
// non-alphanumerics collapsed to single underscores, capped in length.
func Slug(name string) string {
	var b strings.Builder
	lastUnderscore := true // trims leading separators

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}

	return strings.TrimRight(b.String(), "_")
}
