package entities

// NodeType classifies what a graph node represents
type NodeType string

const (
	NodeTypeConcept         NodeType = "concept"
	NodeTypeEvidence        NodeType = "evidence"
	NodeTypeCounterArgument NodeType = "counter_argument"
	NodeTypeCrossDomain     NodeType = "cross_domain"
	NodeTypeOrganism        NodeType = "organism"
	NodeTypeTechnique       NodeType = "technique"
	NodeTypeMolecule        NodeType = "molecule"
	NodeTypeGene            NodeType = "gene"
	NodeTypeProcess         NodeType = "process"
	NodeTypePhenomenon      NodeType = "phenomenon"
)

// IsValid reports whether the node type is one of the known values
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeConcept, NodeTypeEvidence, NodeTypeCounterArgument,
		NodeTypeCrossDomain, NodeTypeOrganism, NodeTypeTechnique,
		NodeTypeMolecule, NodeTypeGene, NodeTypeProcess, NodeTypePhenomenon:
		return true
	}
	return false
}

// ExpansionState is the per-node expansion state machine.
// Collapsed -> Expanding -> Expanded on success; Expanding -> Collapsed on
// failure (retryable). Expanded is terminal for the session.
type ExpansionState string

const (
	ExpansionCollapsed ExpansionState = "collapsed"
	ExpansionExpanding ExpansionState = "expanding"
	ExpansionExpanded  ExpansionState = "expanded"
)

// ClaimRole describes how a node relates to the anchor claim
type ClaimRole string

const (
	ClaimRoleConcept           ClaimRole = "claim_concept"
	ClaimRoleTechnique         ClaimRole = "experimental_technique"
	ClaimRoleMechanism         ClaimRole = "mechanism"
	ClaimRoleSupportingContext ClaimRole = "supporting_context"
)

// PaperReference points at a passage in the document corpus
type PaperReference struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Section string `json:"section,omitempty"`
}

// GraphNode is one concept, evidence item, counter-argument or cross-domain
// connection in the exploration graph. Nodes are merged first-write-wins and
// never mutated afterwards, except for the expansion state machine fields
// which only the owning session may touch.
type GraphNode struct {
	ID              string           `json:"id"`
	Label           string           `json:"label"`
	Type            NodeType         `json:"type"`
	Description     string           `json:"description,omitempty"`
	PaperReferences []PaperReference `json:"paperReferences,omitempty"`
	ExpansionState  ExpansionState   `json:"expansionState"`
	IsDirectMatch   bool             `json:"isDirectMatch,omitempty"`
	RelevanceNote   string           `json:"relevanceNote,omitempty"`
	ClaimRole       ClaimRole        `json:"claimRole,omitempty"`
	Confidence      *float64         `json:"confidence,omitempty"`

	// LastError holds the most recent expansion failure for this node,
	// surfaced to the caller and cleared on the next successful expansion.
	LastError string `json:"lastError,omitempty"`
}

// NewGraphNode creates a collapsed node with the minimum required fields
func NewGraphNode(id, label string, nodeType NodeType) GraphNode {
	return GraphNode{
		ID:             id,
		Label:          label,
		Type:           nodeType,
		ExpansionState: ExpansionCollapsed,
	}
}

// Clone returns a deep copy of the node
func (n GraphNode) Clone() GraphNode {
	clone := n
	if n.PaperReferences != nil {
		clone.PaperReferences = make([]PaperReference, len(n.PaperReferences))
		copy(clone.PaperReferences, n.PaperReferences)
	}
	if n.Confidence != nil {
		c := *n.Confidence
		clone.Confidence = &c
	}
	return clone
}

// CanExpand reports whether an expansion may be started for this node
func (n GraphNode) CanExpand() bool {
	return n.ExpansionState == ExpansionCollapsed
}
