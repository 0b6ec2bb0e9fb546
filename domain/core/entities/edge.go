package entities

import "fmt"

// Relationship is the semantic type of a graph edge
type Relationship string

const (
	RelRegulates      Relationship = "regulates"
	RelEnables        Relationship = "enables"
	RelDisrupts       Relationship = "disrupts"
	RelPrecedes       Relationship = "precedes"
	RelCorrelatesWith Relationship = "correlates_with"
	RelRequiredFor    Relationship = "required_for"
	RelInhibits       Relationship = "inhibits"
	RelActivates      Relationship = "activates"
	RelProduces       Relationship = "produces"
	RelExpressedIn    Relationship = "expressed_in"
	RelInteractsWith  Relationship = "interacts_with"
	RelPartOf         Relationship = "part_of"
	RelMeasuredBy     Relationship = "measured_by"
	RelSupports       Relationship = "supports"
	RelContradicts    Relationship = "contradicts"
	RelExtends        Relationship = "extends"
)

// IsValid reports whether the relationship is one of the known values
func (r Relationship) IsValid() bool {
	switch r {
	case RelRegulates, RelEnables, RelDisrupts, RelPrecedes, RelCorrelatesWith,
		RelRequiredFor, RelInhibits, RelActivates, RelProduces, RelExpressedIn,
		RelInteractsWith, RelPartOf, RelMeasuredBy, RelSupports,
		RelContradicts, RelExtends:
		return true
	}
	return false
}

// GraphEdge connects two nodes with a typed relationship. Edge ids are
// derived from (from, to, sequence) so parallel edges with different
// semantics can coexist while re-merges of the same edge stay idempotent.
type GraphEdge struct {
	ID            string       `json:"id"`
	From          string       `json:"from"`
	To            string       `json:"to"`
	Relationship  Relationship `json:"relationship"`
	Label         string       `json:"label,omitempty"`
	EvidenceQuote string       `json:"evidenceQuote,omitempty"`
	Confidence    *float64     `json:"confidence,omitempty"`
	SourcePaperID string       `json:"sourcePaperId,omitempty"`
}

// EdgeID derives a stable edge identifier from its endpoints and a
// parallel-edge sequence number
func EdgeID(from, to string, sequence int) string {
	return fmt.Sprintf("%s->%s#%d", from, to, sequence)
}

// Clone returns a deep copy of the edge
func (e GraphEdge) Clone() GraphEdge {
	clone := e
	if e.Confidence != nil {
		c := *e.Confidence
		clone.Confidence = &c
	}
	return clone
}
