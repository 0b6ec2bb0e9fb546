// Package ports defines the application's outbound interfaces.
package ports

import "context"

// ExpansionRequest is the wire contract sent to the concept expansion
// service: a concept name plus optional free-text context (typically the
// anchor claim that seeded the session).
type ExpansionRequest struct {
	ConceptName             string `json:"conceptName" validate:"required"`
	ConceptContext          string `json:"conceptContext,omitempty"`
	MaxSourceResults        int    `json:"maxSourceResults" validate:"gte=1,lte=50"`
	IncludeCounterArguments bool   `json:"includeCounterArguments"`
	IncludeCrossDomain      bool   `json:"includeCrossDomain"`
}

// RelatedConcept is one concept the oracle linked to the expanded one
type RelatedConcept struct {
	Name          string   `json:"name" validate:"required"`
	Type          string   `json:"type,omitempty"`
	Relationship  string   `json:"relationship,omitempty"`
	EvidenceQuote string   `json:"evidenceQuote,omitempty"`
	PaperID       string   `json:"paperId,omitempty"`
	PaperTitle    string   `json:"paperTitle,omitempty"`
	Section       string   `json:"section,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

// SupportingEvidence is one corpus finding that supports the expanded concept
type SupportingEvidence struct {
	Finding    string `json:"finding" validate:"required"`
	PaperID    string `json:"paperId,omitempty"`
	PaperTitle string `json:"paperTitle,omitempty"`
	Section    string `json:"section,omitempty"`
	Quote      string `json:"quote,omitempty"`
}

// CounterArgument is one corpus finding that cuts against the expanded concept
type CounterArgument struct {
	Argument       string `json:"argument" validate:"required"`
	PaperID        string `json:"paperId,omitempty"`
	PaperTitle     string `json:"paperTitle,omitempty"`
	LimitationType string `json:"limitationType,omitempty"`
}

// CrossDomainConnection links the expanded concept into another field
type CrossDomainConnection struct {
	Domain        string `json:"domain,omitempty"`
	Concept       string `json:"concept" validate:"required"`
	Connection    string `json:"connection,omitempty"`
	PaperID       string `json:"paperId,omitempty"`
	EvidenceQuote string `json:"evidenceQuote,omitempty"`
}

// ExpansionResponse is the oracle's answer. Any category may be empty or
// missing; that is a legitimate terminal state, not an error.
type ExpansionResponse struct {
	RelatedConcepts    []RelatedConcept        `json:"relatedConcepts,omitempty"`
	SupportingEvidence []SupportingEvidence    `json:"supportingEvidence,omitempty"`
	CounterArguments   []CounterArgument       `json:"counterArguments,omitempty"`
	CrossDomain        []CrossDomainConnection `json:"crossDomain,omitempty"`
	AnalysisNotes      string                  `json:"analysisNotes,omitempty"`
}

// IsEmpty reports whether the response carries no new entities at all
func (r *ExpansionResponse) IsEmpty() bool {
	return len(r.RelatedConcepts) == 0 &&
		len(r.SupportingEvidence) == 0 &&
		len(r.CounterArguments) == 0 &&
		len(r.CrossDomain) == 0
}

// ConceptExpander is the port to the remote concept expansion oracle
type ConceptExpander interface {
	Expand(ctx context.Context, req ExpansionRequest) (*ExpansionResponse, error)
}
