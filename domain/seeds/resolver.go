package seeds

import "strings"

// Candidate is the slice of node state the resolver needs
type Candidate struct {
	ID          string
	Label       string
	DirectMatch bool
}

// Strategy resolves one matched-entity identifier to zero or more node ids
type Strategy interface {
	Name() string
	Resolve(identifier string, candidates []Candidate) []string
}

// Resolver turns caller-supplied matched-entity identifiers into the seed
// set. Strategies are tried in order and the first non-empty result wins;
// identifiers no strategy can place degrade silently to a smaller seed set.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates the default resolution pipeline:
// exact node id, then direct-match flagged nodes, then case-insensitive label.
func NewResolver() *Resolver {
	return &Resolver{
		strategies: []Strategy{
			exactIDStrategy{},
			directMatchStrategy{},
			labelMatchStrategy{},
		},
	}
}

// Resolve maps every identifier through the pipeline and returns the merged
// seed id set plus the identifiers that resolved to nothing.
func (r *Resolver) Resolve(identifiers []string, candidates []Candidate) (map[string]struct{}, []string) {
	seedIDs := make(map[string]struct{})
	var unresolved []string

	for _, identifier := range identifiers {
		resolved := r.resolveOne(identifier, candidates)
		if len(resolved) == 0 {
			unresolved = append(unresolved, identifier)
			continue
		}
		for _, id := range resolved {
			seedIDs[id] = struct{}{}
		}
	}

	return seedIDs, unresolved
}

func (r *Resolver) resolveOne(identifier string, candidates []Candidate) []string {
	for _, strategy := range r.strategies {
		if ids := strategy.Resolve(identifier, candidates); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

type exactIDStrategy struct{}

func (exactIDStrategy) Name() string { return "exact_id" }

func (exactIDStrategy) Resolve(identifier string, candidates []Candidate) []string {
	for _, c := range candidates {
		if c.ID == identifier {
			return []string{c.ID}
		}
	}
	return nil
}

type directMatchStrategy struct{}

func (directMatchStrategy) Name() string { return "direct_match" }

func (directMatchStrategy) Resolve(identifier string, candidates []Candidate) []string {
	var ids []string
	for _, c := range candidates {
		if !c.DirectMatch {
			continue
		}
		if strings.EqualFold(c.ID, identifier) || strings.EqualFold(c.Label, identifier) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

type labelMatchStrategy struct{}

func (labelMatchStrategy) Name() string { return "label_fold" }

func (labelMatchStrategy) Resolve(identifier string, candidates []Candidate) []string {
	var ids []string
	for _, c := range candidates {
		if strings.EqualFold(c.Label, identifier) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
