package merge

// Index groups contributions by scope. It is built once per compilation pass
// and never mutated afterwards, so any number of resolvers may read it
// concurrently.
type Index struct {
	byScope map[ScopeID][]Contribution
	scopes  []ScopeID
	total   int
}

// BuildIndex groups contributions by scope, preserving discovery order within
// each scope and the order in which scopes were first seen.
func BuildIndex(contributions []Contribution) *Index {
	idx := &Index{byScope: make(map[ScopeID][]Contribution)}
	for _, c := range contributions {
		if _, ok := idx.byScope[c.Scope]; !ok {
			idx.scopes = append(idx.scopes, c.Scope)
		}
		c.Replaces = cloneRefs(c.Replaces)
		idx.byScope[c.Scope] = append(idx.byScope[c.Scope], c)
		idx.total++
	}
	return idx
}

// Lookup returns the contributions to scope in discovery order. The returned
// slice is a copy.
func (idx *Index) Lookup(scope ScopeID) []Contribution {
	if idx == nil {
		return nil
	}
	src := idx.byScope[scope]
	if len(src) == 0 {
		return nil
	}
	out := make([]Contribution, len(src))
	for i, c := range src {
		c.Replaces = cloneRefs(c.Replaces)
		out[i] = c
	}
	return out
}

// Scopes returns every scope with at least one contribution, in first-seen
// order.
func (idx *Index) Scopes() []ScopeID {
	if idx == nil || len(idx.scopes) == 0 {
		return nil
	}
	out := make([]ScopeID, len(idx.scopes))
	copy(out, idx.scopes)
	return out
}

// Len returns the total number of indexed contributions.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.total
}

func cloneRefs(refs []MemberRef) []MemberRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]MemberRef, len(refs))
	copy(out, refs)
	return out
}
