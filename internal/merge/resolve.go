package merge

// Resolve computes the members emitted for req from the contributions indexed
// under req.Scope. Precedence, strongest first:
//
//   - an explicit include is always present;
//   - an explicit exclude removes a scope contribution;
//   - a replaces entry removes a scope contribution.
//
// Scope contributions come first in discovery order, followed by explicit
// includes that were not already present, in request order. Sub-members are
// copied from the request. Resolve never fails; whether the result may be
// emitted is decided by validation.
func Resolve(req MergeRequest, idx *Index) ResolvedSet {
	candidates := idx.Lookup(req.Scope)
	includes := NewOrderedSet(req.ExplicitIncludes...)
	excludes := NewOrderedSet(req.ExplicitExcludes...).Filter(func(ref MemberRef) bool {
		return !includes.Contains(ref)
	})

	// An excluded contribution does not get to replace anything.
	replaced := &OrderedSet[MemberRef]{}
	for _, c := range candidates {
		if excludes.Contains(c.Member) {
			continue
		}
		for _, target := range c.Replaces {
			if target == c.Member {
				continue
			}
			replaced.Add(target)
		}
	}

	resolved := &OrderedSet[MemberRef]{}
	for _, c := range candidates {
		if replaced.Contains(c.Member) && !includes.Contains(c.Member) {
			continue
		}
		if excludes.Contains(c.Member) {
			continue
		}
		resolved.Add(c.Member)
	}
	for _, ref := range includes.Items() {
		resolved.Add(ref)
	}

	return ResolvedSet{
		Includes:   resolved.Items(),
		SubMembers: NewOrderedSet(req.ExplicitSubMembers...).Items(),
	}
}
