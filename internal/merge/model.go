package merge

// Contribution registers Member with Scope, optionally replacing other
// contributions of the same scope. A member contributing to the same scope
// twice produces two Contributions; duplicates collapse at resolution.
type Contribution struct {
	Member   MemberRef
	Scope    ScopeID
	Replaces []MemberRef
	// Location points at the contributing declaration's identifier.
	Location Location
}

// MergeRequest asks for the composite of every contribution to Scope,
// refined by explicit includes and excludes. ExplicitSubMembers are emitted
// separately and never take part in replace or exclude logic.
type MergeRequest struct {
	Target             MemberRef
	Scope              ScopeID
	ExplicitIncludes   []MemberRef
	ExplicitSubMembers []MemberRef
	ExplicitExcludes   []MemberRef
	// Location points at the requesting declaration's identifier.
	Location Location
}

// ResolvedSet is the ordered, deduplicated result of resolving a MergeRequest.
type ResolvedSet struct {
	Includes   []MemberRef
	SubMembers []MemberRef
}

// Empty reports whether the set has neither includes nor sub-members.
func (r ResolvedSet) Empty() bool {
	return len(r.Includes) == 0 && len(r.SubMembers) == 0
}

// Universe is the fully parsed input of one compilation pass.
type Universe struct {
	Symbols       *SymbolTable
	Contributions []Contribution
	Requests      []MergeRequest
	// Diagnostics are problems found while building the Universe. Run
	// reports them alongside its own.
	Diagnostics []Diagnostic
}

// NewUniverse returns a Universe with an empty symbol table.
func NewUniverse() *Universe {
	return &Universe{Symbols: NewSymbolTable()}
}

// Contribute appends a contribution and returns it.
func (u *Universe) Contribute(member MemberRef, scope ScopeID, replaces ...MemberRef) Contribution {
	c := Contribution{Member: member, Scope: scope, Replaces: replaces}
	if sym, ok := u.Symbols.Symbol(member); ok {
		c.Location = sym.Location
	}
	u.Contributions = append(u.Contributions, c)
	return c
}

// Request appends a merge request and returns it.
func (u *Universe) Request(req MergeRequest) MergeRequest {
	if req.Location == (Location{}) {
		if sym, ok := u.Symbols.Symbol(req.Target); ok {
			req.Location = sym.Location
		}
	}
	u.Requests = append(u.Requests, req)
	return req
}
