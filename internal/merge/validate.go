package merge

// Validator runs the independent well-formedness checks over a Universe.
// Every check reports through a Reporter and never stops the others.
type Validator struct {
	symbols       *SymbolTable
	checkIncludes bool
}

// NewValidator returns a Validator reading symbol metadata from symbols. When
// checkIncludes is set, the explicit includes, sub-members and excludes of a
// request must be modules too.
func NewValidator(symbols *SymbolTable, checkIncludes bool) *Validator {
	return &Validator{symbols: symbols, checkIncludes: checkIncludes}
}

// CheckDeclarations reports every declaration that carries both the merge
// annotation and the plain module marker.
func (v *Validator) CheckDeclarations(r *Reporter) {
	for _, ref := range v.symbols.Refs() {
		sym, _ := v.symbols.Symbol(ref)
		if sym.External {
			continue
		}
		v.checkConflict(sym, r)
	}
}

func (v *Validator) checkConflict(sym Symbol, r *Reporter) bool {
	if !sym.Merge || !sym.Module {
		return true
	}
	r.Errorf(KindConflictingAnnotations, sym.Location,
		"%s cannot be annotated with @MergeModules and @Module at the same time.", sym.Name)
	return false
}

// CheckContribution validates a single contribution. It returns false when
// the contributed member must not take part in any merge.
func (v *Validator) CheckContribution(c Contribution, r *Reporter) bool {
	ok := true
	sym, _ := v.symbols.Symbol(c.Member)
	name := v.symbols.Name(c.Member)

	if !sym.Module {
		r.Errorf(KindInvalidContribution, c.Location,
			"%s is annotated with @ContributesTo, but is not a module.", name)
		ok = false
	}
	if sym.Visibility != VisibilityPublic {
		vis := sym.Visibility
		if vis == "" {
			vis = "unknown"
		}
		r.Errorf(KindInvalidContribution, c.Location,
			"%s is contributed to the scope %s and must be public, but is %s.",
			name, v.symbols.ScopeName(c.Scope), vis)
		ok = false
	}

	for _, target := range c.Replaces {
		if target == c.Member {
			r.Warnf(KindSelfReplacement, c.Location, "%s lists itself in replaces; ignored.", name)
			continue
		}
		if !v.symbols.IsModule(target) {
			r.Errorf(KindInvalidReplaceTarget, c.Location,
				"%s wants to replace %s, but the replaced class is not a module.",
				name, v.symbols.Name(target))
		}
	}
	return ok
}

// CheckCycles reports every group of contributions in one scope that replace
// each other, directly or transitively. The diagnostic points at the first
// contribution of the group in discovery order.
func (v *Validator) CheckCycles(idx *Index, r *Reporter) []*CycleError {
	var found []*CycleError
	for _, scope := range idx.Scopes() {
		contributions := idx.Lookup(scope)

		g := newReplaceGraph()
		first := make(map[MemberRef]Location)
		for _, c := range contributions {
			g.addNode(c.Member)
			if _, ok := first[c.Member]; !ok {
				first[c.Member] = c.Location
			}
		}
		for _, c := range contributions {
			for _, target := range c.Replaces {
				if target != c.Member {
					g.addEdge(c.Member, target)
				}
			}
		}

		for _, comp := range g.cycles() {
			cerr := &CycleError{Scope: v.symbols.ScopeName(scope)}
			for _, ref := range comp {
				cerr.Cycle = append(cerr.Cycle, v.symbols.Name(ref))
			}
			r.Errorf(KindReplaceCycle, first[comp[0]], "%s", cerr.Error())
			found = append(found, cerr)
		}
	}
	return found
}

// CheckRequest validates a merge request. It returns false when the request's
// own declaration must not be generated.
func (v *Validator) CheckRequest(req MergeRequest, r *Reporter) bool {
	ok := true
	if sym, found := v.symbols.Symbol(req.Target); found {
		ok = v.checkConflict(sym, r)
	}
	if !v.checkIncludes {
		return ok
	}

	target := v.symbols.Name(req.Target)
	check := func(verb string, refs []MemberRef) {
		for _, ref := range refs {
			if v.symbols.IsModule(ref) {
				continue
			}
			r.Errorf(KindInvalidInclude, req.Location, "%s %s %s, which is not a module.",
				target, verb, v.symbols.Name(ref))
			ok = false
		}
	}
	check("includes", req.ExplicitIncludes)
	check("lists subcomponent", req.ExplicitSubMembers)
	check("excludes", req.ExplicitExcludes)
	return ok
}
