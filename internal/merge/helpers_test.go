package merge

// fixture builds Universes with predictable locations: every declaration
// lands on its own line of Source.java.
type fixture struct {
	u    *Universe
	line int
}

func newFixture() *fixture {
	return &fixture{u: NewUniverse()}
}

func (f *fixture) declare(sym Symbol) MemberRef {
	f.line++
	if sym.Location == (Location{}) {
		sym.Location = Location{File: "Source.java", Line: f.line, Column: 14}
	}
	if sym.Visibility == "" {
		sym.Visibility = VisibilityPublic
	}
	return f.u.Symbols.Declare(sym)
}

// module declares a public module.
func (f *fixture) module(name string) MemberRef {
	return f.declare(Symbol{Name: name, Module: true})
}

// scope declares a plain public type used as a scope key.
func (f *fixture) scope(name string) ScopeID {
	return ScopeOf(f.declare(Symbol{Name: name}))
}

func (f *fixture) merge(name string) MemberRef {
	return f.declare(Symbol{Name: name, Merge: true})
}

func (f *fixture) names(refs []MemberRef) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = f.u.Symbols.Name(ref)
	}
	return out
}
