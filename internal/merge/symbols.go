package merge

import "fmt"

// MemberRef identifies a declaration in a SymbolTable. Two refs are equal only
// when they point at the same table slot, so equality is symbol identity rather
// than name equality. The zero MemberRef is invalid.
type MemberRef uint32

// ScopeID identifies the symbol used as a merge scope.
type ScopeID uint32

// Valid reports whether r was issued by a SymbolTable.
func (r MemberRef) Valid() bool { return r != 0 }

// Valid reports whether s was issued by a SymbolTable.
func (s ScopeID) Valid() bool { return s != 0 }

// Location is a 1-based source position attached at parse time and forwarded
// unchanged into diagnostics.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// String renders the position the way diagnostics prefix their message.
func (l Location) String() string {
	return fmt.Sprintf("%s: (%d, %d)", l.File, l.Line, l.Column)
}

// Before orders locations by file, then line, then column.
func (l Location) Before(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Visibility is the declared visibility of a symbol.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityInternal  Visibility = "internal"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// Symbol is the metadata the validator needs about a declaration.
type Symbol struct {
	// Name is the qualified name used for display and for interning.
	Name       string
	Location   Location
	Visibility Visibility
	// Module is set when the declaration carries the plain "is a module" marker.
	Module bool
	// Merge is set when the declaration carries the merge-request annotation.
	Merge bool
	// External marks types referenced by name but not declared in the sources.
	External bool
}

// SymbolTable is an arena of symbols. It is populated once by a front end and
// treated as read-only afterwards; refs are indices into the arena.
type SymbolTable struct {
	symbols []Symbol
	byName  map[string]MemberRef
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]MemberRef)}
}

// Declare adds a source declaration and returns its ref. Declaring a name that
// was previously only referenced upgrades the external entry in place, so refs
// handed out earlier stay valid. Declaring the same name twice yields two
// distinct symbols; name lookups keep pointing at the first one.
func (t *SymbolTable) Declare(sym Symbol) MemberRef {
	sym.External = false
	if ref, ok := t.byName[sym.Name]; ok && t.symbols[ref-1].External {
		t.symbols[ref-1] = sym
		return ref
	}
	t.symbols = append(t.symbols, sym)
	ref := MemberRef(len(t.symbols))
	if _, ok := t.byName[sym.Name]; !ok {
		t.byName[sym.Name] = ref
	}
	return ref
}

// Reference interns a type by name. Known names resolve to the existing
// symbol; unknown names become external symbols.
func (t *SymbolTable) Reference(name string) MemberRef {
	if ref, ok := t.byName[name]; ok {
		return ref
	}
	t.symbols = append(t.symbols, Symbol{Name: name, External: true})
	ref := MemberRef(len(t.symbols))
	t.byName[name] = ref
	return ref
}

// Lookup returns the ref registered for name.
func (t *SymbolTable) Lookup(name string) (MemberRef, bool) {
	ref, ok := t.byName[name]
	return ref, ok
}

// Symbol returns a copy of the symbol behind ref. Unknown refs yield a zero
// Symbol and false.
func (t *SymbolTable) Symbol(ref MemberRef) (Symbol, bool) {
	if ref == 0 || int(ref) > len(t.symbols) {
		return Symbol{}, false
	}
	return t.symbols[ref-1], true
}

// Name returns the display name of ref, or "<invalid>" for unknown refs.
func (t *SymbolTable) Name(ref MemberRef) string {
	sym, ok := t.Symbol(ref)
	if !ok {
		return "<invalid>"
	}
	return sym.Name
}

// ScopeName returns the display name of a scope.
func (t *SymbolTable) ScopeName(scope ScopeID) string {
	return t.Name(MemberRef(scope))
}

// IsModule reports whether ref is a declared module.
func (t *SymbolTable) IsModule(ref MemberRef) bool {
	sym, ok := t.Symbol(ref)
	return ok && sym.Module
}

// Len returns the number of symbols, external ones included.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// Refs returns every ref in declaration order.
func (t *SymbolTable) Refs() []MemberRef {
	out := make([]MemberRef, len(t.symbols))
	for i := range t.symbols {
		out[i] = MemberRef(i + 1)
	}
	return out
}

// ScopeOf converts the ref of a scope symbol into a ScopeID.
func ScopeOf(ref MemberRef) ScopeID {
	return ScopeID(ref)
}
