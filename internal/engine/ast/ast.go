// Package ast holds the module-level syntax tree the resolver consumes.
//
// The tree is produced by internal/engine/parser from tree-sitter output and
// is deliberately shallow: declarations, imports and exports are typed, while
// expressions and type annotations are kept as opaque source handles.
package ast

import (
	"fmt"
	"sort"
)

// ModuleID identifies a loaded source file within one loader session.
type ModuleID uint32

// Pos is a 1-based line/column position.
type Pos struct {
	Line   int
	Column int
}

// Range is a source span. Byte offsets are half-open.
type Range struct {
	File      string
	Start     Pos
	End       Pos
	StartByte int
	EndByte   int
}

func (r Range) IsZero() bool {
	return r.File == "" && r.Start.Line == 0 && r.EndByte == 0
}

func (r Range) String() string {
	if r.File == "" {
		return fmt.Sprintf("%d:%d", r.Start.Line, r.Start.Column)
	}
	return fmt.Sprintf("%s:%d:%d", r.File, r.Start.Line, r.Start.Column)
}

// Contains reports whether the byte offset falls inside the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.StartByte && offset < r.EndByte
}

// BindingID is the identity of a binding site: the name plus the syntax
// context of the scope that declares it. Two identifiers with equal BindingIDs
// in one module refer to the same entity.
type BindingID struct {
	Name string
	Ctxt uint32
}

func (b BindingID) String() string {
	return fmt.Sprintf("%s#%d", b.Name, b.Ctxt)
}

// UnboundCtxt marks identifiers that no enclosing scope declares.
const UnboundCtxt uint32 = 0

// Ident is one identifier occurrence.
type Ident struct {
	Name  string
	Ctxt  uint32
	Range Range
	// Binding is true when the occurrence declares the name.
	Binding bool
}

func (i *Ident) ID() BindingID {
	return BindingID{Name: i.Name, Ctxt: i.Ctxt}
}

func (i *Ident) String() string {
	if i == nil {
		return "<nil>"
	}
	return i.ID().String()
}

// Module is one parsed source file.
type Module struct {
	ID         ModuleID
	Path       string // absolute file path
	ModulePath string // import-facing path, see loader
	Language   string
	Range      Range
	Items      []Item
	// Idents lists every identifier occurrence in source order.
	Idents []*Ident
	// ParseErrors counts syntax error nodes reported by the parser.
	ParseErrors int
}

// IdentsNamed returns every occurrence of name in source order.
func (m *Module) IdentsNamed(name string) []*Ident {
	var out []*Ident
	for _, id := range m.Idents {
		if id.Name == name {
			out = append(out, id)
		}
	}
	return out
}

// References returns the non-binding identifier occurrences.
func (m *Module) References() []*Ident {
	out := make([]*Ident, 0, len(m.Idents))
	for _, id := range m.Idents {
		if !id.Binding {
			out = append(out, id)
		}
	}
	return out
}

// IdentAt returns the identifier covering the byte offset, if any.
func (m *Module) IdentAt(offset int) *Ident {
	i := sort.Search(len(m.Idents), func(i int) bool {
		return m.Idents[i].Range.EndByte > offset
	})
	if i < len(m.Idents) && m.Idents[i].Range.Contains(offset) {
		return m.Idents[i]
	}
	return nil
}

// Expr is an opaque expression handle.
type Expr struct {
	Range Range
	Kind  string
	Text  string
}

// TypeAnn is an opaque type annotation handle.
type TypeAnn struct {
	Range Range
	Text  string
}
