// Package types builds the semantic object graph of a set of modules and
// resolves identifiers to the declarations they refer to.
//
// Everything here runs inside one ResolveState. Objects are allocated in the
// state's arena and addressed by ObjectID; namespace tables store ids, never
// pointers, so cyclic module graphs need no shared ownership.
package types

import (
	"fmt"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
)

// ObjectID identifies an Object within one ResolveState. Zero means none.
type ObjectID uint32

// Object is a named language entity: a module, constant, type, variable,
// function, class, enum or namespace.
type Object struct {
	ID     ObjectID
	Range  ast.Range
	Name   string // empty for anonymous default exports and modules
	Module ast.ModuleID
	Kind   ObjectKind

	state CheckState
	typ   Type
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s#%d", KindName(o.Kind), o.DisplayName(), o.ID)
}

// DisplayName returns the object name, or a placeholder for anonymous objects.
func (o *Object) DisplayName() string {
	if o.Name == "" {
		return "<anonymous>"
	}
	return o.Name
}

// State returns the type-check state of the object.
func (o *Object) State() CheckState { return o.state }

// ObjectKind is the closed set of object variants.
type ObjectKind interface {
	objectKind()
}

// TypeName is an interface or type alias declaration.
type TypeName struct {
	Interface *ast.InterfaceDecl
	Alias     *ast.TypeAliasDecl
}

// TypeParams returns the declared type parameter names.
func (t *TypeName) TypeParams() []string {
	switch {
	case t.Interface != nil:
		return t.Interface.TypeParams
	case t.Alias != nil:
		return t.Alias.TypeParams
	}
	return nil
}

type Enum struct {
	Members []ast.EnumMember
}

type Var struct {
	TypeAnn *ast.TypeAnn
	Init    *ast.Expr
}

type Using struct {
	TypeAnn *ast.TypeAnn
	Init    *ast.Expr
}

type Func struct {
	Decl *ast.FuncDecl
}

type Class struct {
	Decl *ast.ClassDecl
}

// Namespace is a `namespace X {}` declaration with its own scope tables.
type Namespace struct {
	Data *NSData
}

// ModuleKind is the object wrapping a whole module. The Module itself is
// looked up through the ResolveState.
type ModuleKind struct {
	Module ast.ModuleID
}

func (*TypeName) objectKind()   {}
func (*Enum) objectKind()       {}
func (*Var) objectKind()        {}
func (*Using) objectKind()      {}
func (*Func) objectKind()       {}
func (*Class) objectKind()      {}
func (*Namespace) objectKind()  {}
func (*ModuleKind) objectKind() {}

// KindName returns a short name for the kind.
func KindName(k ObjectKind) string {
	switch k.(type) {
	case *TypeName:
		return "type"
	case *Enum:
		return "enum"
	case *Var:
		return "var"
	case *Using:
		return "using"
	case *Func:
		return "func"
	case *Class:
		return "class"
	case *Namespace:
		return "namespace"
	case *ModuleKind:
		return "module"
	}
	errors.Internal("unknown object kind %T", k)
	return ""
}
