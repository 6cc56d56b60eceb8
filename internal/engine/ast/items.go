package ast

// Item is a module- or namespace-level item.
type Item interface {
	ItemRange() Range
	item()
}

// Decl is a declaration that can appear as a statement or behind export.
type Decl interface {
	DeclRange() Range
	decl()
}

type ImportSpecKind int

const (
	ImportSpecNamed ImportSpecKind = iota
	ImportSpecDefault
	ImportSpecNamespace
)

// ImportSpecifier binds one local name of an import declaration.
type ImportSpecifier struct {
	Range Range
	Kind  ImportSpecKind
	Local *Ident
	// Imported is the exported name for named specifiers.
	Imported string
}

// ImportDecl is `import ... from "source"`.
type ImportDecl struct {
	Range      Range
	Source     string
	TypeOnly   bool
	Specifiers []ImportSpecifier
}

// ExportDecl is `export <decl>`.
type ExportDecl struct {
	Range Range
	Decl  Decl
}

// ExportDefaultDecl is `export default` followed by a class, function or
// interface declaration. The declaration ident may be nil.
type ExportDefaultDecl struct {
	Range Range
	Decl  Decl
}

// ExportDefaultExpr is `export default <expr>`.
type ExportDefaultExpr struct {
	Range Range
	Expr  *Expr
}

type ExportSpecKind int

const (
	ExportSpecNamed ExportSpecKind = iota
	ExportSpecDefault
	ExportSpecNamespace
)

// ExportSpecifier is one entry of an export list.
type ExportSpecifier struct {
	Range Range
	Kind  ExportSpecKind
	Orig  string
	// Local is the referenced binding for export lists without a source.
	Local    *Ident
	Exported string // empty when not renamed
}

// ExportNamed is `export { ... }`, optionally `from "source"`.
type ExportNamed struct {
	Range      Range
	Source     string
	HasSource  bool
	Specifiers []ExportSpecifier
}

// ExportAll is `export * from "source"`.
type ExportAll struct {
	Range  Range
	Source string
}

// ImportEquals is `import x = require("y")` or `import x = A.B`.
type ImportEquals struct {
	Range Range
	Local *Ident
	Ref   string
}

// ExportAssignment is `export = expr`.
type ExportAssignment struct {
	Range Range
	Expr  *Expr
}

// NamespaceExport is `export as namespace Name`.
type NamespaceExport struct {
	Range Range
	Name  string
}

// DeclStmt wraps a declaration in statement position.
type DeclStmt struct {
	Decl Decl
}

// BlockStmt is a bare `{ ... }` block.
type BlockStmt struct {
	Range Range
	Stmts []Item
}

// OtherStmt is any statement that cannot declare module-level names.
type OtherStmt struct {
	Range Range
	Kind  string
}

func (i *ImportDecl) ItemRange() Range        { return i.Range }
func (i *ExportDecl) ItemRange() Range        { return i.Range }
func (i *ExportDefaultDecl) ItemRange() Range { return i.Range }
func (i *ExportDefaultExpr) ItemRange() Range { return i.Range }
func (i *ExportNamed) ItemRange() Range       { return i.Range }
func (i *ExportAll) ItemRange() Range         { return i.Range }
func (i *ImportEquals) ItemRange() Range      { return i.Range }
func (i *ExportAssignment) ItemRange() Range  { return i.Range }
func (i *NamespaceExport) ItemRange() Range   { return i.Range }
func (i *DeclStmt) ItemRange() Range          { return i.Decl.DeclRange() }
func (i *BlockStmt) ItemRange() Range         { return i.Range }
func (i *OtherStmt) ItemRange() Range         { return i.Range }

func (*ImportDecl) item()        {}
func (*ExportDecl) item()        {}
func (*ExportDefaultDecl) item() {}
func (*ExportDefaultExpr) item() {}
func (*ExportNamed) item()       {}
func (*ExportAll) item()         {}
func (*ImportEquals) item()      {}
func (*ExportAssignment) item()  {}
func (*NamespaceExport) item()   {}
func (*DeclStmt) item()          {}
func (*BlockStmt) item()         {}
func (*OtherStmt) item()         {}

// Param is a function parameter.
type Param struct {
	Range    Range
	Name     string
	Type     *TypeAnn
	Optional bool
	Rest     bool
}

// FuncDecl is a function declaration or signature.
type FuncDecl struct {
	Range      Range
	Ident      *Ident
	Async      bool
	Generator  bool
	Declare    bool
	TypeParams []string
	Params     []Param
	ReturnType *TypeAnn
	HasBody    bool
}

// ClassMember is a member of a class body.
type ClassMember struct {
	Range  Range
	Name   string
	Kind   string // method, property, constructor, getter, setter, index
	Static bool
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	Range      Range
	Ident      *Ident
	Abstract   bool
	Declare    bool
	TypeParams []string
	SuperClass *Expr
	Implements []string
	Decorators []*Expr
	Members    []ClassMember
}

type VarKind int

const (
	VarKindVar VarKind = iota
	VarKindLet
	VarKindConst
	VarKindUsing
	VarKindAwaitUsing
)

func (k VarKind) String() string {
	switch k {
	case VarKindVar:
		return "var"
	case VarKindLet:
		return "let"
	case VarKindConst:
		return "const"
	case VarKindUsing:
		return "using"
	case VarKindAwaitUsing:
		return "await using"
	default:
		return "unknown"
	}
}

// Binding is one name bound by a declarator pattern.
type Binding struct {
	Ident   *Ident
	TypeAnn *TypeAnn
}

// VarDeclarator is one `pattern = init` entry of a variable declaration.
type VarDeclarator struct {
	Range    Range
	Bindings []Binding
	TypeAnn  *TypeAnn
	Init     *Expr
}

// VarDecl is a var/let/const/using declaration.
type VarDecl struct {
	Range   Range
	Kind    VarKind
	Declare bool
	Decls   []VarDeclarator
}

// InterfaceDecl is a TypeScript interface.
type InterfaceDecl struct {
	Range      Range
	Ident      *Ident
	TypeParams []string
	Extends    []string
	Body       *TypeAnn
}

// TypeAliasDecl is `type X = ...`.
type TypeAliasDecl struct {
	Range      Range
	Ident      *Ident
	TypeParams []string
	Type       *TypeAnn
}

// EnumMember is one enum member.
type EnumMember struct {
	Range Range
	Name  string
	Init  *Expr
}

// EnumDecl is a TypeScript enum.
type EnumDecl struct {
	Range   Range
	Ident   *Ident
	Const   bool
	Declare bool
	Members []EnumMember
}

// ModuleDecl is `namespace X {}`, `module X {}` or `declare module "x" {}`.
// Dotted names nest: `namespace A.B {}` has Ident A and Nested B.
type ModuleDecl struct {
	Range   Range
	Ident   *Ident
	StrName string
	Global  bool
	Declare bool
	Body    []Item
	Nested  *ModuleDecl
}

func (d *FuncDecl) DeclRange() Range      { return d.Range }
func (d *ClassDecl) DeclRange() Range     { return d.Range }
func (d *VarDecl) DeclRange() Range       { return d.Range }
func (d *InterfaceDecl) DeclRange() Range { return d.Range }
func (d *TypeAliasDecl) DeclRange() Range { return d.Range }
func (d *EnumDecl) DeclRange() Range      { return d.Range }
func (d *ModuleDecl) DeclRange() Range    { return d.Range }

func (*FuncDecl) decl()      {}
func (*ClassDecl) decl()     {}
func (*VarDecl) decl()       {}
func (*InterfaceDecl) decl() {}
func (*TypeAliasDecl) decl() {}
func (*EnumDecl) decl()      {}
func (*ModuleDecl) decl()    {}
