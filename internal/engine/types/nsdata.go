package types

import (
	"fmt"
	"sort"

	"tsresolve/internal/engine/ast"
)

type ImportKind int

const (
	ImportNamed ImportKind = iota
	ImportDefault
	ImportNamespace
)

func (k ImportKind) String() string {
	switch k {
	case ImportNamed:
		return "named"
	case ImportDefault:
		return "default"
	case ImportNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// ImportedName is one imported local binding. Path is the specifier as
// written; it is resolved lazily on first lookup.
type ImportedName struct {
	Range ast.Range
	Path  string
	Kind  ImportKind
	// Name is the exported name for ImportNamed.
	Name string
}

// NamedReexport is one `orig as renamed` entry of a re-export list.
type NamedReexport struct {
	Orig    string
	Renamed string // empty when not renamed
}

// ExportName is the name the entry is exported under.
func (n NamedReexport) ExportName() string {
	if n.Renamed != "" {
		return n.Renamed
	}
	return n.Orig
}

// Reexport is either a ReexportList or a ReexportAll.
type Reexport interface {
	ImportPath() string
	reexport()
}

// ReexportList is `export { a, b as c } from "path"`.
type ReexportList struct {
	Items []NamedReexport
	Path  string
}

// ReexportAll is `export * from "path"`.
type ReexportAll struct {
	Path string
}

func (r *ReexportList) ImportPath() string { return r.Path }
func (r *ReexportAll) ImportPath() string  { return r.Path }
func (*ReexportList) reexport()            {}
func (*ReexportAll) reexport()             {}

// localExport is a pending `export { a as b }` entry without a source.
type localExport struct {
	Range    ast.Range
	Local    *ast.Ident
	Exported string
}

// NSData is the scope table of a module or namespace.
type NSData struct {
	// Imports are keyed by the local binding.
	Imports map[ast.BindingID]ImportedName
	// TopLevel holds every declaration, keyed by its binding.
	TopLevel      map[ast.BindingID]ObjectID
	NamedExports  map[string]ObjectID
	DefaultExport ObjectID
	// Reexports are searched in declaration order.
	Reexports []Reexport
	// ExportedImports are imports re-exported through a local export list.
	ExportedImports map[string]ImportedName

	localExports []localExport
}

func newNSData() *NSData {
	return &NSData{
		Imports:         make(map[ast.BindingID]ImportedName),
		TopLevel:        make(map[ast.BindingID]ObjectID),
		NamedExports:    make(map[string]ObjectID),
		ExportedImports: make(map[string]ImportedName),
	}
}

// addTopLevel registers obj under id. An existing entry wins and is
// returned; this is how repeated declarations such as overloads collapse.
func (ns *NSData) addTopLevel(id ast.BindingID, obj *Object) ObjectID {
	if existing, ok := ns.TopLevel[id]; ok {
		return existing
	}
	ns.TopLevel[id] = obj.ID
	return obj.ID
}

func (ns *NSData) addImport(rs *ResolveState, id ast.BindingID, imp ImportedName) {
	if _, ok := ns.Imports[id]; ok {
		rs.report(imp.Range, fmt.Sprintf("`%s` already imported", id.Name))
		return
	}
	ns.Imports[id] = imp
}

type exportKey struct {
	ns   *NSData
	name string
}

// GetNamedExport looks name up among the exports of the module or namespace
// declared in from. Re-exports are followed lazily and in order; a cycle of
// re-exports yields nil. Wildcard re-exports never provide "default".
func (ns *NSData) GetNamedExport(rs *ResolveState, from *Module, name string) *Object {
	return ns.getNamedExport(rs, from, name, make(map[exportKey]bool), false)
}

func (ns *NSData) getNamedExport(rs *ResolveState, from *Module, name string, visited map[exportKey]bool, quiet bool) *Object {
	key := exportKey{ns: ns, name: name}
	if visited[key] {
		rs.logger.Debug("re-export cycle", "module", from.AST.Path, "name", name)
		return nil
	}
	visited[key] = true

	if name == "default" && ns.DefaultExport != 0 {
		return rs.Object(ns.DefaultExport)
	}
	if id, ok := ns.NamedExports[name]; ok {
		return rs.Object(id)
	}
	if imp, ok := ns.ExportedImports[name]; ok {
		return rs.resolveImport(from, imp, visited, quiet)
	}

	for _, re := range ns.Reexports {
		switch re := re.(type) {
		case *ReexportList:
			for _, item := range re.Items {
				if item.ExportName() != name {
					continue
				}
				target := rs.ResolveModuleImport(from, re.Path)
				if target == nil {
					return nil
				}
				return target.Data.getNamedExport(rs, target, item.Orig, visited, quiet)
			}
		case *ReexportAll:
			if name == "default" {
				continue
			}
			target := rs.ResolveModuleImport(from, re.Path)
			if target == nil {
				continue
			}
			if obj := target.Data.getNamedExport(rs, target, name, visited, true); obj != nil {
				return obj
			}
		}
	}
	return nil
}

// ExportNames returns every name the module or namespace exports, sorted.
// Wildcard re-exports never contribute "default".
func (ns *NSData) ExportNames(rs *ResolveState, from *Module) []string {
	set := make(map[string]struct{})
	ns.collectExportNames(rs, from, set, make(map[*NSData]bool), false)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (ns *NSData) collectExportNames(rs *ResolveState, from *Module, set map[string]struct{}, visited map[*NSData]bool, wildcard bool) {
	if visited[ns] {
		return
	}
	visited[ns] = true

	add := func(name string) {
		if wildcard && name == "default" {
			return
		}
		set[name] = struct{}{}
	}
	if ns.DefaultExport != 0 {
		add("default")
	}
	for name := range ns.NamedExports {
		add(name)
	}
	for name := range ns.ExportedImports {
		add(name)
	}
	for _, re := range ns.Reexports {
		switch re := re.(type) {
		case *ReexportList:
			for _, item := range re.Items {
				add(item.ExportName())
			}
		case *ReexportAll:
			if target := rs.ResolveModuleImport(from, re.Path); target != nil {
				target.Data.collectExportNames(rs, target, set, visited, true)
			}
		}
	}
}

// finishLocalExports binds pending local export lists once every
// declaration and import of the scope is known.
func (ns *NSData) finishLocalExports(rs *ResolveState) {
	for _, le := range ns.localExports {
		exported := le.Exported
		if exported == "" {
			exported = le.Local.Name
		}
		id := le.Local.ID()
		if objID, ok := ns.TopLevel[id]; ok {
			if exported == "default" {
				if ns.DefaultExport != 0 {
					rs.report(le.Range, "duplicate default export")
					continue
				}
				ns.DefaultExport = objID
				continue
			}
			ns.NamedExports[exported] = objID
			continue
		}
		if imp, ok := ns.Imports[id]; ok {
			ns.ExportedImports[exported] = imp
			continue
		}
		rs.report(le.Range, fmt.Sprintf("exported name not found: %s", le.Local.Name))
	}
	ns.localExports = nil
}
