package types

import (
	"tsresolve/internal/engine/ast"
)

// processModuleItems populates ns from one module or namespace body.
func (rs *ResolveState) processModuleItems(ns *NSData, items []ast.Item) {
	for _, it := range items {
		switch it := it.(type) {
		case *ast.ImportDecl:
			rs.processImport(ns, it)

		case *ast.ExportDecl:
			for _, obj := range rs.processDecl(ns, it.Decl) {
				if obj.Name != "" {
					ns.NamedExports[obj.Name] = obj.ID
				}
			}

		case *ast.ExportDefaultDecl:
			obj := rs.processDefaultDecl(ns, it.Decl)
			if obj == nil {
				continue
			}
			if ns.DefaultExport != 0 {
				// obj may be an earlier binding of the same name.
				rs.report(it.Decl.DeclRange(), "duplicate default export")
				continue
			}
			ns.DefaultExport = obj.ID

		case *ast.ExportDefaultExpr:
			rs.logUnsupported("export default expression", it.Range)

		case *ast.ExportNamed:
			if !it.HasSource {
				for _, spec := range it.Specifiers {
					if spec.Local == nil {
						rs.logUnsupported("export list entry without local binding", spec.Range)
						continue
					}
					ns.localExports = append(ns.localExports, localExport{
						Range:    spec.Range,
						Local:    spec.Local,
						Exported: spec.Exported,
					})
				}
				continue
			}
			list := &ReexportList{Path: it.Source}
			for _, spec := range it.Specifiers {
				switch spec.Kind {
				case ast.ExportSpecNamed:
					list.Items = append(list.Items, NamedReexport{Orig: spec.Orig, Renamed: spec.Exported})
				case ast.ExportSpecDefault:
					rs.logUnsupported("default re-export specifier", spec.Range)
				case ast.ExportSpecNamespace:
					rs.logUnsupported("namespace re-export specifier", spec.Range)
				}
			}
			ns.Reexports = append(ns.Reexports, list)

		case *ast.ExportAll:
			ns.Reexports = append(ns.Reexports, &ReexportAll{Path: it.Source})

		case *ast.ImportEquals:
			rs.logUnsupported("import equals declaration", it.Range)

		case *ast.ExportAssignment:
			rs.logUnsupported("export assignment", it.Range)

		case *ast.NamespaceExport:
			rs.logUnsupported("namespace export", it.Range)

		default:
			rs.processStmt(ns, it)
		}
	}
	ns.finishLocalExports(rs)
}

func (rs *ResolveState) processImport(ns *NSData, decl *ast.ImportDecl) {
	for _, spec := range decl.Specifiers {
		if spec.Local == nil {
			continue
		}
		imp := ImportedName{Range: spec.Range, Path: decl.Source}
		switch spec.Kind {
		case ast.ImportSpecNamed:
			imp.Kind = ImportNamed
			imp.Name = spec.Imported
			if imp.Name == "" {
				imp.Name = spec.Local.Name
			}
		case ast.ImportSpecDefault:
			imp.Kind = ImportDefault
		case ast.ImportSpecNamespace:
			imp.Kind = ImportNamespace
		}
		ns.addImport(rs, spec.Local.ID(), imp)
	}
}

// processStmt handles statements; only declarations, possibly nested in
// blocks, contribute objects.
func (rs *ResolveState) processStmt(ns *NSData, it ast.Item) []*Object {
	switch it := it.(type) {
	case *ast.DeclStmt:
		return rs.processDecl(ns, it.Decl)
	case *ast.BlockStmt:
		var objs []*Object
		for _, stmt := range it.Stmts {
			objs = append(objs, rs.processStmt(ns, stmt)...)
		}
		return objs
	}
	return nil
}

// processDecl allocates the objects a declaration binds and returns the ones
// now registered in ns, in declaration order.
func (rs *ResolveState) processDecl(ns *NSData, decl ast.Decl) []*Object {
	bind := func(id *ast.Ident, obj *Object) *Object {
		return rs.Object(ns.addTopLevel(id.ID(), obj))
	}

	switch d := decl.(type) {
	case *ast.ClassDecl:
		if d.Ident == nil {
			return nil
		}
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &Class{Decl: d}))}

	case *ast.FuncDecl:
		if d.Ident == nil {
			return nil
		}
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &Func{Decl: d}))}

	case *ast.VarDecl:
		var objs []*Object
		for _, declarator := range d.Decls {
			for _, b := range declarator.Bindings {
				if b.Ident == nil {
					continue
				}
				var kind ObjectKind
				if d.Kind == ast.VarKindUsing || d.Kind == ast.VarKindAwaitUsing {
					kind = &Using{TypeAnn: b.TypeAnn, Init: declarator.Init}
				} else {
					kind = &Var{TypeAnn: b.TypeAnn, Init: declarator.Init}
				}
				objs = append(objs, bind(b.Ident, rs.newObject(b.Ident.Name, declarator.Range, kind)))
			}
		}
		return objs

	case *ast.InterfaceDecl:
		if d.Ident == nil {
			return nil
		}
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &TypeName{Interface: d}))}

	case *ast.TypeAliasDecl:
		if d.Ident == nil {
			return nil
		}
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &TypeName{Alias: d}))}

	case *ast.EnumDecl:
		if d.Ident == nil {
			return nil
		}
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &Enum{Members: d.Members}))}

	case *ast.ModuleDecl:
		if d.Global || d.StrName != "" || d.Ident == nil {
			rs.logUnsupported("ambient module declaration", d.Range)
			return nil
		}
		inner := newNSData()
		rs.processNamespaceBody(inner, d)
		return []*Object{bind(d.Ident, rs.newObject(d.Ident.Name, d.Range, &Namespace{Data: inner}))}
	}
	return nil
}

// processNamespaceBody fills ns from a namespace body. In a dotted
// declaration `namespace A.B {}` the inner segment is an implicit export of
// the outer one.
func (rs *ResolveState) processNamespaceBody(ns *NSData, d *ast.ModuleDecl) {
	if d.Nested == nil {
		rs.processModuleItems(ns, d.Body)
		return
	}
	nested := d.Nested
	inner := newNSData()
	rs.processNamespaceBody(inner, nested)
	obj := rs.newObject(nested.Ident.Name, nested.Range, &Namespace{Data: inner})
	id := ns.addTopLevel(nested.Ident.ID(), obj)
	ns.NamedExports[nested.Ident.Name] = id
}

// processDefaultDecl allocates the object of an `export default`
// declaration. A named declaration is also bound in the enclosing scope.
func (rs *ResolveState) processDefaultDecl(ns *NSData, decl ast.Decl) *Object {
	var (
		ident *ast.Ident
		obj   *Object
	)
	switch d := decl.(type) {
	case *ast.ClassDecl:
		ident = d.Ident
		obj = rs.newObject(identName(d.Ident), d.Range, &Class{Decl: d})
	case *ast.FuncDecl:
		ident = d.Ident
		obj = rs.newObject(identName(d.Ident), d.Range, &Func{Decl: d})
	case *ast.InterfaceDecl:
		ident = d.Ident
		obj = rs.newObject(identName(d.Ident), d.Range, &TypeName{Interface: d})
	default:
		if decl != nil {
			rs.logUnsupported("default export declaration", decl.DeclRange())
		}
		return nil
	}
	if ident != nil {
		return rs.Object(ns.addTopLevel(ident.ID(), obj))
	}
	return obj
}

func identName(id *ast.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}
