package parser

import (
	"tsresolve/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// lowerer converts a tree-sitter program into ast items. Identifier nodes
// are looked up in the scope pass results so every ast.Ident carries its
// syntax context.
type lowerer struct {
	ctx *sourceContext
	ids map[uint]*ast.Ident
}

func (l *lowerer) ident(node *sitter.Node) *ast.Ident {
	if node == nil {
		return nil
	}
	if id, ok := l.ids[node.StartByte()]; ok {
		return id
	}
	return &ast.Ident{Name: l.ctx.Text(node), Ctxt: ast.UnboundCtxt, Range: l.ctx.Range(node)}
}

func (l *lowerer) items(parent *sitter.Node) []ast.Item {
	var out []ast.Item
	for _, child := range namedChildren(parent) {
		if it := l.item(child); it != nil {
			out = append(out, it)
		}
	}
	return out
}

func (l *lowerer) item(n *sitter.Node) ast.Item {
	switch n.Kind() {
	case "hash_bang_line", "empty_statement":
		return nil
	case "import_statement":
		return l.importStmt(n)
	case "import_alias":
		return l.importAlias(n)
	case "export_statement":
		return l.exportStmt(n)
	case "statement_block":
		return &ast.BlockStmt{Range: l.ctx.Range(n), Stmts: l.items(n)}
	case "expression_statement":
		for _, child := range namedChildren(n) {
			if child.Kind() == "internal_module" {
				return &ast.DeclStmt{Decl: l.moduleDecl(child)}
			}
		}
	}
	if d := l.decl(n); d != nil {
		return &ast.DeclStmt{Decl: d}
	}
	return &ast.OtherStmt{Range: l.ctx.Range(n), Kind: n.Kind()}
}

func (l *lowerer) decl(n *sitter.Node) ast.Decl {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration", "function_signature",
		"function_expression", "function", "generator_function":
		return l.funcDecl(n)
	case "class_declaration", "abstract_class_declaration", "class":
		return l.classDecl(n)
	case "lexical_declaration", "variable_declaration", "using_declaration":
		return l.varDecl(n)
	case "interface_declaration":
		return l.interfaceDecl(n)
	case "type_alias_declaration":
		return l.typeAliasDecl(n)
	case "enum_declaration":
		return l.enumDecl(n)
	case "internal_module", "module":
		return l.moduleDecl(n)
	case "ambient_declaration":
		return l.ambientDecl(n)
	}
	return nil
}

func (l *lowerer) ambientDecl(n *sitter.Node) ast.Decl {
	if hasChildKind(n, "global") {
		return &ast.ModuleDecl{
			Range:   l.ctx.Range(n),
			Global:  true,
			Declare: true,
			Body:    l.items(childOfKind(n, "statement_block")),
		}
	}
	for _, child := range namedChildren(n) {
		d := l.decl(child)
		if d == nil {
			continue
		}
		markDeclare(d)
		return d
	}
	return nil
}

func markDeclare(d ast.Decl) {
	switch d := d.(type) {
	case *ast.FuncDecl:
		d.Declare = true
	case *ast.ClassDecl:
		d.Declare = true
	case *ast.VarDecl:
		d.Declare = true
	case *ast.EnumDecl:
		d.Declare = true
	case *ast.ModuleDecl:
		d.Declare = true
	}
}

func (l *lowerer) importStmt(n *sitter.Node) ast.Item {
	if req := childOfKind(n, "import_require_clause"); req != nil {
		ref := req.ChildByFieldName("source")
		if ref == nil {
			ref = childOfKind(req, "string")
		}
		return &ast.ImportEquals{
			Range: l.ctx.Range(n),
			Local: l.ident(childOfKind(req, "identifier")),
			Ref:   trimQuoted(l.ctx.Text(ref)),
		}
	}

	decl := &ast.ImportDecl{
		Range:    l.ctx.Range(n),
		Source:   trimQuoted(l.ctx.Text(n.ChildByFieldName("source"))),
		TypeOnly: hasChildKind(n, "type") || hasChildKind(n, "typeof"),
	}
	clause := childOfKind(n, "import_clause")
	for _, part := range namedChildren(clause) {
		switch part.Kind() {
		case "identifier":
			decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{
				Range: l.ctx.Range(part),
				Kind:  ast.ImportSpecDefault,
				Local: l.ident(part),
			})
		case "namespace_import":
			decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{
				Range: l.ctx.Range(part),
				Kind:  ast.ImportSpecNamespace,
				Local: l.ident(childOfKind(part, "identifier")),
			})
		case "named_imports":
			for _, spec := range namedChildren(part) {
				if spec.Kind() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = name
				}
				decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{
					Range:    l.ctx.Range(spec),
					Kind:     ast.ImportSpecNamed,
					Local:    l.ident(local),
					Imported: moduleExportName(l.ctx.Text(name)),
				})
			}
		}
	}
	return decl
}

func (l *lowerer) importAlias(n *sitter.Node) *ast.ImportEquals {
	named := namedChildren(n)
	out := &ast.ImportEquals{Range: l.ctx.Range(n)}
	if len(named) > 0 {
		out.Local = l.ident(named[0])
	}
	if len(named) > 1 {
		out.Ref = normalizeRefName(l.ctx.Text(named[len(named)-1]))
	}
	return out
}

func (l *lowerer) exportStmt(n *sitter.Node) ast.Item {
	rng := l.ctx.Range(n)
	isDefault := hasChildKind(n, "default")

	if d := n.ChildByFieldName("declaration"); d != nil {
		decl := l.decl(d)
		if decl == nil {
			return &ast.OtherStmt{Range: rng, Kind: n.Kind()}
		}
		if isDefault {
			return &ast.ExportDefaultDecl{Range: rng, Decl: decl}
		}
		return &ast.ExportDecl{Range: rng, Decl: decl}
	}
	if v := n.ChildByFieldName("value"); v != nil && isDefault {
		switch v.Kind() {
		case "function_expression", "function", "generator_function", "class":
			return &ast.ExportDefaultDecl{Range: rng, Decl: l.decl(v)}
		}
		return &ast.ExportDefaultExpr{Range: rng, Expr: l.ctx.Expr(v)}
	}

	source := n.ChildByFieldName("source")
	var (
		clause *sitter.Node
		nsExp  *sitter.Node
		star   = hasChildKind(n, "*")
	)
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "export_clause":
			clause = child
		case "namespace_export":
			nsExp = child
		case "import_alias":
			// `export import A = B.C`
			return l.importAlias(child)
		}
	}

	switch {
	case hasChildKind(n, "=") && source == nil:
		var expr *sitter.Node
		for _, child := range namedChildren(n) {
			if child.Kind() != "decorator" {
				expr = child
				break
			}
		}
		return &ast.ExportAssignment{Range: rng, Expr: l.ctx.Expr(expr)}
	case hasChildKind(n, "namespace") && hasChildKind(n, "as") && source == nil:
		return &ast.NamespaceExport{Range: rng, Name: l.ctx.ChildText(n, "identifier")}
	case nsExp != nil:
		named := namedChildren(nsExp)
		exported := ""
		if len(named) > 0 {
			exported = moduleExportName(l.ctx.Text(named[len(named)-1]))
		}
		return &ast.ExportNamed{
			Range:     rng,
			Source:    trimQuoted(l.ctx.Text(source)),
			HasSource: true,
			Specifiers: []ast.ExportSpecifier{{
				Range:    l.ctx.Range(nsExp),
				Kind:     ast.ExportSpecNamespace,
				Orig:     "*",
				Exported: exported,
			}},
		}
	case star:
		return &ast.ExportAll{Range: rng, Source: trimQuoted(l.ctx.Text(source))}
	case clause != nil:
		out := &ast.ExportNamed{Range: rng}
		if source != nil {
			out.Source = trimQuoted(l.ctx.Text(source))
			out.HasSource = true
		}
		for _, spec := range namedChildren(clause) {
			if spec.Kind() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			es := ast.ExportSpecifier{
				Range: l.ctx.Range(spec),
				Kind:  ast.ExportSpecNamed,
				Orig:  moduleExportName(l.ctx.Text(name)),
			}
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				es.Exported = moduleExportName(l.ctx.Text(alias))
			}
			if source == nil && name != nil && name.Kind() == "identifier" {
				es.Local = l.ident(name)
			}
			out.Specifiers = append(out.Specifiers, es)
		}
		return out
	}
	return &ast.OtherStmt{Range: rng, Kind: n.Kind()}
}

func (l *lowerer) typeParams(n *sitter.Node) []string {
	nodes := typeParamNodes(n)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, tp := range nodes {
		out = append(out, l.ctx.Text(tp))
	}
	return out
}

func (l *lowerer) funcDecl(n *sitter.Node) *ast.FuncDecl {
	fn := &ast.FuncDecl{
		Range:      l.ctx.Range(n),
		Ident:      l.ident(n.ChildByFieldName("name")),
		Async:      hasChildKind(n, "async"),
		Generator:  hasChildKind(n, "*"),
		TypeParams: l.typeParams(n),
		ReturnType: l.ctx.TypeAnn(n.ChildByFieldName("return_type")),
		HasBody:    n.ChildByFieldName("body") != nil,
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			param := ast.Param{
				Range:    l.ctx.Range(p),
				Optional: p.Kind() == "optional_parameter",
			}
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil {
				pattern = p
			}
			param.Rest = pattern.Kind() == "rest_pattern"
			param.Name = l.ctx.Text(pattern)
			param.Type = l.ctx.TypeAnn(p.ChildByFieldName("type"))
			fn.Params = append(fn.Params, param)
		}
	}
	return fn
}

func (l *lowerer) classDecl(n *sitter.Node) *ast.ClassDecl {
	cls := &ast.ClassDecl{
		Range:      l.ctx.Range(n),
		Ident:      l.ident(n.ChildByFieldName("name")),
		Abstract:   n.Kind() == "abstract_class_declaration",
		TypeParams: l.typeParams(n),
	}
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "decorator":
			cls.Decorators = append(cls.Decorators, l.ctx.Expr(child))
		case "class_heritage":
			for _, clause := range namedChildren(child) {
				switch clause.Kind() {
				case "extends_clause":
					value := clause.ChildByFieldName("value")
					if value == nil {
						if named := namedChildren(clause); len(named) > 0 {
							value = named[0]
						}
					}
					cls.SuperClass = l.ctx.Expr(value)
				case "implements_clause":
					for _, t := range namedChildren(clause) {
						cls.Implements = append(cls.Implements, normalizeRefName(l.ctx.Text(t)))
					}
				}
			}
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for _, m := range namedChildren(body) {
			member, ok := l.classMember(m)
			if ok {
				cls.Members = append(cls.Members, member)
			}
		}
	}
	return cls
}

func (l *lowerer) classMember(m *sitter.Node) (ast.ClassMember, bool) {
	member := ast.ClassMember{
		Range:  l.ctx.Range(m),
		Name:   l.ctx.Text(m.ChildByFieldName("name")),
		Static: hasChildKind(m, "static"),
	}
	switch m.Kind() {
	case "method_definition", "method_signature", "abstract_method_signature":
		switch {
		case member.Name == "constructor":
			member.Kind = "constructor"
		case hasChildKind(m, "get"):
			member.Kind = "getter"
		case hasChildKind(m, "set"):
			member.Kind = "setter"
		default:
			member.Kind = "method"
		}
	case "public_field_definition", "property_signature":
		member.Kind = "property"
	case "index_signature":
		member.Kind = "index"
	default:
		return member, false
	}
	return member, true
}

func (l *lowerer) varDecl(n *sitter.Node) *ast.VarDecl {
	v := &ast.VarDecl{Range: l.ctx.Range(n)}
	switch n.Kind() {
	case "variable_declaration":
		v.Kind = ast.VarKindVar
	case "using_declaration":
		v.Kind = ast.VarKindUsing
		if hasChildKind(n, "await") {
			v.Kind = ast.VarKindAwaitUsing
		}
	default:
		v.Kind = ast.VarKindLet
		if kind := n.ChildByFieldName("kind"); kind != nil && l.ctx.Text(kind) == "const" {
			v.Kind = ast.VarKindConst
		} else if hasChildKind(n, "const") {
			v.Kind = ast.VarKindConst
		}
	}
	for _, d := range namedChildren(n) {
		if d.Kind() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		declarator := ast.VarDeclarator{
			Range:   l.ctx.Range(d),
			TypeAnn: l.ctx.TypeAnn(d.ChildByFieldName("type")),
			Init:    l.ctx.Expr(d.ChildByFieldName("value")),
		}
		for _, b := range bindingNodes(name) {
			binding := ast.Binding{Ident: l.ident(b)}
			if name.Kind() == "identifier" {
				binding.TypeAnn = declarator.TypeAnn
			}
			declarator.Bindings = append(declarator.Bindings, binding)
		}
		v.Decls = append(v.Decls, declarator)
	}
	return v
}

func (l *lowerer) interfaceDecl(n *sitter.Node) *ast.InterfaceDecl {
	out := &ast.InterfaceDecl{
		Range:      l.ctx.Range(n),
		Ident:      l.ident(n.ChildByFieldName("name")),
		TypeParams: l.typeParams(n),
		Body:       l.ctx.TypeAnn(n.ChildByFieldName("body")),
	}
	if ext := childOfKind(n, "extends_type_clause"); ext != nil {
		for _, t := range namedChildren(ext) {
			out.Extends = append(out.Extends, normalizeRefName(l.ctx.Text(t)))
		}
	}
	return out
}

func (l *lowerer) typeAliasDecl(n *sitter.Node) *ast.TypeAliasDecl {
	return &ast.TypeAliasDecl{
		Range:      l.ctx.Range(n),
		Ident:      l.ident(n.ChildByFieldName("name")),
		TypeParams: l.typeParams(n),
		Type:       l.ctx.TypeAnn(n.ChildByFieldName("value")),
	}
}

func (l *lowerer) enumDecl(n *sitter.Node) *ast.EnumDecl {
	out := &ast.EnumDecl{
		Range: l.ctx.Range(n),
		Ident: l.ident(n.ChildByFieldName("name")),
		Const: hasChildKind(n, "const"),
	}
	body := n.ChildByFieldName("body")
	for _, m := range namedChildren(body) {
		member := ast.EnumMember{Range: l.ctx.Range(m)}
		switch m.Kind() {
		case "enum_assignment":
			member.Name = moduleExportName(l.ctx.Text(m.ChildByFieldName("name")))
			member.Init = l.ctx.Expr(m.ChildByFieldName("value"))
		case "property_identifier", "string":
			member.Name = moduleExportName(l.ctx.Text(m))
		default:
			continue
		}
		out.Members = append(out.Members, member)
	}
	return out
}

func (l *lowerer) moduleDecl(n *sitter.Node) *ast.ModuleDecl {
	name := n.ChildByFieldName("name")
	var body []ast.Item
	if b := n.ChildByFieldName("body"); b != nil {
		body = l.items(b)
	}
	rng := l.ctx.Range(n)
	if name != nil && name.Kind() == "string" {
		return &ast.ModuleDecl{Range: rng, StrName: trimQuoted(l.ctx.Text(name)), Body: body}
	}

	parts := nameParts(name)
	if len(parts) == 0 {
		return &ast.ModuleDecl{Range: rng, Body: body}
	}
	// Build the chain innermost first so only the last segment owns the body.
	var inner *ast.ModuleDecl
	for i := len(parts) - 1; i >= 0; i-- {
		md := &ast.ModuleDecl{Range: rng, Ident: l.ident(parts[i])}
		if inner == nil {
			md.Body = body
		} else {
			md.Nested = inner
		}
		inner = md
	}
	return inner
}
