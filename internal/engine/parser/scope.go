package parser

import (
	"sort"

	"tsresolve/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type lexicalScope struct {
	ctxt  uint32
	names map[string]struct{}
	// fn marks scopes that receive hoisted var declarations.
	fn bool
}

// scopeResolver assigns a syntax context to every identifier occurrence.
// Identifiers resolve to the innermost enclosing scope declaring the name;
// names no scope declares keep ast.UnboundCtxt.
type scopeResolver struct {
	ctx      *sourceContext
	next     uint32
	stack    []*lexicalScope
	bindings map[uint]struct{}
	idents   []*ast.Ident
	byStart  map[uint]*ast.Ident
}

func newScopeResolver(ctx *sourceContext) *scopeResolver {
	return &scopeResolver{
		ctx:      ctx,
		bindings: make(map[uint]struct{}),
		byStart:  make(map[uint]*ast.Ident),
	}
}

func (r *scopeResolver) resolve(root *sitter.Node) []*ast.Ident {
	r.push(true)
	r.declareBlock(root, true)
	r.visitChildren(root, nil)
	r.pop()

	sort.SliceStable(r.idents, func(i, j int) bool {
		return r.idents[i].Range.StartByte < r.idents[j].Range.StartByte
	})
	return r.idents
}

func (r *scopeResolver) push(fn bool) *lexicalScope {
	r.next++
	s := &lexicalScope{ctxt: r.next, names: make(map[string]struct{}), fn: fn}
	r.stack = append(r.stack, s)
	return s
}

func (r *scopeResolver) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *scopeResolver) top() *lexicalScope {
	return r.stack[len(r.stack)-1]
}

func (r *scopeResolver) fnScope() *lexicalScope {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].fn {
			return r.stack[i]
		}
	}
	return r.stack[0]
}

func (r *scopeResolver) lookup(name string) uint32 {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if _, ok := r.stack[i].names[name]; ok {
			return r.stack[i].ctxt
		}
	}
	return ast.UnboundCtxt
}

func (r *scopeResolver) declareIn(s *lexicalScope, node *sitter.Node) {
	if node == nil {
		return
	}
	s.names[r.ctx.Text(node)] = struct{}{}
	r.bindings[node.StartByte()] = struct{}{}
}

func (r *scopeResolver) declare(node *sitter.Node) {
	r.declareIn(r.top(), node)
}

func (r *scopeResolver) declarePattern(s *lexicalScope, pattern *sitter.Node) {
	for _, n := range bindingNodes(pattern) {
		r.declareIn(s, n)
	}
}

// declareBlock declares the names the statements of a block introduce into
// the current scope. Function scopes also collect nested var declarations.
func (r *scopeResolver) declareBlock(block *sitter.Node, fn bool) {
	for _, stmt := range namedChildren(block) {
		r.declareStatement(stmt)
	}
	if fn {
		r.hoistVars(block)
	}
}

func (r *scopeResolver) declareStatement(n *sitter.Node) {
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration", "function_signature",
		"class_declaration", "abstract_class_declaration", "interface_declaration",
		"type_alias_declaration", "enum_declaration":
		r.declare(n.ChildByFieldName("name"))
	case "lexical_declaration", "using_declaration":
		for _, d := range namedChildren(n) {
			if d.Kind() == "variable_declarator" {
				r.declarePattern(r.top(), d.ChildByFieldName("name"))
			}
		}
	case "import_statement":
		for _, local := range importLocals(n) {
			r.declare(local)
		}
	case "import_alias":
		r.declare(childOfKind(n, "identifier"))
	case "export_statement":
		if d := n.ChildByFieldName("declaration"); d != nil {
			r.declareStatement(d)
		} else if v := n.ChildByFieldName("value"); v != nil && hasChildKind(n, "default") {
			// `export default function f() {}` binds f in the module.
			switch v.Kind() {
			case "function_expression", "function", "generator_function", "class":
				r.declare(v.ChildByFieldName("name"))
			}
		}
		for _, child := range namedChildren(n) {
			if child.Kind() == "import_alias" {
				r.declareStatement(child)
			}
		}
	case "expression_statement":
		for _, child := range namedChildren(n) {
			if child.Kind() == "internal_module" {
				r.declareStatement(child)
			}
		}
	case "internal_module", "module":
		if parts := nameParts(n.ChildByFieldName("name")); len(parts) > 0 {
			r.declare(parts[0])
		}
	case "ambient_declaration":
		for _, child := range namedChildren(n) {
			r.declareStatement(child)
		}
	}
}

// hoistVars declares every var binding of the function body rooted at n.
func (r *scopeResolver) hoistVars(n *sitter.Node) {
	s := r.top()
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		for _, child := range namedChildren(node) {
			kind := child.Kind()
			if isFunctionLike(kind) || isClassLike(kind) || kind == "internal_module" || kind == "module" {
				continue
			}
			if kind == "variable_declaration" {
				for _, d := range namedChildren(child) {
					if d.Kind() == "variable_declarator" {
						r.declarePattern(s, d.ChildByFieldName("name"))
					}
				}
			}
			if kind == "for_in_statement" && hasChildKind(child, "var") {
				r.declarePattern(s, child.ChildByFieldName("left"))
			}
			walk(child)
		}
	}
	walk(n)
}

func (r *scopeResolver) record(node *sitter.Node) {
	if node == nil {
		return
	}
	start := node.StartByte()
	if _, seen := r.byStart[start]; seen {
		return
	}
	name := r.ctx.Text(node)
	_, binding := r.bindings[start]
	id := &ast.Ident{
		Name:    name,
		Ctxt:    r.lookup(name),
		Range:   r.ctx.Range(node),
		Binding: binding,
	}
	r.idents = append(r.idents, id)
	r.byStart[start] = id
}

func (r *scopeResolver) visitChildren(n *sitter.Node, skip *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		if skip != nil && child.StartByte() == skip.StartByte() && child.Kind() == skip.Kind() {
			continue
		}
		r.visit(child)
	}
}

func (r *scopeResolver) visit(n *sitter.Node) {
	kind := n.Kind()
	switch {
	case kind == "identifier" || kind == "type_identifier" ||
		kind == "shorthand_property_identifier" || kind == "shorthand_property_identifier_pattern":
		r.record(n)
	case kind == "nested_type_identifier":
		// Only the leading namespace is a reference; the member is not.
		if first := n.ChildByFieldName("module"); first != nil {
			r.visit(first)
		}
	case kind == "statement_block":
		r.push(false)
		r.declareBlock(n, false)
		r.visitChildren(n, nil)
		r.pop()
	case isFunctionLike(kind):
		r.visitFunction(n)
	case isClassLike(kind):
		r.visitClass(n)
	case kind == "interface_declaration" || kind == "type_alias_declaration":
		name := n.ChildByFieldName("name")
		r.record(name)
		r.push(false)
		for _, tp := range typeParamNodes(n) {
			r.declare(tp)
		}
		r.visitChildren(n, name)
		r.pop()
	case kind == "for_statement" || kind == "for_in_statement":
		r.push(false)
		if init := n.ChildByFieldName("initializer"); init != nil && init.Kind() == "lexical_declaration" {
			r.declareStatement(init)
		}
		if left := n.ChildByFieldName("left"); left != nil && (hasChildKind(n, "let") || hasChildKind(n, "const")) {
			r.declarePattern(r.top(), left)
		}
		r.visitChildren(n, nil)
		r.pop()
	case kind == "catch_clause":
		r.push(false)
		r.declarePattern(r.top(), n.ChildByFieldName("parameter"))
		r.visitChildren(n, nil)
		r.pop()
	case kind == "internal_module" || kind == "module":
		r.visitNamespace(n)
	case kind == "import_statement":
		for _, local := range importLocals(n) {
			r.record(local)
		}
	case kind == "export_statement":
		r.visitExport(n)
	case kind == "enum_declaration":
		r.record(n.ChildByFieldName("name"))
		if body := n.ChildByFieldName("body"); body != nil {
			for _, member := range namedChildren(body) {
				if member.Kind() == "enum_assignment" {
					if v := member.ChildByFieldName("value"); v != nil {
						r.visit(v)
					}
				}
			}
		}
	default:
		r.visitChildren(n, nil)
	}
}

func (r *scopeResolver) visitFunction(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	kind := n.Kind()
	expr := kind == "function_expression" || kind == "function" || kind == "generator_function"
	if !expr && name != nil {
		r.visit(name)
	}

	r.push(true)
	if expr && name != nil {
		r.declare(name)
		r.record(name)
	}
	for _, tp := range typeParamNodes(n) {
		r.declare(tp)
	}
	for _, p := range paramPatterns(n) {
		r.declarePattern(r.top(), p)
	}
	body := n.ChildByFieldName("body")
	if body != nil && body.Kind() == "statement_block" {
		r.declareBlock(body, true)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		if name != nil && child.StartByte() == name.StartByte() && child.Kind() == name.Kind() {
			continue
		}
		if body != nil && child.StartByte() == body.StartByte() && body.Kind() == "statement_block" {
			r.visitChildren(body, nil)
			continue
		}
		r.visit(child)
	}
	r.pop()
}

func (r *scopeResolver) visitClass(n *sitter.Node) {
	name := n.ChildByFieldName("name")
	if n.Kind() == "class" && name != nil {
		// Class expression names are visible only inside the class.
		r.push(false)
		r.declare(name)
		r.record(name)
	} else {
		r.record(name)
		r.push(false)
	}
	for _, tp := range typeParamNodes(n) {
		r.declare(tp)
	}
	r.visitChildren(n, name)
	r.pop()
}

func (r *scopeResolver) visitNamespace(n *sitter.Node) {
	parts := nameParts(n.ChildByFieldName("name"))
	pushed := 0
	for i, part := range parts {
		if i > 0 {
			r.push(true)
			pushed++
			r.declare(part)
		}
		r.record(part)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		r.push(true)
		pushed++
		r.declareBlock(body, true)
		r.visitChildren(body, nil)
	}
	for ; pushed > 0; pushed-- {
		r.pop()
	}
}

func (r *scopeResolver) visitExport(n *sitter.Node) {
	hasSource := n.ChildByFieldName("source") != nil
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "export_clause":
			if hasSource {
				continue
			}
			for _, spec := range namedChildren(child) {
				if spec.Kind() != "export_specifier" {
					continue
				}
				if local := spec.ChildByFieldName("name"); local != nil && local.Kind() == "identifier" {
					r.record(local)
				}
			}
		case "namespace_export", "string":
		case "identifier":
			// `export as namespace X` names a global, not a binding.
			if hasChildKind(n, "namespace") {
				continue
			}
			r.visit(child)
		default:
			r.visit(child)
		}
	}
}

// importLocals returns the binding identifiers of an import statement.
func importLocals(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "import_clause":
			for _, part := range namedChildren(child) {
				switch part.Kind() {
				case "identifier":
					out = append(out, part)
				case "namespace_import":
					if id := childOfKind(part, "identifier"); id != nil {
						out = append(out, id)
					}
				case "named_imports":
					for _, spec := range namedChildren(part) {
						if spec.Kind() != "import_specifier" {
							continue
						}
						local := spec.ChildByFieldName("alias")
						if local == nil {
							local = spec.ChildByFieldName("name")
						}
						if local != nil && local.Kind() == "identifier" {
							out = append(out, local)
						}
					}
				}
			}
		case "import_require_clause":
			if id := childOfKind(child, "identifier"); id != nil {
				out = append(out, id)
			}
		}
	}
	return out
}
