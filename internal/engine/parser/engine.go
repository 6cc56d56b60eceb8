package parser

import (
	"tsresolve/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// sourceContext carries the source bytes and file path shared by the scope
// pass and the lowering pass.
type sourceContext struct {
	Source []byte
	File   string
}

func (c *sourceContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *sourceContext) Range(node *sitter.Node) ast.Range {
	if node == nil {
		return ast.Range{File: c.File}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return ast.Range{
		File:      c.File,
		Start:     ast.Pos{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:       ast.Pos{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
	}
}

func (c *sourceContext) ChildText(node *sitter.Node, kind string) string {
	if child := childOfKind(node, kind); child != nil {
		return c.Text(child)
	}
	return ""
}

func (c *sourceContext) Expr(node *sitter.Node) *ast.Expr {
	if node == nil {
		return nil
	}
	return &ast.Expr{Range: c.Range(node), Kind: node.Kind(), Text: c.Text(node)}
}

func (c *sourceContext) TypeAnn(node *sitter.Node) *ast.TypeAnn {
	if node == nil {
		return nil
	}
	return &ast.TypeAnn{Range: c.Range(node), Text: stripTypeColon(c.Text(node))}
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func hasChildKind(node *sitter.Node, kind string) bool {
	return childOfKind(node, kind) != nil
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// isFunctionLike reports node kinds that open a function scope.
func isFunctionLike(kind string) bool {
	switch kind {
	case "function_declaration", "generator_function_declaration", "function_expression",
		"function", "generator_function", "arrow_function", "method_definition",
		"function_signature", "method_signature", "abstract_method_signature",
		"call_signature", "construct_signature", "function_type", "constructor_type":
		return true
	}
	return false
}

func isClassLike(kind string) bool {
	switch kind {
	case "class_declaration", "abstract_class_declaration", "class":
		return true
	}
	return false
}

// bindingNodes returns the identifier nodes a declarator or parameter pattern
// binds, in source order. Default values are not part of the binding.
func bindingNodes(p *sitter.Node) []*sitter.Node {
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{p}
	case "pair_pattern":
		return bindingNodes(p.ChildByFieldName("value"))
	case "assignment_pattern", "object_assignment_pattern":
		return bindingNodes(p.ChildByFieldName("left"))
	case "object_pattern", "array_pattern", "rest_pattern":
		var out []*sitter.Node
		for _, child := range namedChildren(p) {
			out = append(out, bindingNodes(child)...)
		}
		return out
	}
	return nil
}

// nameParts flattens a possibly dotted namespace name into its segments.
func nameParts(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "identifier", "property_identifier", "type_identifier":
		return []*sitter.Node{n}
	case "nested_identifier", "member_expression":
		parts := nameParts(n.ChildByFieldName("object"))
		if prop := n.ChildByFieldName("property"); prop != nil {
			return append(parts, prop)
		}
		// Older grammars expose the segments as plain children.
		var out []*sitter.Node
		for _, child := range namedChildren(n) {
			out = append(out, nameParts(child)...)
		}
		return out
	}
	return nil
}

// typeParamNames returns the names declared by a type_parameters node.
func typeParamNodes(node *sitter.Node) []*sitter.Node {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	var out []*sitter.Node
	for _, child := range namedChildren(tp) {
		if child.Kind() != "type_parameter" {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			out = append(out, name)
		}
	}
	return out
}

// paramPatterns returns the binding patterns of a function's parameters.
func paramPatterns(fn *sitter.Node) []*sitter.Node {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []*sitter.Node{single}
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []*sitter.Node
	for _, p := range namedChildren(params) {
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			if pattern := p.ChildByFieldName("pattern"); pattern != nil {
				out = append(out, pattern)
			}
		case "identifier", "object_pattern", "array_pattern", "rest_pattern", "assignment_pattern":
			out = append(out, p)
		}
	}
	return out
}

func countErrors(node *sitter.Node) int {
	if node == nil || !node.HasError() {
		return 0
	}
	if node.IsError() || node.IsMissing() {
		return 1
	}
	n := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		n += countErrors(node.Child(i))
	}
	return n
}
