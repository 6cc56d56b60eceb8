package types

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/diag"
	"tsresolve/internal/engine/parser"
)

const testUniverse = `
export interface Console { log(...args: any[]): void }
export declare const console: Console;
export declare function parseInt(s: string): number;
`

// fakeLoader serves in-memory modules keyed by their module path. Relative
// specifiers that match nothing fail; bare ones resolve to none.
type fakeLoader struct {
	modules  map[string]*ast.Module
	universe *ast.Module
}

func (l *fakeLoader) ResolveImport(_ *ast.Module, path string) (*ast.Module, error) {
	if mod, ok := l.modules[strings.TrimPrefix(path, "./")]; ok {
		return mod, nil
	}
	if strings.HasPrefix(path, ".") {
		return nil, errors.Newf(errors.CodeNotFound, "cannot resolve module %q", path)
	}
	return nil, nil
}

func (l *fakeLoader) Universe() *ast.Module { return l.universe }

type fixture struct {
	loader *fakeLoader
	diags  *diag.Collector
	rs     *ResolveState
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	gl, err := parser.NewGrammarLoader(nil)
	if err != nil {
		t.Fatal(err)
	}
	p := parser.NewParser(gl)

	parse := func(path, src string) *ast.Module {
		mod, err := p.ParseFile(path, []byte(src))
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		if mod.ParseErrors != 0 {
			t.Fatalf("parse %s: %d syntax errors", path, mod.ParseErrors)
		}
		return mod
	}

	l := &fakeLoader{modules: make(map[string]*ast.Module)}
	l.universe = parse("/universe.d.ts", testUniverse)
	l.universe.ID = 1

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		mod := parse("/src/"+name+".ts", files[name])
		mod.ID = ast.ModuleID(i + 2)
		mod.ModulePath = name
		l.modules[name] = mod
	}

	c := diag.NewCollector(nil)
	return &fixture{loader: l, diags: c, rs: NewResolveState(l, c, nil)}
}

func (f *fixture) module(t *testing.T, name string) *Module {
	t.Helper()
	m, ok := f.loader.modules[name]
	if !ok {
		t.Fatalf("no module %q", name)
	}
	return f.rs.GetOrInitModule(m)
}

// ref returns the first non-binding occurrence of name in m.
func (f *fixture) ref(t *testing.T, m *Module, name string) *ast.Ident {
	t.Helper()
	for _, id := range m.AST.References() {
		if id.Name == name {
			return id
		}
	}
	t.Fatalf("no reference to %s in %s", name, m.AST.Path)
	return nil
}

func (f *fixture) messages() []string {
	var out []string
	for _, d := range f.diags.Diagnostics() {
		out = append(out, d.Message)
	}
	return out
}

func catchInternal(fn func()) (err error) {
	defer errors.Recover(&err)
	fn()
	return nil
}

func describe(obj *Object) string {
	if obj == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%d", obj, obj.Range.Start.Line)
}
