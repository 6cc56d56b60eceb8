package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsresolve/internal/core/config"
	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/diag"
)

func newTestAnalyzer(t *testing.T, files map[string]string) *Analyzer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Default()
	paths, err := config.ResolvePaths(cfg, dir)
	require.NoError(t, err)
	a, err := New(cfg, paths, nil)
	require.NoError(t, err)
	return a
}

func moduleByPath(t *testing.T, r *Report, modulePath string) ModuleSummary {
	t.Helper()
	for _, m := range r.Modules {
		if m.ModulePath == modulePath {
			return m
		}
	}
	t.Fatalf("module %s not in report", modulePath)
	return ModuleSummary{}
}

func exportNames(entries []ExportEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestDiscover(t *testing.T) {
	a := newTestAnalyzer(t, map[string]string{
		"src/a.ts":                  "export {};",
		"src/view.tsx":              "export {};",
		"src/a.test.ts":             "export {};",
		"src/readme.md":             "# docs",
		"node_modules/pkg/index.ts": "export {};",
		"dist/out.js":               "export {};",
	})

	files, err := a.Discover()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(a.Root(), "src", "a.ts"), files[0])
	assert.Equal(t, filepath.Join(a.Root(), "src", "view.tsx"), files[1])
}

func TestRelevant(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	root := a.Root()

	assert.True(t, a.Relevant(filepath.Join(root, "src", "a.ts")))
	assert.True(t, a.Relevant(filepath.Join(root, "package.json")))
	assert.False(t, a.Relevant(filepath.Join(root, "src", "a.test.ts")))
	assert.False(t, a.Relevant(filepath.Join(root, "notes.md")))
	assert.False(t, a.Relevant(filepath.Join(root, "node_modules", "x", "index.ts")))
	assert.False(t, a.Relevant(filepath.Join(filepath.Dir(root), "elsewhere.ts")))
}

func TestRun(t *testing.T) {
	a := newTestAnalyzer(t, map[string]string{
		"src/a.ts":   "export function f() { return 1; }\nexport class C {}\n",
		"src/b.ts":   "import { f } from \"./a\";\nexport * from \"./a\";\nexport const v = f();\n",
		"src/c.ts":   "import { nope } from \"./a\";\nexport const w = nope + undeclared;\n",
		"src/d.ts":   "export const s = console;\n",
		"src/bad.ts": "export const = ;\n",
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.SessionID)
	assert.Len(t, report.Modules, 5)
	assert.Positive(t, report.Objects)

	b := moduleByPath(t, report, "src/b")
	assert.Equal(t, 1, b.Imports)
	assert.Equal(t, []string{"C", "f", "v"}, exportNames(b.Exports))
	for _, e := range b.Exports {
		require.NotNil(t, e.Object, e.Name)
	}

	// console comes from the ambient universe.
	d := moduleByPath(t, report, "src/d")
	assert.Equal(t, d.References, d.Resolved)

	assert.Positive(t, moduleByPath(t, report, "src/bad").ParseErrors)

	var unbound []string
	for _, r := range report.Unbound {
		unbound = append(unbound, r.Name)
	}
	assert.Contains(t, unbound, "undeclared")

	msgs := make([]string, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		msgs = append(msgs, d.Message)
	}
	assert.Contains(t, msgs, "object not found: nope")
	assert.True(t, report.HasErrors())

	sess, rows := report.IndexRecords()
	assert.Equal(t, report.SessionID, sess.ID)
	assert.Equal(t, 5, sess.Modules)
	assert.NotEmpty(t, rows)
}

func TestRun_Cancelled(t *testing.T) {
	a := newTestAnalyzer(t, map[string]string{"a.ts": "export {};"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDropPartial(t *testing.T) {
	run := func(fail bool) (report *Report, err error) {
		defer dropPartial(&report, &err)
		defer errors.Recover(&err)
		report = &Report{SessionID: "s1"}
		if fail {
			errors.Internal("object id %d out of range", 7)
		}
		return report, nil
	}

	report, err := run(true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
	assert.Nil(t, report)

	report, err = run(false)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "s1", report.SessionID)
}

func TestExports(t *testing.T) {
	a := newTestAnalyzer(t, map[string]string{
		"lib/base.ts":  "export interface Shape {}\nexport default class Circle {}\n",
		"lib/index.ts": "export { default as Circle, Shape } from \"./base\";\nexport * from \"./missing\";\n",
	})

	entries, report, err := a.Exports(context.Background(), "lib/index.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"Circle", "Shape"}, exportNames(entries))
	assert.Equal(t, "class", entries[0].Kind())
	assert.Equal(t, "type", entries[1].Kind())
	assert.Len(t, report.Modules, 1)

	_, _, err = a.Exports(context.Background(), "lib/absent.ts")
	assert.Error(t, err)
}

func TestResolveName(t *testing.T) {
	a := newTestAnalyzer(t, map[string]string{
		"a.ts": "export const x = 1;\n",
		"b.ts": "import { x } from \"./a\";\nconst y = x + x;\n",
	})

	res, _, err := a.ResolveName(context.Background(), filepath.Join(a.Root(), "b.ts"), "x")
	require.NoError(t, err)
	require.Len(t, res, 3)
	for _, r := range res {
		require.NotNil(t, r.Object)
		assert.Equal(t, "x", r.Object.Name)
		assert.Equal(t, filepath.Join(a.Root(), "a.ts"), r.Object.Range.File)
	}
	assert.Same(t, res[1].Object, res[2].Object)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, config.ResolvedPaths{}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	cfg := config.Default()
	cfg.Exclude.Dirs = []string{"[unclosed"}
	_, err = New(cfg, config.ResolvedPaths{Root: t.TempDir()}, nil)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestDedupeDiagnostics(t *testing.T) {
	d1 := diag.Diagnostic{Message: "m"}
	d1.Range.File = "b.ts"
	d1.Range.StartByte = 4
	d2 := d1
	d3 := diag.Diagnostic{Message: "m"}
	d3.Range.File = "a.ts"

	out := dedupeDiagnostics([]diag.Diagnostic{d1, d2, d3})
	require.Len(t, out, 2)
	assert.Equal(t, "a.ts", out[0].Range.File)
}

func TestHealthService(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	h := NewHealthService(a)

	status := h.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "pending", status.Components["analysis"])

	h.Record(&Report{}, nil)
	assert.Equal(t, "up", h.Check(context.Background()).Status)

	h.Record(nil, errors.New(errors.CodeInternal, "boom"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}
