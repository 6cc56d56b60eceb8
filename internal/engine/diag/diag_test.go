package diag

import (
	"bytes"
	"strings"
	"testing"

	"tsresolve/internal/engine/ast"
)

func TestCollector(t *testing.T) {
	c := NewCollector(nil)
	c.Report(ast.Range{File: "/app/a.ts", Start: ast.Pos{Line: 1, Column: 1}}, "first")
	c.Report(ast.Range{File: "/app/b.ts", Start: ast.Pos{Line: 2, Column: 3}}, "second")

	if c.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", c.Len())
	}
	diags := c.Diagnostics()
	if diags[0].Message != "first" || diags[1].Message != "second" {
		t.Errorf("diagnostics out of order: %+v", diags)
	}
	if got := c.ForFile("/app/b.ts"); len(got) != 1 || got[0].Message != "second" {
		t.Errorf("unexpected file filter result %+v", got)
	}

	diags[0].Message = "mutated"
	if c.Diagnostics()[0].Message != "first" {
		t.Error("Diagnostics must return a copy")
	}

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("expected empty collector after reset, got %d", c.Len())
	}
}

func TestReporterFunc(t *testing.T) {
	var got string
	var r Reporter = ReporterFunc(func(_ ast.Range, msg string) { got = msg })
	r.Report(ast.Range{}, "hello")
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	Discard.Report(ast.Range{}, "ignored")
}

func TestRenderer_Snippet(t *testing.T) {
	src := "const a = 1;\nimport { x } from \"./missing\";\n"
	r := &Renderer{
		Plain: true,
		SourceReader: func(string) ([]byte, error) {
			return []byte(src), nil
		},
		DisplayPath: func(string) string { return "src/app.ts" },
	}
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "import not found: ./missing",
		Range: ast.Range{
			File:  "/root/src/app.ts",
			Start: ast.Pos{Line: 2, Column: 19},
			End:   ast.Pos{Line: 2, Column: 30},
		},
		Notes: []string{"checked ./missing.ts"},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"error: import not found: ./missing",
		"--> src/app.ts:2:19",
		"2 |  import { x } from \"./missing\";",
		strings.Repeat(" ", 18) + strings.Repeat("^", 11),
		"= note: checked ./missing.ts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_MissingSource(t *testing.T) {
	r := &Renderer{Plain: true}
	var buf bytes.Buffer
	d := Diagnostic{Message: "boom", Range: ast.Range{File: "/does/not/exist.ts", Start: ast.Pos{Line: 4, Column: 2}}}
	if err := r.RenderAll(&buf, []Diagnostic{d, d}); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "error: boom") != 2 {
		t.Errorf("expected two rendered diagnostics:\n%s", buf.String())
	}
}
