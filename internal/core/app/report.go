package app

import (
	"sort"
	"time"

	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/diag"
	"tsresolve/internal/engine/index"
	"tsresolve/internal/engine/types"
)

// Report is the outcome of one analysis run.
type Report struct {
	SessionID   string
	Root        string
	StartedAt   time.Time
	Duration    time.Duration
	Modules     []ModuleSummary
	Objects     int
	Resolved    int
	Unresolved  int
	Unbound     []Reference
	Failures    []Failure
	Diagnostics []diag.Diagnostic
}

// ModuleSummary describes one analysed file.
type ModuleSummary struct {
	Path         string
	ModulePath   string
	Declarations int
	Imports      int
	References   int
	Resolved     int
	ParseErrors  int
	Exports      []ExportEntry
}

// ExportEntry is one exported name and the declaration it resolves to.
// Object is nil when the export does not resolve.
type ExportEntry struct {
	Name   string
	Object *types.Object
}

func (e ExportEntry) Kind() string {
	if e.Object == nil {
		return ""
	}
	return types.KindName(e.Object.Kind)
}

// Reference is an identifier occurrence that did not resolve.
type Reference struct {
	Name  string
	Range ast.Range
}

// Failure is a discovered file that could not be loaded.
type Failure struct {
	Path  string
	Error string
}

// Resolution is one occurrence of a name and its declaration.
type Resolution struct {
	Ident  *ast.Ident
	Object *types.Object
}

// HasErrors reports whether the run produced diagnostics or load failures.
func (r *Report) HasErrors() bool {
	return len(r.Diagnostics) > 0 || len(r.Failures) > 0
}

// IndexRecords converts the report into rows for the export index.
func (r *Report) IndexRecords() (index.Session, []index.Export) {
	sess := index.Session{
		ID:          r.SessionID,
		Root:        r.Root,
		StartedAt:   r.StartedAt,
		Modules:     len(r.Modules),
		Objects:     r.Objects,
		Resolved:    r.Resolved,
		Unresolved:  r.Unresolved,
		Diagnostics: len(r.Diagnostics),
	}
	var rows []index.Export
	for _, m := range r.Modules {
		for _, e := range m.Exports {
			row := index.Export{
				ModulePath: m.ModulePath,
				File:       m.Path,
				Name:       e.Name,
			}
			if e.Object != nil {
				row.Kind = e.Kind()
				row.Object = e.Object.Name
				row.DeclFile = e.Object.Range.File
				row.DeclLine = e.Object.Range.Start.Line
				row.DeclColumn = e.Object.Range.Start.Column
			}
			rows = append(rows, row)
		}
	}
	return sess, rows
}

type diagKey struct {
	file  string
	start int
	end   int
	msg   string
}

// dedupeDiagnostics drops repeated reports of the same problem at the same
// place, which happens when several lookups chase one broken import. The
// result is ordered by file and position.
func dedupeDiagnostics(in []diag.Diagnostic) []diag.Diagnostic {
	seen := make(map[diagKey]bool, len(in))
	out := make([]diag.Diagnostic, 0, len(in))
	for _, d := range in {
		k := diagKey{d.Range.File, d.Range.StartByte, d.Range.EndByte, d.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.File != out[j].Range.File {
			return out[i].Range.File < out[j].Range.File
		}
		return out[i].Range.StartByte < out[j].Range.StartByte
	})
	return out
}
