// Package diag collects and renders resolution diagnostics.
package diag

import (
	"log/slog"

	"tsresolve/internal/engine/ast"
	"tsresolve/internal/shared/observability"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem anchored at a source range.
type Diagnostic struct {
	Severity Severity
	Message  string
	Range    ast.Range
	Notes    []string
}

// Reporter receives diagnostics. Reporting never fails and never blocks
// resolution.
type Reporter interface {
	Report(rng ast.Range, msg string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(rng ast.Range, msg string)

func (f ReporterFunc) Report(rng ast.Range, msg string) { f(rng, msg) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(ast.Range, string) {})

// Collector records diagnostics in report order.
type Collector struct {
	logger *slog.Logger
	diags  []Diagnostic
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger}
}

func (c *Collector) Report(rng ast.Range, msg string) {
	c.diags = append(c.diags, Diagnostic{Severity: SeverityError, Message: msg, Range: rng})
	observability.DiagnosticsTotal.Inc()
	c.logger.Debug("diagnostic reported", "range", rng.String(), "message", msg)
}

// Diagnostics returns a copy of the recorded diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

func (c *Collector) Len() int { return len(c.diags) }

func (c *Collector) Reset() { c.diags = c.diags[:0] }

// ForFile returns the diagnostics anchored in the given file.
func (c *Collector) ForFile(path string) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.diags {
		if d.Range.File == path {
			out = append(out, d)
		}
	}
	return out
}
