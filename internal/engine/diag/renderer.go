package diag

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	gutterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().Bold(true)
)

// Renderer formats diagnostics as annotated source snippets:
//
//	error: import not found: ./missing
//	  --> src/app.ts:3:21
//	   |
//	 3 |  import { x } from "./missing";
//	   |                    ^^^^^^^^^^^
type Renderer struct {
	// Plain disables styling.
	Plain bool

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// DisplayPath maps an absolute path to the name shown in the header.
	DisplayPath func(string) string

	cache map[string][]string
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.Plain {
		return text
	}
	return s.Render(text)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	sevStyle := errorStyle
	switch d.Severity {
	case SeverityWarning:
		sevStyle = warningStyle
	case SeverityNote:
		sevStyle = noteStyle
	}
	ew.printf("%s: %s\n", r.style(sevStyle, d.Severity.String()), r.style(messageStyle, d.Message))

	if d.Range.File != "" {
		r.writeSnippet(ew, d)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", r.style(noteStyle, "="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeSnippet(ew *errWriter, d Diagnostic) {
	rng := d.Range
	name := rng.File
	if r.DisplayPath != nil {
		name = r.DisplayPath(rng.File)
	}
	ew.printf("  %s %s:%d:%d\n", r.style(gutterStyle, "-->"), name, rng.Start.Line, rng.Start.Column)

	source := r.sourceLine(rng.File, rng.Start.Line)
	lineStr := fmt.Sprintf("%d", rng.Start.Line)
	pad := strings.Repeat(" ", len(lineStr))
	bar := r.style(gutterStyle, "|")
	if source == "" {
		ew.printf(" %s %s\n", pad, bar)
		return
	}

	ew.printf(" %s %s\n", pad, bar)
	ew.printf(" %s %s  %s\n", r.style(gutterStyle, lineStr), bar, strings.ReplaceAll(source, "\t", "    "))

	col := rng.Start.Column
	if col <= 0 {
		col = 1
	}
	endCol := len(source) + 1
	if rng.End.Line == rng.Start.Line && rng.End.Column > col {
		endCol = rng.End.Column
	}
	if endCol <= col {
		endCol = col + 1
	}
	prefix := ""
	if col-1 <= len(source) {
		prefix = source[:col-1]
	}
	underPad := strings.Repeat(" ", displayWidth(prefix))
	underline := strings.Repeat("^", endCol-col)
	ew.printf(" %s %s  %s%s\n", pad, bar, underPad, r.style(errorStyle, underline))
}

func (r *Renderer) sourceLine(file string, line int) string {
	if line <= 0 || file == "" {
		return ""
	}
	if r.cache == nil {
		r.cache = make(map[string][]string)
	}
	lines, ok := r.cache[file]
	if !ok {
		reader := r.SourceReader
		if reader == nil {
			reader = os.ReadFile
		}
		data, err := reader(file)
		if err == nil {
			lines = strings.Split(string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))), "\n")
		}
		r.cache[file] = lines
	}
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// displayWidth returns the column width of s with tabs expanded to 4.
func displayWidth(s string) int {
	w := 0
	for _, c := range s {
		if c == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

// errWriter captures the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}
