package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tsresolve/internal/core/app"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/diag"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Analyse the project and report resolution problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			report, err := rt.analyzer.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := rt.renderProblems(out, report, opts.plain); err != nil {
				return err
			}
			printSummary(out, report)
			if report.HasErrors() {
				return errProblems
			}
			return nil
		},
	}
}

func newExportsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exports <file>",
		Short: "List the exports of a file and the declarations they resolve to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			entries, report, err := rt.analyzer.Exports(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				if e.Object == nil {
					fmt.Fprintf(tw, "%s\t-\tunresolved\t\n", e.Name)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Kind(), e.Object.DisplayName(), rt.location(e.Object.Range))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return rt.renderProblems(out, report, opts.plain)
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file> <name>",
		Short: "Resolve every occurrence of a name in a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			results, report, err := rt.analyzer.ResolveName(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "no occurrences of %s\n", args[1])
			}
			for _, r := range results {
				role := "ref"
				if r.Ident.Binding {
					role = "def"
				}
				if r.Object == nil {
					fmt.Fprintf(out, "%d:%d %s -> unresolved\n", r.Ident.Range.Start.Line, r.Ident.Range.Start.Column, role)
					continue
				}
				fmt.Fprintf(out, "%d:%d %s -> %s at %s\n",
					r.Ident.Range.Start.Line, r.Ident.Range.Start.Column, role, r.Object, rt.location(r.Object.Range))
			}
			return rt.renderProblems(out, report, opts.plain)
		},
	}
}

func newIndexCmd(opts *options) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Analyse the project and store its export table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			report, err := rt.analyzer.Run(cmd.Context())
			if err != nil {
				return err
			}
			store, err := rt.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, rows := report.IndexRecords()
			if err := store.SaveReport(cmd.Context(), sess, rows); err != nil {
				return err
			}
			pruned, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			rt.logger.Info("index updated",
				"path", rt.paths.IndexPath,
				"session", sess.ID,
				"exports", len(rows),
				"pruned_sessions", pruned)
			printSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "Number of sessions to keep in the index")
	return cmd
}

func newLookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Find which modules export a name, using the stored index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			store, err := rt.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.LookupExport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "%s is not exported by any indexed module\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range rows {
				decl := "unresolved"
				if r.DeclFile != "" {
					decl = fmt.Sprintf("%s:%d:%d", rt.display(r.DeclFile), r.DeclLine, r.DeclColumn)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ModulePath, r.Kind, decl)
			}
			return tw.Flush()
		},
	}
}

// display shortens paths under the project root.
func (rt *runtime) display(path string) string {
	if rel, err := filepath.Rel(rt.paths.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func (rt *runtime) location(r ast.Range) string {
	if r.File == "" {
		return "<builtin>"
	}
	return fmt.Sprintf("%s:%d:%d", rt.display(r.File), r.Start.Line, r.Start.Column)
}

func (rt *runtime) renderProblems(w io.Writer, report *app.Report, plain bool) error {
	r := &diag.Renderer{Plain: plain, DisplayPath: rt.display}
	if err := r.RenderAll(w, report.Diagnostics); err != nil {
		return err
	}
	for _, f := range report.Failures {
		if _, err := fmt.Fprintf(w, "failed to load %s: %s\n", rt.display(f.Path), f.Error); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, report *app.Report) {
	fmt.Fprintf(w, "%d modules, %d objects, %d resolved, %d unresolved, %d diagnostics, %d failures (%s)\n",
		len(report.Modules), report.Objects, report.Resolved, report.Unresolved,
		len(report.Diagnostics), len(report.Failures), report.Duration.Round(time.Millisecond))
}
