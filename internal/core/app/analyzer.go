package app

import (
	"context"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/types"
	"tsresolve/internal/shared/observability"
)

// Run analyses every discovered file of the project.
func (a *Analyzer) Run(ctx context.Context) (report *Report, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyzer.Run",
		trace.WithAttributes(attribute.String("root", a.paths.Root)))
	defer span.End()
	defer observeDuration("run", time.Now())
	defer dropPartial(&report, &err)
	defer errors.Recover(&err)

	files, err := a.Discover()
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "discover")
	}

	s, err := a.newSession()
	if err != nil {
		return nil, err
	}
	report = &Report{
		SessionID: s.rs.SessionID().String(),
		Root:      a.paths.Root,
		StartedAt: time.Now(),
	}
	a.logger.Info("analysis started", "session", report.SessionID, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		astMod, err := s.loader.Load(ctx, path)
		if err != nil {
			a.logger.Warn("failed to load file", "path", path, "error", err)
			report.Failures = append(report.Failures, Failure{Path: path, Error: errors.Message(err)})
			continue
		}
		mod := s.rs.GetOrInitModule(astMod)
		report.Modules = append(report.Modules, a.summarize(s, mod, report))
	}

	report.Objects = s.rs.ObjectCount()
	report.Diagnostics = dedupeDiagnostics(s.diags.Diagnostics())
	report.Duration = time.Since(report.StartedAt)
	span.SetAttributes(
		attribute.Int("modules", len(report.Modules)),
		attribute.Int("diagnostics", len(report.Diagnostics)),
	)
	a.logger.Info("analysis finished",
		"session", report.SessionID,
		"modules", len(report.Modules),
		"resolved", report.Resolved,
		"unresolved", report.Unresolved,
		"diagnostics", len(report.Diagnostics),
		"duration", report.Duration)
	return report, nil
}

// summarize resolves every module-level reference of mod and collects its
// export table.
func (a *Analyzer) summarize(s *session, mod *types.Module, report *Report) ModuleSummary {
	sum := ModuleSummary{
		Path:         mod.AST.Path,
		ModulePath:   mod.AST.ModulePath,
		Declarations: len(mod.Data.TopLevel),
		Imports:      len(mod.Data.Imports),
		ParseErrors:  mod.AST.ParseErrors,
	}

	for _, ident := range mod.AST.References() {
		if !moduleScoped(mod, ident) {
			continue
		}
		sum.References++
		if s.rs.ResolveModuleIdent(mod, ident) != nil {
			sum.Resolved++
			report.Resolved++
			continue
		}
		report.Unresolved++
		if ident.Ctxt == ast.UnboundCtxt {
			report.Unbound = append(report.Unbound, Reference{Name: ident.Name, Range: ident.Range})
		}
	}

	sum.Exports = exportTable(s.rs, mod)
	return sum
}

// moduleScoped reports whether ident names a module-level entity: a
// declaration or import of the module, or a free name.
func moduleScoped(mod *types.Module, ident *ast.Ident) bool {
	if ident.Ctxt == ast.UnboundCtxt {
		return true
	}
	id := ident.ID()
	if _, ok := mod.Data.TopLevel[id]; ok {
		return true
	}
	_, ok := mod.Data.Imports[id]
	return ok
}

func exportTable(rs *types.ResolveState, mod *types.Module) []ExportEntry {
	names := mod.Data.ExportNames(rs, mod)
	out := make([]ExportEntry, 0, len(names))
	for _, name := range names {
		out = append(out, ExportEntry{Name: name, Object: mod.Data.GetNamedExport(rs, mod, name)})
	}
	return out
}

// Exports resolves the export table of a single file.
func (a *Analyzer) Exports(ctx context.Context, file string) (entries []ExportEntry, report *Report, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyzer.Exports",
		trace.WithAttributes(attribute.String("path", file)))
	defer span.End()
	defer observeDuration("exports", time.Now())
	defer dropPartial(&report, &err)
	defer errors.Recover(&err)

	s, mod, report, err := a.openFile(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	entries = exportTable(s.rs, mod)
	report.Objects = s.rs.ObjectCount()
	report.Diagnostics = dedupeDiagnostics(s.diags.Diagnostics())
	return entries, report, nil
}

// ResolveName resolves every occurrence of name in file, bindings included.
func (a *Analyzer) ResolveName(ctx context.Context, file, name string) (res []Resolution, report *Report, err error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyzer.ResolveName",
		trace.WithAttributes(attribute.String("path", file), attribute.String("name", name)))
	defer span.End()
	defer observeDuration("resolve", time.Now())
	defer dropPartial(&report, &err)
	defer errors.Recover(&err)

	s, mod, report, err := a.openFile(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	for _, ident := range mod.AST.IdentsNamed(name) {
		res = append(res, Resolution{Ident: ident, Object: s.rs.ResolveModuleIdent(mod, ident)})
	}
	report.Objects = s.rs.ObjectCount()
	report.Diagnostics = dedupeDiagnostics(s.diags.Diagnostics())
	return res, report, nil
}

func (a *Analyzer) openFile(ctx context.Context, file string) (*session, *types.Module, *Report, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(a.paths.Root, file)
	}
	s, err := a.newSession()
	if err != nil {
		return nil, nil, nil, err
	}
	astMod, err := s.loader.Load(ctx, file)
	if err != nil {
		return nil, nil, nil, errors.AddContext(err, errors.CtxPath, file)
	}
	mod := s.rs.GetOrInitModule(astMod)
	report := &Report{
		SessionID: s.rs.SessionID().String(),
		Root:      a.paths.Root,
		StartedAt: time.Now(),
		Modules:   []ModuleSummary{{Path: astMod.Path, ModulePath: astMod.ModulePath, ParseErrors: astMod.ParseErrors}},
	}
	return s, mod, report, nil
}

// dropPartial discards a report left half built by a failed run.
func dropPartial(report **Report, err *error) {
	if *err != nil {
		*report = nil
	}
}

func observeDuration(task string, start time.Time) {
	observability.AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}
