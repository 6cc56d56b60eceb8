// Package app drives resolution sessions over a project and reports what
// every module-level identifier resolves to.
package app

import (
	"log/slog"

	"github.com/gobwas/glob"

	"tsresolve/internal/core/config"
	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/diag"
	"tsresolve/internal/engine/loader"
	"tsresolve/internal/engine/parser"
	"tsresolve/internal/engine/types"
)

// Analyzer runs resolution sessions. Every call builds a fresh session, so
// an Analyzer may be reused across runs but not shared between goroutines
// while a run is in progress.
type Analyzer struct {
	cfg    *config.Config
	paths  config.ResolvedPaths
	parser *parser.Parser
	logger *slog.Logger

	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(cfg *config.Config, paths config.ResolvedPaths, logger *slog.Logger) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gl, err := parser.NewGrammarLoader(cfg.Extensions)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:    cfg,
		paths:  paths,
		parser: parser.NewParser(gl),
		logger: logger,
	}
	if a.dirGlobs, err = compileGlobs(cfg.Exclude.Dirs); err != nil {
		return nil, err
	}
	if a.fileGlobs, err = compileGlobs(cfg.Exclude.Files); err != nil {
		return nil, err
	}
	return a, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern"),
				errors.CtxSymbol, p,
			)
		}
		out = append(out, g)
	}
	return out, nil
}

// Root returns the absolute project root.
func (a *Analyzer) Root() string { return a.paths.Root }

// session is the state of one run.
type session struct {
	loader *loader.Loader
	diags  *diag.Collector
	rs     *types.ResolveState
}

func (a *Analyzer) newSession() (*session, error) {
	l, err := loader.New(a.parser, loader.Options{
		Root:         a.paths.Root,
		Aliases:      a.cfg.Resolve.Aliases,
		NodeModules:  a.cfg.Resolve.NodeModulesEnabled(),
		UniversePath: a.paths.Universe,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, err
	}
	c := diag.NewCollector(a.logger)
	return &session{
		loader: l,
		diags:  c,
		rs:     types.NewResolveState(l, c, a.logger),
	}, nil
}
