// Package loader maps import specifiers to parsed modules.
//
// A Loader is bound to one project root. It resolves relative specifiers by
// probing TypeScript and JavaScript extensions, applies configured path
// aliases, looks bare specifiers up in node_modules and memoizes every parsed
// file by absolute path so that each file is parsed once per session and keeps
// a stable ast.ModuleID.
package loader

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/parser"
	"tsresolve/internal/shared/observability"
	"tsresolve/internal/shared/util"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

//go:embed universe.d.ts
var defaultUniverse []byte

const universeFile = "<universe>.d.ts"

// probeSuffixes is the order in which extensionless specifiers are tried.
var probeSuffixes = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".js", ".mjs", ".jsx"}

// jsToTS maps emitted JavaScript extensions to their TypeScript sources.
var jsToTS = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

type Options struct {
	Root string
	// Aliases maps specifier globs to root-relative targets. A trailing '*'
	// in both carries the matched remainder over.
	Aliases map[string]string
	// NodeModules enables bare specifier lookup in node_modules.
	NodeModules bool
	// UniversePath overrides the embedded ambient declarations.
	UniversePath string
	Logger       *slog.Logger
}

type alias struct {
	raw     string
	pattern glob.Glob
	target  string
}

type Loader struct {
	root     string
	opts     Options
	parser   *parser.Parser
	logger   *slog.Logger
	aliases  []alias
	byPath   map[string]*ast.Module
	failed   map[string]error
	modules  []*ast.Module
	universe *ast.Module

	manifests *lruCache[string, *packageManifest]
	probes    *lruCache[string, string]
}

func New(p *parser.Parser, opts Options) (*Loader, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve project root")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		root:      root,
		opts:      opts,
		parser:    p,
		logger:    logger,
		byPath:    make(map[string]*ast.Module),
		failed:    make(map[string]error),
		manifests: newLRUCache[string, *packageManifest](256),
		probes:    newLRUCache[string, string](4096),
	}

	for _, key := range util.SortedStringKeys(opts.Aliases) {
		g, err := glob.Compile(key)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "invalid alias pattern"),
				errors.CtxSymbol, key,
			)
		}
		l.aliases = append(l.aliases, alias{raw: key, pattern: g, target: opts.Aliases[key]})
	}
	// Longer patterns are more specific.
	sort.SliceStable(l.aliases, func(i, j int) bool {
		return len(l.aliases[i].raw) > len(l.aliases[j].raw)
	})

	if err := l.loadUniverse(); err != nil {
		return nil, err
	}
	return l, nil
}

// Root returns the absolute project root.
func (l *Loader) Root() string { return l.root }

func (l *Loader) loadUniverse() error {
	content := defaultUniverse
	path := universeFile
	if l.opts.UniversePath != "" {
		abs := l.opts.UniversePath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(l.root, abs)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return errors.AddContext(
				errors.Wrap(err, errors.CodeNotFound, "read universe declarations"),
				errors.CtxPath, abs,
			)
		}
		content, path = data, abs
	}
	mod, err := l.parser.ParseFile(path, content)
	if err != nil {
		return errors.Wrap(err, errors.CodeParse, "parse universe declarations")
	}
	l.register(mod, path, "")
	l.universe = mod
	return nil
}

// Universe returns the ambient declarations module.
func (l *Loader) Universe() *ast.Module { return l.universe }

// Modules returns every loaded module in id order, universe first.
func (l *Loader) Modules() []*ast.Module {
	out := make([]*ast.Module, len(l.modules))
	copy(out, l.modules)
	return out
}

// Module returns the module with the given id, or nil.
func (l *Loader) Module(id ast.ModuleID) *ast.Module {
	if id == 0 || int(id) > len(l.modules) {
		return nil
	}
	return l.modules[id-1]
}

// Load parses the file at path, or returns the memoized module.
func (l *Loader) Load(ctx context.Context, path string) (*ast.Module, error) {
	_, span := observability.Tracer.Start(ctx, "loader.Load",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve path")
	}
	mod, err := l.loadFile(abs, l.localModulePath(abs))
	if err != nil {
		span.RecordError(err)
	}
	return mod, err
}

// ResolveImport resolves specifier as written in from. It returns (nil, nil)
// when the specifier deliberately resolves to nothing: node builtins and bare
// packages that are not installed.
func (l *Loader) ResolveImport(from *ast.Module, specifier string) (*ast.Module, error) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return nil, errors.New(errors.CodeValidationError, "empty module specifier")
	}
	if strings.HasPrefix(specifier, "node:") {
		return nil, nil
	}

	if target, ok := l.applyAlias(specifier); ok {
		return l.resolveLocal(filepath.Join(l.root, filepath.FromSlash(target)), specifier)
	}

	if filepath.IsAbs(specifier) {
		return l.resolveLocal(filepath.Clean(specifier), specifier)
	}
	if isRelative(specifier) {
		base := l.root
		if from != nil && from.Path != "" && from != l.universe {
			base = filepath.Dir(from.Path)
		}
		return l.resolveLocal(filepath.Join(base, filepath.FromSlash(specifier)), specifier)
	}

	if !l.opts.NodeModules {
		return nil, nil
	}
	start := l.root
	if from != nil && from.Path != "" && from != l.universe {
		start = filepath.Dir(from.Path)
	}
	file, ok := l.resolvePackage(start, specifier)
	if !ok {
		l.logger.Debug("bare specifier not installed", "specifier", specifier)
		return nil, nil
	}
	return l.loadFile(file, specifier)
}

func (l *Loader) resolveLocal(candidate, specifier string) (*ast.Module, error) {
	file, ok := l.probe(candidate)
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, fmt.Sprintf("cannot resolve module %q", specifier)),
			errors.CtxPath, candidate,
		)
	}
	return l.loadFile(file, l.localModulePath(file))
}

func (l *Loader) applyAlias(specifier string) (string, bool) {
	for _, a := range l.aliases {
		if !a.pattern.Match(specifier) {
			continue
		}
		target := a.target
		if strings.HasSuffix(a.raw, "*") && strings.Contains(target, "*") {
			prefix := strings.TrimSuffix(a.raw, "*")
			rest := strings.TrimPrefix(specifier, prefix)
			target = strings.Replace(target, "*", rest, 1)
		}
		return target, true
	}
	return "", false
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// probe finds the source file a specifier path refers to.
func (l *Loader) probe(candidate string) (string, bool) {
	if hit, ok := l.probes.Get(candidate); ok {
		return hit, hit != ""
	}
	found := l.probeUncached(candidate)
	l.probes.Put(candidate, found)
	return found, found != ""
}

func (l *Loader) probeUncached(candidate string) string {
	ext := filepath.Ext(candidate)
	if repl, ok := jsToTS[ext]; ok {
		stem := strings.TrimSuffix(candidate, ext)
		for _, r := range repl {
			if isFile(stem + r) {
				return stem + r
			}
		}
	}
	if l.parser.IsSupportedPath(candidate) && isFile(candidate) {
		return candidate
	}
	for _, suffix := range probeSuffixes {
		if isFile(candidate + suffix) {
			return candidate + suffix
		}
	}
	for _, suffix := range probeSuffixes {
		index := filepath.Join(candidate, "index"+suffix)
		if isFile(index) {
			return index
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

type packageManifest struct {
	Name    string `json:"name"`
	Types   string `json:"types"`
	Typings string `json:"typings"`
	Main    string `json:"main"`
	Module  string `json:"module"`
}

func (l *Loader) readManifest(dir string) *packageManifest {
	if m, ok := l.manifests.Get(dir); ok {
		return m
	}
	var manifest *packageManifest
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err == nil {
		var m packageManifest
		if err := json.Unmarshal(data, &m); err != nil {
			l.logger.Warn("invalid package.json", "dir", dir, "error", err)
		} else {
			manifest = &m
		}
	}
	l.manifests.Put(dir, manifest)
	return manifest
}

// splitPackage splits "pkg/sub" and "@scope/pkg/sub" into package and subpath.
func splitPackage(specifier string) (string, string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		n = 2
	}
	if len(parts) <= n {
		return specifier, ""
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}

func (l *Loader) resolvePackage(startDir, specifier string) (string, bool) {
	pkg, sub := splitPackage(specifier)
	for dir := startDir; ; dir = filepath.Dir(dir) {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(pkg))
		if info, err := os.Stat(pkgDir); err == nil && info.IsDir() {
			if sub != "" {
				return l.probe(filepath.Join(pkgDir, filepath.FromSlash(sub)))
			}
			if m := l.readManifest(pkgDir); m != nil {
				for _, entry := range []string{m.Types, m.Typings, m.Module, m.Main} {
					if entry == "" {
						continue
					}
					if file, ok := l.probe(filepath.Join(pkgDir, filepath.FromSlash(entry))); ok {
						return file, true
					}
				}
			}
			if file, ok := l.probe(filepath.Join(pkgDir, "index")); ok {
				return file, true
			}
			// @types fallback for untyped packages is tried below.
		}
		if !strings.HasPrefix(pkg, "@types/") {
			typesDir := filepath.Join(dir, "node_modules", "@types", filepath.FromSlash(typesName(pkg)))
			if info, err := os.Stat(typesDir); err == nil && info.IsDir() {
				if m := l.readManifest(typesDir); m != nil && (m.Types != "" || m.Typings != "") {
					entry := m.Types
					if entry == "" {
						entry = m.Typings
					}
					if file, ok := l.probe(filepath.Join(typesDir, filepath.FromSlash(entry))); ok {
						return file, true
					}
				}
				if file, ok := l.probe(filepath.Join(typesDir, "index")); ok {
					return file, true
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
	}
}

// typesName maps "@scope/pkg" to the DefinitelyTyped "scope__pkg".
func typesName(pkg string) string {
	if strings.HasPrefix(pkg, "@") {
		return strings.Replace(strings.TrimPrefix(pkg, "@"), "/", "__", 1)
	}
	return pkg
}

// localModulePath returns the root-relative slash path without extension.
func (l *Loader) localModulePath(abs string) string {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = abs
	}
	return trimSourceExt(util.NormalizePatternPath(rel))
}

func trimSourceExt(p string) string {
	if strings.HasSuffix(p, ".d.ts") {
		return strings.TrimSuffix(p, ".d.ts")
	}
	return strings.TrimSuffix(p, filepath.Ext(p))
}

func (l *Loader) loadFile(abs, modulePath string) (*ast.Module, error) {
	if mod, ok := l.byPath[abs]; ok {
		return mod, nil
	}
	if err, ok := l.failed[abs]; ok {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		err = errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source file"), errors.CtxPath, abs)
		l.failed[abs] = err
		return nil, err
	}
	mod, err := l.parser.ParseFile(abs, content)
	if err != nil {
		l.failed[abs] = err
		return nil, err
	}
	if mod.ParseErrors > 0 {
		l.logger.Warn("syntax errors in source file", "path", abs, "errors", mod.ParseErrors)
	}
	l.register(mod, abs, modulePath)
	observability.ModulesLoadedTotal.Inc()
	l.logger.Debug("module loaded", "path", abs, "module_path", modulePath, "id", mod.ID)
	return mod, nil
}

func (l *Loader) register(mod *ast.Module, path, modulePath string) {
	mod.ID = ast.ModuleID(len(l.modules) + 1)
	mod.ModulePath = modulePath
	l.modules = append(l.modules, mod)
	l.byPath[path] = mod
}
