package types

import (
	"log/slog"

	"github.com/google/uuid"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/engine/ast"
	"tsresolve/internal/engine/diag"
	"tsresolve/internal/shared/observability"
)

// ModuleLoader maps import specifiers to parsed modules. A (nil, nil) result
// means the specifier names nothing this session can see.
type ModuleLoader interface {
	ResolveImport(from *ast.Module, path string) (*ast.Module, error)
	Universe() *ast.Module
}

// Module is the namespace table of one source file.
type Module struct {
	AST  *ast.Module
	Data *NSData
}

func (m *Module) ID() ast.ModuleID { return m.AST.ID }

// ResolveState owns every object and module of one resolution session. It is
// not safe for concurrent use.
type ResolveState struct {
	loader   ModuleLoader
	reporter diag.Reporter
	logger   *slog.Logger
	session  uuid.UUID

	objects       []*Object
	moduleObjects map[ast.ModuleID]ObjectID
	modules       map[ast.ModuleID]*Module
	stack         []ast.ModuleID
	building      map[ast.ModuleID]*ast.Module
	universe      *Module
}

// NewResolveState starts a session. A nil reporter discards diagnostics and a
// nil logger falls back to slog.Default().
func NewResolveState(loader ModuleLoader, reporter diag.Reporter, logger *slog.Logger) *ResolveState {
	if reporter == nil {
		reporter = diag.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	session := uuid.New()
	return &ResolveState{
		loader:        loader,
		reporter:      reporter,
		logger:        logger.With("session", session.String()),
		session:       session,
		moduleObjects: make(map[ast.ModuleID]ObjectID),
		modules:       make(map[ast.ModuleID]*Module),
		building:      make(map[ast.ModuleID]*ast.Module),
	}
}

func (rs *ResolveState) SessionID() uuid.UUID { return rs.session }

func (rs *ResolveState) report(rng ast.Range, msg string) {
	rs.reporter.Report(rng, msg)
}

func (rs *ResolveState) logUnsupported(kind string, rng ast.Range) {
	rs.logger.Debug("unsupported construct", "path", rng.File, "kind", kind, "line", rng.Start.Line)
}

// newObject allocates an object owned by the module on top of the stack.
func (rs *ResolveState) newObject(name string, rng ast.Range, kind ObjectKind) *Object {
	if len(rs.stack) == 0 {
		errors.Internal("object %q allocated outside of a module context", name)
	}
	obj := &Object{
		ID:     ObjectID(len(rs.objects) + 1),
		Range:  rng,
		Name:   name,
		Module: rs.stack[len(rs.stack)-1],
		Kind:   kind,
	}
	rs.objects = append(rs.objects, obj)
	observability.ObjectsAllocatedTotal.Inc()
	return obj
}

func (rs *ResolveState) withModule(id ast.ModuleID, fn func()) {
	rs.stack = append(rs.stack, id)
	defer func() { rs.stack = rs.stack[:len(rs.stack)-1] }()
	fn()
}

// Object returns the object with the given id, or nil for 0.
func (rs *ResolveState) Object(id ObjectID) *Object {
	if id == 0 {
		return nil
	}
	if int(id) > len(rs.objects) {
		errors.Internal("object id %d out of range", id)
	}
	return rs.objects[id-1]
}

// ObjectCount returns the number of objects allocated so far.
func (rs *ResolveState) ObjectCount() int { return len(rs.objects) }

// GetOrInitModule returns the namespace table of m, building it on first
// use. Each module is built once per session.
func (rs *ResolveState) GetOrInitModule(m *ast.Module) *Module {
	if mod, ok := rs.modules[m.ID]; ok {
		return mod
	}
	if _, ok := rs.building[m.ID]; ok {
		errors.Internal("module %s re-entered during construction", m.Path)
	}
	rs.building[m.ID] = m
	defer delete(rs.building, m.ID)

	data := newNSData()
	rs.withModule(m.ID, func() {
		rs.processModuleItems(data, m.Items)
	})
	mod := &Module{AST: m, Data: data}
	rs.withModule(m.ID, func() {
		obj := rs.newObject("", m.Range, &ModuleKind{Module: m.ID})
		rs.moduleObjects[m.ID] = obj.ID
	})
	rs.modules[m.ID] = mod
	observability.ModulesInitializedTotal.Inc()
	rs.logger.Debug("module initialized", "path", m.Path, "objects", len(rs.objects))
	return mod
}

// Universe returns the ambient module, building it on first use.
func (rs *ResolveState) Universe() *Module {
	if rs.universe == nil {
		u := rs.loader.Universe()
		if u == nil {
			errors.Internal("loader has no universe module")
		}
		rs.universe = rs.GetOrInitModule(u)
	}
	return rs.universe
}

func (rs *ResolveState) IsUniverse(id ast.ModuleID) bool {
	return rs.Universe().ID() == id
}

// IsModulePath reports whether the module with the given id was loaded under
// the import-facing path p.
func (rs *ResolveState) IsModulePath(id ast.ModuleID, p string) bool {
	mod, ok := rs.modules[id]
	return ok && mod.AST.ModulePath != "" && mod.AST.ModulePath == p
}

// LookupModule returns an already built module.
func (rs *ResolveState) LookupModule(id ast.ModuleID) (*Module, bool) {
	mod, ok := rs.modules[id]
	return mod, ok
}

// ModuleObject returns the object wrapping a built module.
func (rs *ResolveState) ModuleObject(id ast.ModuleID) *Object {
	return rs.Object(rs.moduleObjects[id])
}

// ResolveModuleIdent resolves an identifier occurring in m: declarations of
// m first, then its imports, then the universe. Only free identifiers
// (UnboundCtxt) fall back to the universe, so a local binding such as a
// parameter named console resolves to nil rather than the global.
func (rs *ResolveState) ResolveModuleIdent(m *Module, ident *ast.Ident) *Object {
	id := ident.ID()
	if objID, ok := m.Data.TopLevel[id]; ok {
		observability.IdentResolutionsTotal.WithLabelValues("local").Inc()
		return rs.Object(objID)
	}
	if imp, ok := m.Data.Imports[id]; ok {
		obj := rs.ResolveImport(m, imp)
		if obj != nil {
			observability.IdentResolutionsTotal.WithLabelValues("import").Inc()
		} else {
			observability.IdentResolutionsTotal.WithLabelValues("unresolved").Inc()
		}
		return obj
	}
	if ident.Ctxt == ast.UnboundCtxt {
		u := rs.Universe()
		if objID, ok := u.Data.NamedExports[ident.Name]; ok {
			observability.IdentResolutionsTotal.WithLabelValues("universe").Inc()
			return rs.Object(objID)
		}
	}
	observability.IdentResolutionsTotal.WithLabelValues("unresolved").Inc()
	return nil
}

// ResolveModuleDefaultExport returns the default export declared by m
// itself, or nil.
func (rs *ResolveState) ResolveModuleDefaultExport(m *Module) *Object {
	return rs.Object(m.Data.DefaultExport)
}

// ResolveModuleImport resolves a specifier relative to from without
// reporting; failures yield nil.
func (rs *ResolveState) ResolveModuleImport(from *Module, path string) *Module {
	target, err := rs.loader.ResolveImport(from.AST, path)
	if err != nil {
		rs.logger.Debug("re-export target not loaded", "path", from.AST.Path, "specifier", path, "error", err)
		return nil
	}
	if target == nil {
		return nil
	}
	return rs.GetOrInitModule(target)
}

// ResolveImport resolves an imported binding of m to the object it names.
// Failures are reported at the import.
func (rs *ResolveState) ResolveImport(m *Module, imp ImportedName) *Object {
	return rs.resolveImport(m, imp, make(map[exportKey]bool), false)
}

func (rs *ResolveState) resolveImport(from *Module, imp ImportedName, visited map[exportKey]bool, quiet bool) *Object {
	report := func(msg string) {
		if !quiet {
			rs.report(imp.Range, msg)
		}
	}

	target, err := rs.loader.ResolveImport(from.AST, imp.Path)
	if err != nil {
		report("import not found: " + errors.Message(err))
		return nil
	}
	if target == nil {
		return nil
	}
	mod := rs.GetOrInitModule(target)

	switch imp.Kind {
	case ImportNamed:
		obj := mod.Data.getNamedExport(rs, mod, imp.Name, visited, quiet)
		if obj == nil {
			report("object not found: " + imp.Name)
		}
		return obj
	case ImportDefault:
		obj := mod.Data.getNamedExport(rs, mod, "default", visited, quiet)
		if obj == nil {
			report("default export not found")
		}
		return obj
	case ImportNamespace:
		obj := rs.ModuleObject(mod.ID())
		if obj == nil {
			report("object for namespaced import not found")
		}
		return obj
	}
	errors.Internal("unknown import kind %d", imp.Kind)
	return nil
}
