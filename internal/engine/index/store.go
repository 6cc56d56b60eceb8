// Package index persists the export tables of analysis sessions in sqlite so
// later runs and other tools can look declarations up without re-resolving.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tsresolve/internal/core/errors"
	"tsresolve/internal/shared/observability"
)

const sqliteDriverName = "sqlite"

// Session summarizes one analysis run.
type Session struct {
	ID          string
	Root        string
	StartedAt   time.Time
	Modules     int
	Objects     int
	Resolved    int
	Unresolved  int
	Diagnostics int
}

// Export is one exported name of one module and the declaration it resolves
// to. Decl fields are empty when the export did not resolve.
type Export struct {
	ModulePath string
	File       string
	Name       string
	Kind       string
	Object     string
	DeclFile   string
	DeclLine   int
	DeclColumn int
}

type Store struct {
	db         *sql.DB
	lookupStmt *sql.Stmt

	cacheMu     sync.RWMutex
	lookupCache map[string][]Export
}

// Open opens or creates the index database at path.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "index path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.Newf(errors.CodeValidationError, "index path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite index %q: %w", cleanPath, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	lookupStmt, err := db.Prepare(`SELECT
  e.module_path,
  e.file_path,
  e.export_name,
  e.kind,
  e.object_name,
  e.decl_file,
  e.decl_line,
  e.decl_column
FROM exports e
WHERE e.export_name = ?
  AND e.session_id = (SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT 1)
ORDER BY e.module_path, e.file_path`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare lookup stmt: %w", err)
	}

	return &Store{
		db:          db,
		lookupStmt:  lookupStmt,
		lookupCache: make(map[string][]Export),
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookupStmt != nil {
		_ = s.lookupStmt.Close()
	}
	return s.db.Close()
}

func (s *Store) clearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.lookupCache = make(map[string][]Export)
}

// SaveReport records a session and its export table in one transaction.
func (s *Store) SaveReport(ctx context.Context, sess Session, exports []Export) error {
	if s == nil || s.db == nil {
		return errors.New(errors.CodeInternal, "index not initialized")
	}
	if strings.TrimSpace(sess.ID) == "" {
		return errors.New(errors.CodeValidationError, "session id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sessions
  (id, root, started_at, modules, objects, resolved, unresolved, diagnostics)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Root, sess.StartedAt.UnixNano(), sess.Modules, sess.Objects,
		sess.Resolved, sess.Unresolved, sess.Diagnostics)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO exports
  (session_id, module_path, file_path, export_name, kind, object_name, decl_file, decl_line, decl_column)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare export insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range exports {
		if _, err := stmt.ExecContext(ctx, sess.ID, e.ModulePath, e.File, e.Name, e.Kind,
			e.Object, e.DeclFile, e.DeclLine, e.DeclColumn); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert export %s of %s: %w", e.Name, e.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	observability.IndexWritesTotal.Add(float64(len(exports)))
	s.clearCache()
	return nil
}

// LookupExport returns every module of the latest session exporting name.
func (s *Store) LookupExport(ctx context.Context, name string) ([]Export, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.CodeInternal, "index not initialized")
	}

	s.cacheMu.RLock()
	cached, ok := s.lookupCache[name]
	s.cacheMu.RUnlock()
	if ok {
		return append([]Export(nil), cached...), nil
	}

	rows, err := s.lookupStmt.QueryContext(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("lookup export %q: %w", name, err)
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ModulePath, &e.File, &e.Name, &e.Kind, &e.Object,
			&e.DeclFile, &e.DeclLine, &e.DeclColumn); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.lookupCache[name] = out
	s.cacheMu.Unlock()
	return append([]Export(nil), out...), nil
}

// Sessions lists recorded sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.CodeInternal, "index not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, root, started_at, modules, objects, resolved, unresolved, diagnostics
FROM sessions ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess    Session
			started int64
		)
		if err := rows.Scan(&sess.ID, &sess.Root, &started, &sess.Modules, &sess.Objects,
			&sess.Resolved, &sess.Unresolved, &sess.Diagnostics); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = time.Unix(0, started)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep sessions and deletes the rest with their
// exports.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New(errors.CodeInternal, "index not initialized")
	}
	if keep < 1 {
		return 0, errors.New(errors.CodeValidationError, "keep must be at least 1")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id NOT IN (
  SELECT id FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	s.clearCache()
	return res.RowsAffected()
}
