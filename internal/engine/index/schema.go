package index

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func migrate(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)

	if version > schemaVersion {
		return fmt.Errorf("index schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  id           TEXT    PRIMARY KEY,
  root         TEXT    NOT NULL,
  started_at   INTEGER NOT NULL,
  modules      INTEGER NOT NULL DEFAULT 0,
  objects      INTEGER NOT NULL DEFAULT 0,
  resolved     INTEGER NOT NULL DEFAULT 0,
  unresolved   INTEGER NOT NULL DEFAULT 0,
  diagnostics  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

CREATE TABLE IF NOT EXISTS exports (
  session_id   TEXT    NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  module_path  TEXT    NOT NULL,
  file_path    TEXT    NOT NULL,
  export_name  TEXT    NOT NULL,
  kind         TEXT    NOT NULL DEFAULT '',
  object_name  TEXT    NOT NULL DEFAULT '',
  decl_file    TEXT    NOT NULL DEFAULT '',
  decl_line    INTEGER NOT NULL DEFAULT 0,
  decl_column  INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (session_id, file_path, export_name)
);
CREATE INDEX IF NOT EXISTS idx_exports_name ON exports(export_name);

PRAGMA user_version = 1;
`)
	if err != nil {
		return fmt.Errorf("create v1 schema: %w", err)
	}
	return nil
}
