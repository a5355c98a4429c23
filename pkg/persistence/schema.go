package persistence

import (
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever the document tables change shape.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cadbridge_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	name TEXT NOT NULL,
	revision INTEGER NOT NULL DEFAULT 0,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	type_id TEXT NOT NULL,
	visible INTEGER NOT NULL DEFAULT 1,
	placement_json TEXT NOT NULL,
	length REAL NOT NULL DEFAULT 0,
	width REAL NOT NULL DEFAULT 0,
	height REAL NOT NULL DEFAULT 0,
	radius REAL NOT NULL DEFAULT 0,
	base_ref TEXT NOT NULL DEFAULT '',
	tool_ref TEXT NOT NULL DEFAULT ''
);
`

// initializeSchema creates the tables and records the schema version. An
// existing file with a different version is rejected rather than migrated.
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT version FROM cadbridge_meta LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO cadbridge_meta (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("unsupported schema version %d (expected %d)", version, schemaVersion)
	}
	return nil
}
