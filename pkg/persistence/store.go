// Package persistence saves and loads documents as SQLite files. Each save
// opens the target file, rewrites the document tables inside one transaction,
// and closes again; the store never holds a connection between calls.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cadbridge/pkg/document"
	"cadbridge/pkg/geom"
	"cadbridge/pkg/logx"
)

var logger = logx.NewLogger("persistence")

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// SaveDocument writes doc to the SQLite file at path, replacing any document
// already stored there.
func SaveDocument(path string, doc *document.Document) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := initializeSchema(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear document row: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM objects"); err != nil {
		return fmt.Errorf("failed to clear object rows: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO documents (id, name, revision, saved_at) VALUES (1, ?, ?, ?)",
		doc.Name, doc.Revision, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document row: %w", err)
	}

	for i, obj := range doc.Objects() {
		placement, err := json.Marshal(obj.Placement)
		if err != nil {
			return fmt.Errorf("failed to encode placement for %s: %w", obj.Name, err)
		}
		_, err = tx.Exec(
			`INSERT INTO objects (position, name, type_id, visible, placement_json,
				length, width, height, radius, base_ref, tool_ref)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, obj.Name, obj.TypeID, boolToInt(obj.Visible), string(placement),
			obj.Length, obj.Width, obj.Height, obj.Radius, obj.Base, obj.Tool,
		)
		if err != nil {
			return fmt.Errorf("failed to insert object %s: %w", obj.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}

	logger.Info("Saved document %q (%d objects) to %s", doc.Name, doc.Count(), path)
	return nil
}

// LoadDocument reads a document previously written by SaveDocument.
func LoadDocument(path string) (*document.Document, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	if err := initializeSchema(db); err != nil {
		return nil, err
	}

	var name string
	var revision int
	var savedAt string
	err = db.QueryRow("SELECT name, revision, saved_at FROM documents WHERE id = 1").
		Scan(&name, &revision, &savedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no document stored at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document row: %w", err)
	}

	doc := document.New(name)
	doc.Revision = revision

	rows, err := db.Query(
		`SELECT name, type_id, visible, placement_json, length, width, height, radius, base_ref, tool_ref
		 FROM objects ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		obj := &document.Object{}
		var visible int
		var placementJSON string
		err := rows.Scan(&obj.Name, &obj.TypeID, &visible, &placementJSON,
			&obj.Length, &obj.Width, &obj.Height, &obj.Radius, &obj.Base, &obj.Tool)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object row: %w", err)
		}
		obj.Visible = visible != 0
		var placement geom.Placement
		if err := json.Unmarshal([]byte(placementJSON), &placement); err != nil {
			return nil, fmt.Errorf("failed to decode placement for %s: %w", obj.Name, err)
		}
		obj.Placement = placement
		if err := doc.AddObject(obj); err != nil {
			return nil, fmt.Errorf("failed to restore object %s: %w", obj.Name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate objects: %w", err)
	}
	return doc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
