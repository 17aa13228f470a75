package export

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/msaview/pkg/version"
)

// SchemaVersion is bumped whenever the exported tables change.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE sequences (
		idx      INTEGER PRIMARY KEY,
		id       TEXT NOT NULL,
		residues TEXT NOT NULL
	)`,
	`CREATE TABLE column_stats (
		position     INTEGER PRIMARY KEY,
		consensus    TEXT NOT NULL,
		conservation REAL NOT NULL
	)`,
	`CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX idx_sequences_id ON sequences(id)`,
}

// SaveSQLite writes the visible sequences, the column statistics and a meta
// table to a fresh database at path. An existing file is replaced.
func SaveSQLite(path string, r Report) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := insertSequences(db, r); err != nil {
		return fmt.Errorf("insert sequences: %w", err)
	}
	if err := insertColumnStats(db, r); err != nil {
		return fmt.Errorf("insert column stats: %w", err)
	}
	if err := insertMeta(db, r); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return db.Close()
}

func insertSequences(db *sql.DB, r Report) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO sequences (idx, id, residues) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range r.Records {
		if _, err := stmt.Exec(rec.Index, rec.ID, string(rec.Residues)); err != nil {
			return fmt.Errorf("insert sequence %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func insertColumnStats(db *sql.DB, r Report) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO column_stats (position, consensus, conservation) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range r.Columns {
		if _, err := stmt.Exec(c.Position, c.Consensus, c.Conservation); err != nil {
			return fmt.Errorf("insert column %d: %w", c.Position, err)
		}
	}
	return tx.Commit()
}

func insertMeta(db *sql.DB, r Report) error {
	meta := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"generator":      "msv " + version.Version,
		"source":         r.Source,
		"kind":           r.Kind,
		"method":         r.Method,
		"sequences":      strconv.Itoa(r.Sequences),
		"visible":        strconv.Itoa(r.Visible),
		"length":         strconv.Itoa(r.Length),
		"start":          strconv.Itoa(r.Start),
		"end":            strconv.Itoa(r.End),
	}
	if r.Filter != "" {
		meta["filter"] = r.Filter
	}
	for key, value := range meta {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}
