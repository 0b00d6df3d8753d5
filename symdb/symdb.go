// Package symdb maintains a per-project build index in SQLite: every
// successful assembly is recorded together with its label symbols, so
// other tools can resolve object addresses back to names. The runner
// uses it to name the nearest label in trap reports.
package symdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is where the index lives relative to the project root.
const DefaultPath = ".pocol/index.db"

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	object    TEXT PRIMARY KEY,
	source    TEXT NOT NULL,
	entry     INTEGER NOT NULL,
	code_size INTEGER NOT NULL,
	built_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS symbols (
	object TEXT NOT NULL,
	name   TEXT NOT NULL,
	addr   INTEGER NOT NULL,
	PRIMARY KEY (object, name)
);
`

// DB is an open build index.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the index at path. Parent directories
// are created.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// RecordBuild stores a finished build and replaces its symbols.
func (d *DB) RecordBuild(object, source string, entry, codeSize uint64, symbols map[string]uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO builds (object, source, entry, code_size, built_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(object) DO UPDATE SET
			source = excluded.source,
			entry = excluded.entry,
			code_size = excluded.code_size,
			built_at = excluded.built_at`,
		object, source, int64(entry), int64(codeSize), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM symbols WHERE object = ?`, object); err != nil {
		return fmt.Errorf("clear symbols: %w", err)
	}
	for name, addr := range symbols {
		if _, err := tx.Exec(`INSERT INTO symbols (object, name, addr) VALUES (?, ?, ?)`,
			object, name, int64(addr)); err != nil {
			return fmt.Errorf("record symbol %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// Symbols returns the recorded symbols of an object as an
// address-to-name map. An unknown object yields an empty map.
func (d *DB) Symbols(object string) (map[uint64]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.Query(`SELECT name, addr FROM symbols WHERE object = ?`, object)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]string)
	for rows.Next() {
		var name string
		var addr int64
		if err := rows.Scan(&name, &addr); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out[uint64(addr)] = name
	}
	return out, rows.Err()
}

// NearestSymbol returns the label with the greatest address at or
// before addr for the given object.
func (d *DB) NearestSymbol(object string, addr uint64) (name string, at uint64, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var a int64
	row := d.db.QueryRow(`SELECT name, addr FROM symbols
		WHERE object = ? AND addr <= ?
		ORDER BY addr DESC LIMIT 1`, object, int64(addr))
	switch err := row.Scan(&name, &a); err {
	case nil:
		return name, uint64(a), true, nil
	case sql.ErrNoRows:
		return "", 0, false, nil
	default:
		return "", 0, false, fmt.Errorf("query nearest symbol: %w", err)
	}
}
