package mapping

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dendrascience/filecoder/util"
)

// code is the primary key of a rowid table, so rowid order is insertion order.
const sqliteSchema = `CREATE TABLE mapping (
	code     TEXT NOT NULL PRIMARY KEY,
	identity TEXT NOT NULL
)`

// sqliteFormat keeps the mapping in a single-table SQLite database.
type sqliteFormat struct{}

func (sqliteFormat) Name() string         { return "sqlite" }
func (sqliteFormat) Extensions() []string { return []string{".db", ".sqlite", ".sqlite3"} }

func (sqliteFormat) Read(path string) ([]Record, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cols, err := tableColumns(db, "mapping")
	if err != nil {
		return nil, &util.FormatError{Path: path, Reason: "not a readable sqlite snapshot", Err: err}
	}
	if len(cols) != 2 || cols[0] != "code" || cols[1] != "identity" {
		return nil, &util.FormatError{Path: path, Reason: fmt.Sprintf("table mapping has columns %v, want [code identity]", cols)}
	}

	rows, err := db.Query(`SELECT code, identity FROM mapping ORDER BY rowid`)
	if err != nil {
		return nil, &util.FormatError{Path: path, Reason: "failed to query mapping", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var code, identity sql.NullString
		if err := rows.Scan(&code, &identity); err != nil {
			return nil, &util.FormatError{Path: path, Row: len(entries) + 1, Reason: "unreadable row", Err: err}
		}
		if !code.Valid || !identity.Valid {
			return nil, &util.FormatError{Path: path, Row: len(entries) + 1, Reason: "null column"}
		}
		entries = append(entries, Entry{Code: code.String, Identity: identity.String})
	}
	if err := rows.Err(); err != nil {
		return nil, &util.FormatError{Path: path, Reason: "failed to read mapping", Err: err}
	}
	return numbered(entries), nil
}

func tableColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no table named %s", table)
	}
	return cols, nil
}

func (sqliteFormat) Write(path string, entries []Entry) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO mapping (code, identity) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(e.Code, e.Identity); err != nil {
			return fmt.Errorf("failed to insert code %s: %w", e.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}
