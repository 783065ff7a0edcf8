// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, registered under "sqlite"
)

// SQLiteStore persists the evaluation key to the single-row
// server_keys(id, kind, blob) table described in spec.md §6. It is the
// only durable state this coordinator keeps.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the SQLite database at
// path and ensures the server_keys table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open sqlite: %w", err)
	}
	// The embedded driver doesn't tolerate concurrent writers well;
	// this table sees at most one write per key install, so a single
	// connection is plenty and avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS server_keys (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		kind TEXT NOT NULL,
		blob BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store: most-recent-wins upsert of the single row.
func (s *SQLiteStore) Save(kind Kind, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO server_keys (id, kind, blob) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET kind = excluded.kind, blob = excluded.blob`,
		string(kind), blob,
	)
	if err != nil {
		return fmt.Errorf("registry: save: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load() (Kind, []byte, bool, error) {
	var kind string
	var blob []byte
	err := s.db.QueryRow(`SELECT kind, blob FROM server_keys WHERE id = 1`).Scan(&kind, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("registry: load: %w", err)
	}
	return Kind(kind), blob, true, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
