// Copyright ©2014 The binding-sites Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vcaboara/binding-sites/scan"
)

const schema = `
CREATE TABLE IF NOT EXISTS binding_sites (
	run_id   TEXT NOT NULL,
	found_at TEXT NOT NULL,
	region   TEXT NOT NULL,
	pattern  TEXT NOT NULL,
	parent   TEXT NOT NULL,
	length   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS binding_sites_run ON binding_sites (run_id);
`

// Store persists result rows to a SQLite database so separate runs of
// the batch tool can be queried and compared later. Every row carries
// the identifier of the run that produced it.
type Store struct {
	db  *sql.DB
	run string
}

// OpenStore opens (creating if needed) the database at path. An empty
// runID gets a fresh one.
func OpenStore(path, runID string) (*Store, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, run: runID}, nil
}

// RunID returns the identifier rows written by this Store carry.
func (s *Store) RunID() string { return s.run }

func (s *Store) Write(r scan.Row) error {
	_, err := s.db.Exec(
		`INSERT INTO binding_sites (run_id, found_at, region, pattern, parent, length) VALUES (?, ?, ?, ?, ?, ?)`,
		s.run, time.Now().UTC().Format(time.RFC3339), r.Region, r.Pattern, r.Parent, r.Length,
	)
	return err
}

// Rows returns the rows recorded for a run in insertion order.
func (s *Store) Rows(runID string) ([]scan.Row, error) {
	rows, err := s.db.Query(
		`SELECT region, pattern, parent, length FROM binding_sites WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []scan.Row
	for rows.Next() {
		var r scan.Row
		if err := rows.Scan(&r.Region, &r.Pattern, &r.Parent, &r.Length); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
