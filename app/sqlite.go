// PTRA: Patient Trajectory Analysis Library
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"agtab/trial"
)

// SQLiteSink stores the tables of runs in a SQLite database. Every run is kept under its own run id.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database and its tables.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &SQLiteSink{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		censor_date TEXT NOT NULL,
		dedup TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS intervals (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		category TEXT NOT NULL,
		seq INTEGER NOT NULL,
		id INTEGER NOT NULL,
		itt_group INTEGER NOT NULL,
		at_group INTEGER NOT NULL,
		time0 INTEGER NOT NULL,
		time1 INTEGER NOT NULL,
		status INTEGER NOT NULL,
		PRIMARY KEY (run_id, category, seq)
	);
	CREATE TABLE IF NOT EXISTS first_events (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		category TEXT NOT NULL,
		id INTEGER NOT NULL,
		itt_group INTEGER NOT NULL,
		at_group INTEGER NOT NULL,
		time INTEGER NOT NULL,
		status INTEGER NOT NULL,
		PRIMARY KEY (run_id, category, id)
	);
	CREATE TABLE IF NOT EXISTS windows (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		died INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Write stores the tables of a run in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, m *Manifest, tables *trial.Tables) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, version, censor_date, dedup, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.RunID, m.Version, m.CensorDate, m.Dedup, m.CreatedAt); err != nil {
		return err
	}
	intervals, err := tx.PrepareContext(ctx, `INSERT INTO intervals
		(run_id, category, seq, id, itt_group, at_group, time0, time1, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = intervals.Close() }()
	firstEvents, err := tx.PrepareContext(ctx, `INSERT INTO first_events
		(run_id, category, id, itt_group, at_group, time, status) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = firstEvents.Close() }()
	for _, category := range trial.Categories() {
		for seq, r := range tables.Rows(category) {
			if _, err = intervals.ExecContext(ctx, m.RunID, category.String(), seq, r.PatientID, r.ITTGroup,
				r.ATGroup, r.Time0, r.Time1, int(r.Status)); err != nil {
				return err
			}
		}
		for _, r := range tables.FirstEvents(category) {
			if _, err = firstEvents.ExecContext(ctx, m.RunID, category.String(), r.PatientID, r.ITTGroup,
				r.ATGroup, r.Time, int(r.Status)); err != nil {
				return err
			}
		}
	}
	for _, w := range tables.Windows {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO windows (run_id, id, start_date, end_date, died) VALUES (?, ?, ?, ?, ?)`,
			m.RunID, w.PatientID, w.Start.String(), w.End.String(), w.Died); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IntervalRows reads back the interval rows of a run and category in their original order.
func (s *SQLiteSink) IntervalRows(ctx context.Context, runID string, category trial.Category) ([]trial.IntervalRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, itt_group, at_group, time0, time1, status
		FROM intervals
		WHERE run_id = ? AND category = ?
		ORDER BY seq`, runID, category.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []trial.IntervalRow
	for rows.Next() {
		r := trial.IntervalRow{Category: category}
		var status int
		if err := rows.Scan(&r.PatientID, &r.ITTGroup, &r.ATGroup, &r.Time0, &r.Time1, &status); err != nil {
			return nil, err
		}
		r.Status = trial.Status(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

// Runs returns the ids of all runs stored in the database.
func (s *SQLiteSink) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
