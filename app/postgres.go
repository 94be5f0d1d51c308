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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agtab/trial"
)

// PostgresSink bulk loads the tables of runs into Postgres.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// ConnectPostgres connects to a database and creates the tables if needed.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresSink{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *PostgresSink) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS ag_runs (
		run_id UUID PRIMARY KEY,
		version TEXT NOT NULL,
		censor_date DATE NOT NULL,
		dedup TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ag_intervals (
		run_id UUID NOT NULL REFERENCES ag_runs(run_id),
		category TEXT NOT NULL,
		seq INTEGER NOT NULL,
		id INTEGER NOT NULL,
		itt_group SMALLINT NOT NULL,
		at_group SMALLINT NOT NULL,
		time0 INTEGER NOT NULL,
		time1 INTEGER NOT NULL,
		status SMALLINT NOT NULL,
		PRIMARY KEY (run_id, category, seq)
	);
	CREATE TABLE IF NOT EXISTS ag_windows (
		run_id UUID NOT NULL REFERENCES ag_runs(run_id),
		id INTEGER NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		died BOOLEAN NOT NULL,
		PRIMARY KEY (run_id, id)
	);`)
	return err
}

var (
	intervalColumns = []string{"run_id", "category", "seq", "id", "itt_group", "at_group", "time0", "time1", "status"}
	windowColumns   = []string{"run_id", "id", "start_date", "end_date", "died"}
)

func intervalCopyRows(runID uuid.UUID, tables *trial.Tables) [][]any {
	var rows [][]any
	for _, category := range trial.Categories() {
		for seq, r := range tables.Rows(category) {
			rows = append(rows, []any{runID, category.String(), seq, r.PatientID, r.ITTGroup, r.ATGroup, r.Time0,
				r.Time1, int(r.Status)})
		}
	}
	return rows
}

func windowCopyRows(runID uuid.UUID, tables *trial.Tables) [][]any {
	rows := make([][]any, 0, len(tables.Windows))
	for _, w := range tables.Windows {
		rows = append(rows, []any{runID, w.PatientID, w.Start.In(time.UTC), w.End.In(time.UTC), w.Died})
	}
	return rows
}

// Write copies the tables of a run in one transaction.
func (s *PostgresSink) Write(ctx context.Context, m *Manifest, tables *trial.Tables) (err error) {
	runID, err := uuid.Parse(m.RunID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if _, err = tx.Exec(ctx,
		`INSERT INTO ag_runs (run_id, version, censor_date, dedup, created_at) VALUES ($1, $2, $3, $4, $5)`,
		runID, m.Version, tables.CensorDate.In(time.UTC), m.Dedup, m.CreatedAt); err != nil {
		return err
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"ag_intervals"}, intervalColumns,
		pgx.CopyFromRows(intervalCopyRows(runID, tables))); err != nil {
		return fmt.Errorf("copy intervals: %w", err)
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"ag_windows"}, windowColumns,
		pgx.CopyFromRows(windowCopyRows(runID, tables))); err != nil {
		return fmt.Errorf("copy windows: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}
