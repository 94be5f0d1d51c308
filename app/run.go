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
	"path/filepath"
	"runtime"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"agtab/config"
	"agtab/trial"
)

// Params are the inputs of one table build.
type Params struct {
	// required parameters
	EventsFile   string
	PatientsFile string
	OutputPath   string
	CensorDate   civil.Date

	// optional parameters
	Exclude               []int
	Workers               int
	Dedup                 trial.DedupPolicy
	CollectErrors         bool
	ExcludeLateEnrollment bool
	ComplianceThreshold   int
	SQLite                string // path of a SQLite database to also write to
	DatabaseURL           string // Postgres database to also write to
	Logger                *zerolog.Logger
}

// ParamsFromConfig converts a validated configuration into build parameters.
func ParamsFromConfig(cfg *config.Config, log *zerolog.Logger) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	censor, err := cfg.Censor()
	if err != nil {
		return nil, err
	}
	dedup, err := cfg.DedupPolicy()
	if err != nil {
		return nil, err
	}
	return &Params{
		EventsFile:            cfg.Events,
		PatientsFile:          cfg.Patients,
		OutputPath:            cfg.Output,
		CensorDate:            censor,
		Exclude:               cfg.Exclude,
		Workers:               cfg.Workers,
		Dedup:                 dedup,
		CollectErrors:         cfg.CollectErrors,
		ExcludeLateEnrollment: cfg.ExcludeLateEnrollment,
		ComplianceThreshold:   cfg.ComplianceThreshold,
		SQLite:                cfg.SQLite,
		DatabaseURL:           cfg.DatabaseURL,
		Logger:                log,
	}, nil
}

func (p *Params) logger() *zerolog.Logger {
	if p.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return p.Logger
}

// Run parses the input files, builds the tables, and writes them to the output path and the configured databases,
// followed by a manifest. It returns the manifest.
func Run(ctx context.Context, p *Params) (m *Manifest, err error) {
	log := p.logger()
	defer func() {
		// contract violations in the core panic, report them as errors
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic during table build")
			m, err = nil, fmt.Errorf("failed to build tables: %v", r)
		}
	}()

	if p.Workers > 0 {
		runtime.GOMAXPROCS(p.Workers)
	}
	threshold := p.ComplianceThreshold
	if threshold == 0 {
		threshold = trial.DefaultComplianceThreshold
	}

	events, err := ParseEvents(p.EventsFile, log)
	if err != nil {
		return nil, err
	}
	patients, err := ParsePatients(p.PatientsFile, threshold, log)
	if err != nil {
		return nil, err
	}

	opts := trial.Options{
		Workers:               p.Workers,
		Dedup:                 p.Dedup,
		CollectErrors:         p.CollectErrors,
		ExcludeLateEnrollment: p.ExcludeLateEnrollment,
		Logger:                log,
	}
	if len(p.Exclude) > 0 {
		opts.Filters = append(opts.Filters, trial.ExcludeFilter(p.Exclude...))
	}
	tables, err := trial.BuildTables(trial.NewEventStore(events), patients, p.CensorDate, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Int("patients", len(tables.Patients)).Int("rows", tables.RowCount()).
		Ints("late_enrollments", tables.Excluded).Stringer("censor_date", p.CensorDate).Msg("Built tables")

	files, err := WriteTables(p.OutputPath, tables)
	if err != nil {
		return nil, err
	}
	log.Info().Str("output", p.OutputPath).Strs("files", files).Msg("Wrote tables")
	m = NewManifest(p, tables, files)

	if p.SQLite != "" {
		if err := writeSQLite(ctx, p.SQLite, m, tables); err != nil {
			return nil, err
		}
		m.Sinks = append(m.Sinks, "sqlite:"+p.SQLite)
		log.Info().Str("database", p.SQLite).Str("run_id", m.RunID).Msg("Stored tables in SQLite")
	}
	if p.DatabaseURL != "" {
		if err := writePostgres(ctx, p.DatabaseURL, m, tables); err != nil {
			return nil, err
		}
		m.Sinks = append(m.Sinks, "postgres")
		log.Info().Str("run_id", m.RunID).Msg("Copied tables to Postgres")
	}

	if err := WriteManifest(filepath.Join(p.OutputPath, ManifestFileName), m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeSQLite(ctx context.Context, path string, m *Manifest, tables *trial.Tables) (err error) {
	sink, err := OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return sink.Write(ctx, m, tables)
}

func writePostgres(ctx context.Context, databaseURL string, m *Manifest, tables *trial.Tables) error {
	sink, err := ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Write(ctx, m, tables)
}
