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
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"agtab/trial"
)

// Version is the program version recorded in every manifest.
const Version = "1.0.0"

const ManifestFileName = "manifest.yaml"

// CategorySummary summarizes the tables of one category.
type CategorySummary struct {
	Name           string `yaml:"name"`
	IntervalsFile  string `yaml:"intervals_file"`
	FirstEventFile string `yaml:"first_event_file"`
	Rows           int    `yaml:"rows"`
	Events         int    `yaml:"events"`
	MaskedDays     int    `yaml:"masked_days"`
}

// Manifest records how a set of tables was produced.
type Manifest struct {
	RunID           string            `yaml:"run_id"`
	Version         string            `yaml:"version"`
	CreatedAt       time.Time         `yaml:"created_at"`
	CensorDate      string            `yaml:"censor_date"`
	EventsFile      string            `yaml:"events_file"`
	PatientsFile    string            `yaml:"patients_file"`
	Dedup           string            `yaml:"dedup"`
	Patients        int               `yaml:"patients"`
	Excluded        []int             `yaml:"excluded,omitempty"`
	LateEnrollments []int             `yaml:"late_enrollments,omitempty"`
	Categories      []CategorySummary `yaml:"categories"`
	Files           []string          `yaml:"files"`
	Sinks           []string          `yaml:"sinks,omitempty"`
	IntervalSchema  string            `yaml:"interval_schema"`
}

// NewManifest summarizes the tables of a run.
func NewManifest(p *Params, tables *trial.Tables, files []string) *Manifest {
	m := &Manifest{
		RunID:           uuid.NewString(),
		Version:         Version,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		CensorDate:      tables.CensorDate.String(),
		EventsFile:      p.EventsFile,
		PatientsFile:    p.PatientsFile,
		Dedup:           tables.Dedup.String(),
		Patients:        len(tables.Patients),
		Excluded:        p.Exclude,
		LateEnrollments: tables.Excluded,
		Files:           files,
		IntervalSchema:  IntervalSchemaNote,
	}
	for _, category := range trial.Categories() {
		events := 0
		for _, row := range tables.Rows(category) {
			if row.Status == trial.EventOccurred {
				events++
			}
		}
		m.Categories = append(m.Categories, CategorySummary{
			Name:           category.String(),
			IntervalsFile:  IntervalsFileName(category),
			FirstEventFile: FirstEventsFileName(category),
			Rows:           len(tables.Rows(category)),
			Events:         events,
			MaskedDays:     tables.MaskedDays(category),
		})
	}
	return m
}

// WriteManifest writes a manifest as yaml.
func WriteManifest(name string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(name string) (*Manifest, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
