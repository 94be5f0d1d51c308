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
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"agtab/trial"
)

// IntervalSchemaNote describes the interval tables for their readers.
const IntervalSchemaNote = "Rows of a patient are in time order. time0 and time1 are days since enrollment, status " +
	"1 means the row ends in an event and 0 means administrative censoring. Days spent in hospital are removed, so " +
	"time0 of a row can be larger than time1 of the previous row. Same-day events give rows with time0 == time1."

func itoa(i int) string {
	return strconv.Itoa(i)
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

func writeCSVFile(name string, header []string, records [][]string) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writeCSV(file, header, records)
}

var intervalHeader = []string{"id", "itt_group", "at_group", "time0", "time1", "status"}

func intervalRecords(rows []trial.IntervalRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{itoa(r.PatientID), itoa(r.ITTGroup), itoa(r.ATGroup), itoa(r.Time0),
			itoa(r.Time1), itoa(int(r.Status))})
	}
	return records
}

// WriteIntervals writes Andersen-Gill rows as csv. See IntervalSchemaNote.
func WriteIntervals(w io.Writer, rows []trial.IntervalRow) error {
	return writeCSV(w, intervalHeader, intervalRecords(rows))
}

var windowHeader = []string{"id", "start", "end", "days", "died"}

func windowRecords(windows []trial.ObservationWindow) [][]string {
	records := make([][]string, 0, len(windows))
	for _, w := range windows {
		records = append(records, []string{itoa(w.PatientID), w.Start.String(), w.End.String(), itoa(w.Days()),
			strconv.FormatBool(w.Died)})
	}
	return records
}

// WriteWindows writes the observation windows as csv.
func WriteWindows(w io.Writer, windows []trial.ObservationWindow) error {
	return writeCSV(w, windowHeader, windowRecords(windows))
}

var firstEventHeader = []string{"id", "itt_group", "at_group", "time", "status"}

func firstEventRecords(rows []trial.FirstEventRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{itoa(r.PatientID), itoa(r.ITTGroup), itoa(r.ATGroup), itoa(r.Time),
			itoa(int(r.Status))})
	}
	return records
}

// WriteFirstEvents writes time-to-first-event rows as csv.
func WriteFirstEvents(w io.Writer, rows []trial.FirstEventRow) error {
	return writeCSV(w, firstEventHeader, firstEventRecords(rows))
}

var countHeader = []string{"category", "grouping", "group", "label", "patients", "events", "at_risk_days",
	"events_per_patient_year"}

func countRecords(counts []trial.GroupCount) [][]string {
	records := make([][]string, 0, len(counts))
	for _, c := range counts {
		records = append(records, []string{c.Category.String(), c.Grouping.String(), itoa(c.Group), c.Label,
			itoa(c.Patients), itoa(c.Events), itoa(c.AtRiskDays),
			strconv.FormatFloat(c.EventsPerPatientYear(), 'f', 4, 64)})
	}
	return records
}

// WriteCounts writes event counts by group as csv.
func WriteCounts(w io.Writer, counts []trial.GroupCount) error {
	return writeCSV(w, countHeader, countRecords(counts))
}

// IntervalsFileName returns the name of the interval table of a category.
func IntervalsFileName(category trial.Category) string {
	return "analysis_recurrent_" + category.String() + ".csv"
}

// FirstEventsFileName returns the name of the time-to-first-event table of a category.
func FirstEventsFileName(category trial.Category) string {
	return "analysis_first_" + category.String() + ".csv"
}

const (
	WindowsFileName = "observation_windows.csv"
	CountsFileName  = "event_counts.csv"
)

// WriteTables writes all csv tables into dir and returns the names of the files written, relative to dir.
func WriteTables(dir string, tables *trial.Tables) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var files []string
	write := func(name string, header []string, records [][]string) error {
		files = append(files, name)
		return writeCSVFile(filepath.Join(dir, name), header, records)
	}
	var counts []trial.GroupCount
	for _, category := range trial.Categories() {
		if err := write(IntervalsFileName(category), intervalHeader, intervalRecords(tables.Rows(category))); err != nil {
			return nil, err
		}
		if err := write(FirstEventsFileName(category), firstEventHeader,
			firstEventRecords(tables.FirstEvents(category))); err != nil {
			return nil, err
		}
		counts = append(counts, tables.Counts(category)...)
	}
	if err := write(WindowsFileName, windowHeader, windowRecords(tables.Windows)); err != nil {
		return nil, err
	}
	if err := write(CountsFileName, countHeader, countRecords(counts)); err != nil {
		return nil, err
	}
	return files, nil
}
