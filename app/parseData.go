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

// Package app reads trial data, builds the Andersen-Gill tables and writes them out.
package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"

	"agtab/trial"
	"agtab/utils"
)

// ParseError reports a malformed record of an input file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// csvTable reads a csv file with a header line and looks up the columns by name.
type csvTable struct {
	name    string
	reader  *csv.Reader
	columns map[string]int
	log     *zerolog.Logger
}

func newCSVTable(r io.Reader, name string, log *zerolog.Logger) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{File: name, Line: 1, Err: errors.New("empty file, expected a header line")}
	}
	if err != nil {
		return nil, &ParseError{File: name, Line: 1, Err: err}
	}
	columns := map[string]int{}
	for i, column := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")))] = i
	}
	return &csvTable{name: name, reader: reader, columns: columns, log: log}, nil
}

func (t *csvTable) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

func (t *csvTable) require(columns ...string) error {
	for _, column := range columns {
		if !t.has(column) {
			return &ParseError{File: t.name, Line: 1, Err: fmt.Errorf("missing column %q", column)}
		}
	}
	return nil
}

// next returns the next record, or nil at the end of the file.
func (t *csvTable) next() ([]string, error) {
	record, err := t.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, &ParseError{File: t.name, Line: csvErr.StartLine, Err: csvErr.Err}
		}
		return nil, &ParseError{File: t.name, Err: err}
	}
	return record, nil
}

func (t *csvTable) line() int {
	line, _ := t.reader.FieldPos(0)
	return line
}

func (t *csvTable) field(record []string, column string) string {
	return strings.TrimSpace(record[t.columns[column]])
}

// fail logs the offending record at debug level and wraps err with the current position.
func (t *csvTable) fail(record []string, err error) error {
	t.log.Debug().Str("file", t.name).Int("line", t.line()).Str("record", spew.Sdump(record)).Msg("Malformed record")
	return &ParseError{File: t.name, Line: t.line(), Err: err}
}

func openCSVTable(file string, log *zerolog.Logger) (*csvTable, func() error, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	table, err := newCSVTable(f, file, log)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return table, f.Close, nil
}

// parseEvents reads events from a csv table with the columns patient_id, event_type and event_date. Event types are
// given by name or by numeric code.
func parseEvents(table *csvTable) ([]trial.Event, error) {
	if err := table.require("patient_id", "event_type", "event_date"); err != nil {
		return nil, err
	}
	var events []trial.Event
	for {
		record, err := table.next()
		if err != nil {
			return nil, err
		}
		if record == nil {
			break
		}
		pid, err := strconv.Atoi(table.field(record, "patient_id"))
		if err != nil {
			return nil, table.fail(record, fmt.Errorf("invalid patient id: %w", err))
		}
		eventType, err := trial.ParseEventType(table.field(record, "event_type"))
		if err != nil {
			return nil, table.fail(record, err)
		}
		date, err := utils.ParseDate(table.field(record, "event_date"))
		if err != nil {
			return nil, table.fail(record, err)
		}
		events = append(events, trial.Event{PatientID: pid, Type: eventType, Date: date})
	}
	return events, nil
}

// ParseEvents parses an events csv file.
func ParseEvents(file string, log *zerolog.Logger) (events []trial.Event, err error) {
	table, closeFile, err := openCSVTable(file, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closeFile(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if events, err = parseEvents(table); err != nil {
		return nil, err
	}
	log.Info().Str("file", file).Int("events", len(events)).Msg("Parsed events")
	return events, nil
}

// parsePatients reads classifications from a csv table with the columns patient_id, arm and either compliance or
// weeks_completed. In the latter case compliance is derived with the given threshold.
func parsePatients(table *csvTable, threshold int) ([]trial.Classification, error) {
	if err := table.require("patient_id", "arm"); err != nil {
		return nil, err
	}
	byWeeks := !table.has("compliance")
	if byWeeks {
		if err := table.require("weeks_completed"); err != nil {
			return nil, err
		}
	}
	seen := map[int]bool{}
	var patients []trial.Classification
	for {
		record, err := table.next()
		if err != nil {
			return nil, err
		}
		if record == nil {
			break
		}
		pid, err := strconv.Atoi(table.field(record, "patient_id"))
		if err != nil {
			return nil, table.fail(record, fmt.Errorf("invalid patient id: %w", err))
		}
		if seen[pid] {
			return nil, table.fail(record, fmt.Errorf("patient %d listed more than once", pid))
		}
		seen[pid] = true
		arm, err := trial.ParseArm(table.field(record, "arm"))
		if err != nil {
			return nil, table.fail(record, err)
		}
		var compliance trial.Compliance
		if byWeeks {
			weeks, err := strconv.Atoi(table.field(record, "weeks_completed"))
			if err != nil {
				return nil, table.fail(record, fmt.Errorf("invalid weeks completed: %w", err))
			}
			if compliance, err = trial.ComplianceFromWeeks(arm, weeks, threshold); err != nil {
				return nil, table.fail(record, err)
			}
		} else if compliance, err = trial.ParseCompliance(table.field(record, "compliance")); err != nil {
			return nil, table.fail(record, err)
		}
		c := trial.Classification{PatientID: pid, Arm: arm, Compliance: compliance}
		if err := c.Validate(); err != nil {
			return nil, table.fail(record, err)
		}
		patients = append(patients, c)
	}
	return patients, nil
}

// ParsePatients parses a patients csv file.
func ParsePatients(file string, threshold int, log *zerolog.Logger) (patients []trial.Classification, err error) {
	table, closeFile, err := openCSVTable(file, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closeFile(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if patients, err = parsePatients(table, threshold); err != nil {
		return nil, err
	}
	intervention := 0
	for _, p := range patients {
		if p.Arm == trial.Intervention {
			intervention++
		}
	}
	log.Info().Str("file", file).Int("patients", len(patients)).Int("intervention", intervention).
		Msg("Parsed patients")
	return patients, nil
}
