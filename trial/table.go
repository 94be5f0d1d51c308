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

package trial

import (
	"errors"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/exascience/pargo/parallel"
	"github.com/rs/zerolog"
)

// Options controls how BuildTables assembles the tables of a cohort.
type Options struct {
	// Workers is the number of batches the cohort is split into. 0 lets pargo decide.
	Workers int
	Dedup   DedupPolicy
	// CollectErrors runs every patient and reports all errors instead of only the first one.
	CollectErrors bool
	// ExcludeLateEnrollment drops patients enrolled after the censor date instead of failing.
	ExcludeLateEnrollment bool
	Filters               []PatientFilter
	Logger                *zerolog.Logger
}

func (opts Options) logger() *zerolog.Logger {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return opts.Logger
}

// Tables holds everything derived from a cohort for one censor date. All slices are ordered by patient id.
type Tables struct {
	CensorDate  civil.Date
	Dedup       DedupPolicy
	Patients    []Classification
	Windows     []ObservationWindow
	Excluded    []int
	rows        [2][]IntervalRow
	firstEvents [2][]FirstEventRow
	maskedDays  [2]int
}

// Rows returns the Andersen-Gill rows of a category.
func (t *Tables) Rows(category Category) []IntervalRow {
	return t.rows[category]
}

// FirstEvents returns the time-to-first-event rows of a category.
func (t *Tables) FirstEvents(category Category) []FirstEventRow {
	return t.firstEvents[category]
}

// MaskedDays returns the number of hospitalized days removed from the rows of a category.
func (t *Tables) MaskedDays(category Category) int {
	return t.maskedDays[category]
}

// Counts returns the event counts by ITT and AT group of a category.
func (t *Tables) Counts(category Category) []GroupCount {
	return CountByGroup(category, t.rows[category])
}

// RowCount returns the total number of interval rows over all categories.
func (t *Tables) RowCount() int {
	n := 0
	for _, rows := range t.rows {
		n += len(rows)
	}
	return n
}

type patientTables struct {
	window      ObservationWindow
	rows        [2][]IntervalRow
	firstEvents [2]FirstEventRow
	maskedDays  [2]int
	err         error
}

func buildPatientTables(store *EventStore, c Classification, censorDate civil.Date, dedup DedupPolicy) (result patientTables) {
	w, err := ResolveWindow(store, c.PatientID, censorDate)
	if err != nil {
		result.err = err
		return
	}
	result.window = w
	for _, category := range Categories() {
		events := dedup.Apply(store.FindCategoryEventsBetween(c.PatientID, category.Types(), w.Start, w.End))
		result.rows[category], result.maskedDays[category] = FormatIntervals(w, c, category, events)
		result.firstEvents[category] = FirstEvent(store, w, c, category)
	}
	return
}

// checkCohort verifies that every classification is valid and unique, and that every patient with events is
// classified.
func checkCohort(store *EventStore, classifications []Classification) error {
	classified := map[int]bool{}
	for _, c := range classifications {
		if err := c.Validate(); err != nil {
			return err
		}
		if classified[c.PatientID] {
			return &IntegrityError{PatientID: c.PatientID, Reason: "classified more than once"}
		}
		classified[c.PatientID] = true
	}
	for _, pid := range store.PatientIDs() {
		if !classified[pid] {
			return &IntegrityError{PatientID: pid, Reason: "events but no classification"}
		}
	}
	return nil
}

// BuildTables builds the interval tables of all classified patients that pass the filters, in ascending patient id,
// and for each patient the categories in the order of Categories. Patients are processed in parallel; the result
// does not depend on the number of workers.
func BuildTables(store *EventStore, classifications []Classification, censorDate civil.Date, opts Options) (*Tables, error) {
	if err := checkCohort(store, classifications); err != nil {
		return nil, err
	}
	cohort := ApplyPatientFilters(opts.Filters, classifications)
	sort.Slice(cohort, func(i, j int) bool {
		return cohort[i].PatientID < cohort[j].PatientID
	})
	slots := make([]patientTables, len(cohort))
	parallel.Range(0, len(cohort), opts.Workers, func(low, high int) {
		for i := low; i < high; i++ {
			slots[i] = buildPatientTables(store, cohort[i], censorDate, opts.Dedup)
		}
	})
	log := opts.logger()
	tables := &Tables{CensorDate: censorDate, Dedup: opts.Dedup}
	var errs []error
	for i, slot := range slots {
		c := cohort[i]
		if slot.err != nil {
			var late *EnrollmentAfterCensorError
			if opts.ExcludeLateEnrollment && errors.As(slot.err, &late) {
				log.Warn().Int("patient", c.PatientID).Stringer("enrollment", late.Enrollment).
					Stringer("censor", late.Censor).Msg("Excluding patient enrolled after the censor date")
				tables.Excluded = append(tables.Excluded, c.PatientID)
				continue
			}
			if !opts.CollectErrors {
				return nil, slot.err
			}
			errs = append(errs, slot.err)
			continue
		}
		tables.Patients = append(tables.Patients, c)
		tables.Windows = append(tables.Windows, slot.window)
		for _, category := range Categories() {
			tables.rows[category] = append(tables.rows[category], slot.rows[category]...)
			tables.firstEvents[category] = append(tables.firstEvents[category], slot.firstEvents[category])
			tables.maskedDays[category] += slot.maskedDays[category]
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tables, nil
}
