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
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleEDVisitBeforeCensor(t *testing.T) {
	start := date(2022, 1, 1)
	store := NewEventStore(enrolled(1, start, ev(1, EDNoAdmit, date(2022, 1, 10))))
	w, err := ResolveWindow(store, 1, date(2022, 2, 1))
	require.NoError(t, err)
	events := store.FindCategoryEventsBetween(1, EDUse.Types(), w.Start, w.End)
	rows, masked := FormatIntervals(w, usual(1), EDUse, events)
	assert.Equal(t, [][3]int{{0, 9, 1}, {9, 31, 0}}, rowTimes(rows))
	assert.Zero(t, masked)
}

func TestDeathAfterCensorWithoutEvents(t *testing.T) {
	start := date(2022, 1, 1)
	store := NewEventStore(enrolled(1, start, ev(1, Death, date(2022, 3, 1))))
	w, err := ResolveWindow(store, 1, date(2022, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2022, 2, 1), w.End)
	assert.False(t, w.Died)
	for _, category := range Categories() {
		events := store.FindCategoryEventsBetween(1, category.Types(), w.Start, w.End)
		rows, _ := FormatIntervals(w, usual(1), category, events)
		assert.Equal(t, [][3]int{{0, 31, 0}}, rowTimes(rows))
	}
}

func TestAdmissionIsMasked(t *testing.T) {
	start := date(2022, 1, 1)
	store := NewEventStore(enrolled(1, start,
		ev(1, AdmitED, offset(start, 5)),
		ev(1, AdmitEDEnds, offset(start, 8)),
	))
	w, err := ResolveWindow(store, 1, offset(start, 20))
	require.NoError(t, err)
	events := store.FindCategoryEventsBetween(1, UnplannedAdmission.Types(), w.Start, w.End)

	raw := BuildIntervals(w, compliant(1), UnplannedAdmission, events)
	rawRows := make([]IntervalRow, len(raw))
	for i, interval := range raw {
		rawRows[i] = interval.Row
	}
	assert.Equal(t, [][3]int{{0, 5, 1}, {5, 8, 1}, {8, 20, 0}}, rowTimes(rawRows))
	assert.Equal(t, []bool{true, false, true}, RiskMask(raw))

	rows, masked := FormatIntervals(w, compliant(1), UnplannedAdmission, events)
	assert.Equal(t, [][3]int{{0, 5, 1}, {8, 20, 0}}, rowTimes(rows))
	assert.Equal(t, 3, masked)
	for _, row := range rows {
		assert.Equal(t, 1, row.ITTGroup)
		assert.Equal(t, 1, row.ATGroup)
		assert.Equal(t, UnplannedAdmission, row.Category)
	}
}

func TestElectiveAdmissionEndIsNotMasked(t *testing.T) {
	start := date(2022, 1, 1)
	w := ObservationWindow{PatientID: 1, Start: start, End: offset(start, 10)}
	intervals := BuildIntervals(w, usual(1), UnplannedAdmission, []Event{ev(1, AdmitElectiveEnds, offset(start, 4))})
	assert.Equal(t, []bool{true, true}, RiskMask(intervals))
}

func TestSameDayEventsGiveZeroLengthRows(t *testing.T) {
	start := date(2022, 1, 1)
	w := ObservationWindow{PatientID: 1, Start: start, End: offset(start, 10)}
	events := []Event{ev(1, EDNoAdmit, offset(start, 3)), ev(1, AdmitED, offset(start, 3))}
	rows, masked := FormatIntervals(w, noncompliant(1), EDUse, events)
	assert.Equal(t, [][3]int{{0, 3, 1}, {3, 3, 1}, {3, 10, 0}}, rowTimes(rows))
	assert.Zero(t, masked)
	assert.Equal(t, 1, rows[0].ITTGroup)
	assert.Equal(t, 0, rows[0].ATGroup)
}

func TestBuildIntervalsRejectsEventsOutsideWindow(t *testing.T) {
	start := date(2022, 1, 1)
	w := ObservationWindow{PatientID: 1, Start: start, End: offset(start, 10)}
	assert.Panics(t, func() {
		BuildIntervals(w, usual(1), EDUse, []Event{ev(1, EDNoAdmit, offset(start, 11))})
	})
	assert.Panics(t, func() {
		BuildIntervals(w, usual(1), EDUse, []Event{ev(1, EDNoAdmit, offset(start, -1))})
	})
	assert.Panics(t, func() {
		BuildIntervals(w, usual(1), EDUse, []Event{ev(1, EDNoAdmit, offset(start, 5)), ev(1, EDNoAdmit, offset(start, 2))})
	})
	assert.Panics(t, func() {
		BuildIntervals(w, usual(1), EDUse, []Event{ev(2, EDNoAdmit, offset(start, 5))})
	})
}

var dataEventTypes = []EventType{EDNoAdmit, AdmitED, AdmitClinic, AdmitElective, AdmitEDEnds, AdmitClinicEnds,
	AdmitElectiveEnds}

const windowDays = 200

// codesToEvents decodes generated integers into sorted events strictly inside a window of windowDays days.
func codesToEvents(w ObservationWindow, codes []int) []Event {
	events := make([]Event, len(codes))
	for i, code := range codes {
		events[i] = ev(w.PatientID, dataEventTypes[code%len(dataEventTypes)],
			offset(w.Start, code/len(dataEventTypes)+1))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return EventLess(events[i], events[j])
	})
	return events
}

func genCodes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, (windowDays-1)*len(dataEventTypes)-1))
}

func TestIntervalProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	start := date(2023, 6, 1)
	w := ObservationWindow{PatientID: 7, Start: start, End: offset(start, windowDays)}

	properties.Property("intervals are contiguous before masking", prop.ForAll(
		func(codes []int) bool {
			intervals := BuildIntervals(w, usual(7), UnplannedAdmission, codesToEvents(w, codes))
			if intervals[0].Row.Time0 != 0 {
				return false
			}
			for i := 1; i < len(intervals); i++ {
				if intervals[i].Row.Time0 != intervals[i-1].Row.Time1 {
					return false
				}
			}
			return intervals[len(intervals)-1].Row.Time1 == w.Days()
		},
		genCodes(),
	))

	properties.Property("only the last interval is censored", prop.ForAll(
		func(codes []int) bool {
			rows, _ := FormatIntervals(w, compliant(7), EDUse, codesToEvents(w, codes))
			for i, row := range rows {
				last := i == len(rows)-1
				if last != (row.Status == Censored) {
					return false
				}
			}
			return true
		},
		genCodes(),
	))

	properties.Property("kept and masked days add up to the window", prop.ForAll(
		func(codes []int) bool {
			rows, masked := FormatIntervals(w, usual(7), UnplannedAdmission, codesToEvents(w, codes))
			sum := 0
			for _, row := range rows {
				sum += row.Days()
			}
			return sum+masked == w.Days()
		},
		genCodes(),
	))

	properties.Property("masking without admission ends keeps everything", prop.ForAll(
		func(codes []int) bool {
			events := []Event{}
			for _, e := range codesToEvents(w, codes) {
				if !e.Type.MasksPrecedingInterval() {
					events = append(events, e)
				}
			}
			intervals := BuildIntervals(w, usual(7), EDUse, events)
			for _, keep := range RiskMask(intervals) {
				if !keep {
					return false
				}
			}
			rows, masked := MaskRiskPeriods(intervals)
			return masked == 0 && len(rows) == len(events)+1
		},
		genCodes(),
	))

	properties.TestingRun(t)
}
