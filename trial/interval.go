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
	"fmt"
)

// Status says how an interval ends.
type Status int

const (
	Censored      Status = 0
	EventOccurred Status = 1
)

func (s Status) String() string {
	if s == EventOccurred {
		return "EVENT_OCCURRED"
	}
	return "CENSORED"
}

// IntervalRow is one row of an Andersen-Gill table: the patient is at risk from day Time0 to day Time1 after
// enrollment, and the interval ends in an event or in censoring.
type IntervalRow struct {
	PatientID int
	Category  Category
	ITTGroup  int
	ATGroup   int
	Time0     int
	Time1     int
	Status    Status
}

// Days returns the length of the interval.
func (r IntervalRow) Days() int {
	return r.Time1 - r.Time0
}

// Interval is an unmasked interval row together with the event that closes it. The terminal interval is closed by
// the end of the observation window rather than by an event.
type Interval struct {
	Row      IntervalRow
	Origin   EventType
	Terminal bool
}

// BuildIntervals converts the ordered events of one category into consecutive intervals covering the observation
// window: one interval per event, ending on the event with status EventOccurred, followed by a censored interval
// up to the end of the window. Events on the same day give zero-length intervals, which are kept.
//
// The events must lie within the window and be sorted by date. Anything else breaks the contract of the event store
// queries and panics.
func BuildIntervals(w ObservationWindow, c Classification, category Category, events []Event) []Interval {
	intervals := make([]Interval, 0, len(events)+1)
	itt, at := c.ITT(), c.AT()
	previous := w.Start
	time0 := 0
	for _, e := range events {
		if e.PatientID != w.PatientID {
			panic(fmt.Sprint("Event of patient ", e.PatientID, " passed for window of patient ", w.PatientID))
		}
		if e.Date.Before(previous) {
			panic(fmt.Sprint("Event ", e, " out of order or before the window start ", w.Start))
		}
		if e.Date.After(w.End) {
			panic(fmt.Sprint("Event ", e, " after the window end ", w.End))
		}
		time1 := time0 + e.Date.DaysSince(previous)
		intervals = append(intervals, Interval{
			Row: IntervalRow{PatientID: w.PatientID, Category: category, ITTGroup: itt, ATGroup: at,
				Time0: time0, Time1: time1, Status: EventOccurred},
			Origin: e.Type,
		})
		previous = e.Date
		time0 = time1
	}
	intervals = append(intervals, Interval{
		Row: IntervalRow{PatientID: w.PatientID, Category: category, ITTGroup: itt, ATGroup: at,
			Time0: time0, Time1: time0 + w.End.DaysSince(previous), Status: Censored},
		Terminal: true,
	})
	return intervals
}

// RiskMask returns for each interval whether it is kept. An interval closed by the end of an admission is time
// spent in hospital, not at risk, and is dropped. The terminal interval is always kept.
func RiskMask(intervals []Interval) []bool {
	keep := make([]bool, len(intervals))
	for i, interval := range intervals {
		keep[i] = interval.Terminal || !interval.Origin.MasksPrecedingInterval()
	}
	return keep
}

// MaskRiskPeriods removes the intervals rejected by RiskMask. It returns the kept rows and the total number of
// days that were removed. The kept rows are no longer gapless when something was masked.
func MaskRiskPeriods(intervals []Interval) ([]IntervalRow, int) {
	keep := RiskMask(intervals)
	rows := make([]IntervalRow, 0, len(intervals))
	masked := 0
	for i, interval := range intervals {
		if keep[i] {
			rows = append(rows, interval.Row)
		} else {
			masked += interval.Row.Days()
		}
	}
	return rows, masked
}

// FormatIntervals builds the Andersen-Gill rows of a patient for one category and masks hospitalized time.
func FormatIntervals(w ObservationWindow, c Classification, category Category, events []Event) ([]IntervalRow, int) {
	return MaskRiskPeriods(BuildIntervals(w, c, category, events))
}
