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

// FirstEventRow is one row of a time-to-first-event table: the number of days from enrollment to the first opening
// event of a category, or to the end of the observation window when there is none.
type FirstEventRow struct {
	PatientID int
	Category  Category
	ITTGroup  int
	ATGroup   int
	Time      int
	Status    Status
}

// FirstEvent computes the time-to-first-event row of a patient for one category. Only opening events count, an
// admission end marker on its own is not an occurrence.
func FirstEvent(store *EventStore, w ObservationWindow, c Classification, category Category) FirstEventRow {
	row := FirstEventRow{PatientID: w.PatientID, Category: category, ITTGroup: c.ITT(), ATGroup: c.AT()}
	events := store.FindCategoryEventsBetween(w.PatientID, category.OpeningTypes(), w.Start, w.End)
	if len(events) == 0 {
		row.Time = w.Days()
		row.Status = Censored
		return row
	}
	row.Time = events[0].Date.DaysSince(w.Start)
	row.Status = EventOccurred
	return row
}
