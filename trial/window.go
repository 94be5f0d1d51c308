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
	"cloud.google.com/go/civil"
)

// ObservationWindow is the period during which a patient is followed: from enrollment up to death or the censor
// date, whichever comes first.
type ObservationWindow struct {
	PatientID int
	Start     civil.Date
	End       civil.Date
	Died      bool // the window ends on the date of death
}

// Days returns the length of the window in days.
func (w ObservationWindow) Days() int {
	return w.End.DaysSince(w.Start)
}

// ResolveWindow computes the observation window of a patient for a given censor date. A patient enrolled after the
// censor date is rejected instead of clamped.
func ResolveWindow(store *EventStore, patientID int, censorDate civil.Date) (ObservationWindow, error) {
	start, err := store.FindEnrollmentDate(patientID)
	if err != nil {
		return ObservationWindow{}, err
	}
	if censorDate.Before(start) {
		return ObservationWindow{}, &EnrollmentAfterCensorError{PatientID: patientID, Enrollment: start,
			Censor: censorDate}
	}
	death, died, err := store.FindDeathDate(patientID)
	if err != nil {
		return ObservationWindow{}, err
	}
	if !died || death.After(censorDate) {
		return ObservationWindow{PatientID: patientID, Start: start, End: censorDate}, nil
	}
	return ObservationWindow{PatientID: patientID, Start: start, End: death, Died: true}, nil
}
