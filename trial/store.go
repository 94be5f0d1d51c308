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

	"cloud.google.com/go/civil"
)

// EventStore holds the events of a cohort sorted by patient, date and event type rank. A store is never modified
// after NewEventStore returns, so it can be queried from many goroutines at once.
type EventStore struct {
	events     []Event
	byPatient  map[int][]Event // sub slices of events, one per patient
	patientIDs []int           // sorted <
}

// NewEventStore copies and sorts the given events into a new store.
func NewEventStore(events []Event) *EventStore {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return EventLess(sorted[i], sorted[j])
	})
	store := &EventStore{events: sorted, byPatient: map[int][]Event{}}
	for low := 0; low < len(sorted); {
		high := low
		for high < len(sorted) && sorted[high].PatientID == sorted[low].PatientID {
			high++
		}
		pid := sorted[low].PatientID
		// cap the sub slice so that appending by a caller can never clobber the next patient
		store.byPatient[pid] = sorted[low:high:high]
		store.patientIDs = append(store.patientIDs, pid)
		low = high
	}
	return store
}

// Len returns the total number of events in the store.
func (s *EventStore) Len() int {
	return len(s.events)
}

// PatientIDs returns the ids of all patients with at least one event, in ascending order.
func (s *EventStore) PatientIDs() []int {
	return append([]int(nil), s.patientIDs...)
}

// PatientEvents returns all events of a patient in chronological order.
func (s *EventStore) PatientEvents(patientID int) []Event {
	return append([]Event(nil), s.byPatient[patientID]...)
}

// EventsBetween returns the events of a patient strictly after from and strictly before to. The window endpoints are
// boundary markers of the interval formatter and are never returned as data events.
func (s *EventStore) EventsBetween(patientID int, from, to civil.Date) []Event {
	return s.FindCategoryEventsBetween(patientID, nil, from, to)
}

// FindCategoryEventsBetween filters EventsBetween to the given event types. A nil set selects every type.
func (s *EventStore) FindCategoryEventsBetween(patientID int, types EventTypeSet, from, to civil.Date) []Event {
	result := []Event{}
	for _, e := range s.byPatient[patientID] {
		if !e.Date.After(from) {
			continue
		}
		if !e.Date.Before(to) {
			break
		}
		if types == nil || types.Contains(e.Type) {
			result = append(result, e)
		}
	}
	return result
}

// findEvents returns the events of a given type for a patient.
func (s *EventStore) findEvents(patientID int, t EventType) []Event {
	result := []Event{}
	for _, e := range s.byPatient[patientID] {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// FindEnrollmentDate returns the enrollment date of a patient. A patient must have exactly one enrollment event.
func (s *EventStore) FindEnrollmentDate(patientID int) (civil.Date, error) {
	events := s.findEvents(patientID, Enrollment)
	switch len(events) {
	case 0:
		return civil.Date{}, &IntegrityError{PatientID: patientID, Reason: "no ENROLLMENT event"}
	case 1:
		return events[0].Date, nil
	default:
		return civil.Date{}, &IntegrityError{PatientID: patientID, Reason: "more than one ENROLLMENT event"}
	}
}

// FindDeathDate returns the date of death of a patient, if any. More than one death event is an integrity error.
func (s *EventStore) FindDeathDate(patientID int) (civil.Date, bool, error) {
	events := s.findEvents(patientID, Death)
	switch len(events) {
	case 0:
		return civil.Date{}, false, nil
	case 1:
		return events[0].Date, true, nil
	default:
		return civil.Date{}, false, &IntegrityError{PatientID: patientID, Reason: "more than one DEATH event"}
	}
}
