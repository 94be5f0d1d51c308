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

// Package trial turns the dated clinical events of a trial cohort into Andersen-Gill counting-process tables for
// recurrent-event survival analysis.
package trial

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// EventType tags what happened to a patient on a given day.
type EventType int

// Event types. The numeric values are the codes used in input files.
const (
	Enrollment        EventType = 0
	EDNoAdmit         EventType = 1
	AdmitED           EventType = 21
	AdmitClinic       EventType = 22
	AdmitElective     EventType = 23
	AdmitEDEnds       EventType = 31
	AdmitClinicEnds   EventType = 32
	AdmitElectiveEnds EventType = 33
	Death             EventType = 999
)

// eventTypeNames maps every known event type onto its canonical name.
var eventTypeNames = map[EventType]string{
	Enrollment:        "ENROLLMENT",
	EDNoAdmit:         "ED_NOADMIT",
	AdmitED:           "ADMIT_ED",
	AdmitClinic:       "ADMIT_CLINIC",
	AdmitElective:     "ADMIT_ELECTIVE",
	AdmitEDEnds:       "ADMIT_ED_ENDS",
	AdmitClinicEnds:   "ADMIT_CLINIC_ENDS",
	AdmitElectiveEnds: "ADMIT_ELECTIVE_ENDS",
	Death:             "DEATH",
}

// eventTypeRanks decides which of two events on the same day comes first. Enrollment is always first and death
// always last; the end of an admission sorts after the admission itself.
var eventTypeRanks = map[EventType]int{
	Enrollment:        0,
	EDNoAdmit:         1,
	AdmitED:           2,
	AdmitClinic:       3,
	AdmitElective:     4,
	AdmitEDEnds:       5,
	AdmitClinicEnds:   6,
	AdmitElectiveEnds: 7,
	Death:             8,
}

// EventTypes lists all event types in rank order.
func EventTypes() []EventType {
	return []EventType{Enrollment, EDNoAdmit, AdmitED, AdmitClinic, AdmitElective, AdmitEDEnds, AdmitClinicEnds,
		AdmitElectiveEnds, Death}
}

// Rank returns the same-day tie breaking rank of an event type. Unknown types rank after death.
func Rank(t EventType) int {
	if r, ok := eventTypeRanks[t]; ok {
		return r
	}
	return len(eventTypeRanks)
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	_, ok := eventTypeNames[t]
	return ok
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "EventType(" + strconv.Itoa(int(t)) + ")"
}

// MasksPrecedingInterval reports whether an interval that ends on an event of this type lies inside a
// hospitalization. The end of an ED or clinic admission closes a span during which the patient was not at risk.
func (t EventType) MasksPrecedingInterval() bool {
	return t == AdmitEDEnds || t == AdmitClinicEnds
}

// ParseEventType accepts either a canonical name (e.g. ADMIT_ED, case insensitive) or a numeric code (e.g. 21).
func ParseEventType(s string) (EventType, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		t := EventType(code)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown event type code %d", code)
		}
		return t, nil
	}
	name := strings.ToUpper(s)
	for t, n := range eventTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// EventTypeSet is a small set of event types.
type EventTypeSet []EventType

// Contains checks if an event type is a member of the set.
func (s EventTypeSet) Contains(t EventType) bool {
	for _, t2 := range s {
		if t2 == t {
			return true
		}
	}
	return false
}

// Event represents a single dated clinical event of a patient.
type Event struct {
	PatientID int
	Type      EventType
	Date      civil.Date
}

func (e Event) String() string {
	return fmt.Sprint("patient ", e.PatientID, " ", e.Type, " on ", e.Date)
}

// EventLess orders events by patient, then date, then event type rank.
func EventLess(e1, e2 Event) bool {
	if e1.PatientID != e2.PatientID {
		return e1.PatientID < e2.PatientID
	}
	if e1.Date != e2.Date {
		return e1.Date.Before(e2.Date)
	}
	return Rank(e1.Type) < Rank(e2.Type)
}

// Category is an outcome of interest for which a recurrent-event table is built.
type Category int

const (
	// EDUse counts emergency department visits, with or without admission.
	EDUse Category = iota
	// UnplannedAdmission counts inpatient admissions that were not elective.
	UnplannedAdmission
)

// Categories lists the categories in the order tables are assembled.
func Categories() []Category {
	return []Category{EDUse, UnplannedAdmission}
}

func (c Category) String() string {
	switch c {
	case EDUse:
		return "emergency_department_uses"
	case UnplannedAdmission:
		return "unplanned_inpatient_admissions"
	default:
		return "Category(" + strconv.Itoa(int(c)) + ")"
	}
}

// Types returns the event types that are queried for a category, including the admission end markers that are
// needed to mask hospitalized time.
func (c Category) Types() EventTypeSet {
	switch c {
	case EDUse:
		return EventTypeSet{AdmitED, AdmitEDEnds, EDNoAdmit}
	case UnplannedAdmission:
		return EventTypeSet{AdmitED, AdmitEDEnds, AdmitClinic, AdmitClinicEnds}
	default:
		return nil
	}
}

// OpeningTypes returns the event types that count as an occurrence of the category.
func (c Category) OpeningTypes() EventTypeSet {
	switch c {
	case EDUse:
		return EventTypeSet{EDNoAdmit, AdmitED}
	case UnplannedAdmission:
		return EventTypeSet{AdmitED, AdmitClinic}
	default:
		return nil
	}
}
