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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStoreSortsAndGroups(t *testing.T) {
	start := date(2022, 1, 1)
	events := []Event{
		ev(3, Enrollment, start),
		ev(1, EDNoAdmit, offset(start, 4)),
		ev(1, Enrollment, start),
		ev(3, AdmitClinic, offset(start, 2)),
	}
	store := NewEventStore(events)
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, []int{1, 3}, store.PatientIDs())
	assert.Equal(t, []Event{ev(1, Enrollment, start), ev(1, EDNoAdmit, offset(start, 4))}, store.PatientEvents(1))
	assert.Empty(t, store.PatientEvents(2))

	// the store keeps its own copy
	events[0].PatientID = 99
	assert.Equal(t, []int{1, 3}, store.PatientIDs())
	patient3 := store.PatientEvents(3)
	patient3[0].Type = Death
	assert.Equal(t, Enrollment, store.PatientEvents(3)[0].Type)
}

func TestEventsBetweenIsOpenOnBothEnds(t *testing.T) {
	start := date(2022, 1, 1)
	end := offset(start, 10)
	store := NewEventStore(enrolled(1, start,
		ev(1, EDNoAdmit, start),
		ev(1, AdmitED, offset(start, 1)),
		ev(1, AdmitEDEnds, offset(start, 9)),
		ev(1, EDNoAdmit, end),
	))
	between := store.EventsBetween(1, start, end)
	assert.Equal(t, []Event{ev(1, AdmitED, offset(start, 1)), ev(1, AdmitEDEnds, offset(start, 9))}, between)

	assert.Equal(t, []Event{ev(1, AdmitED, offset(start, 1))},
		store.FindCategoryEventsBetween(1, EventTypeSet{AdmitED}, start, end))
	assert.Empty(t, store.FindCategoryEventsBetween(1, EventTypeSet{AdmitClinic}, start, end))
}

func TestFindEnrollmentDate(t *testing.T) {
	start := date(2022, 1, 1)
	store := NewEventStore([]Event{
		ev(1, Enrollment, start),
		ev(2, EDNoAdmit, start),
		ev(3, Enrollment, start),
		ev(3, Enrollment, offset(start, 3)),
	})
	d, err := store.FindEnrollmentDate(1)
	require.NoError(t, err)
	assert.Equal(t, start, d)

	var integrity *IntegrityError
	_, err = store.FindEnrollmentDate(2)
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, 2, integrity.PatientID)
	_, err = store.FindEnrollmentDate(3)
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, 3, integrity.PatientID)
	assert.Contains(t, err.Error(), "more than one ENROLLMENT")
}

func TestFindDeathDate(t *testing.T) {
	start := date(2022, 1, 1)
	store := NewEventStore([]Event{
		ev(1, Enrollment, start),
		ev(2, Enrollment, start),
		ev(2, Death, offset(start, 30)),
		ev(3, Enrollment, start),
		ev(3, Death, offset(start, 30)),
		ev(3, Death, offset(start, 31)),
	})
	_, died, err := store.FindDeathDate(1)
	require.NoError(t, err)
	assert.False(t, died)
	d, died, err := store.FindDeathDate(2)
	require.NoError(t, err)
	assert.True(t, died)
	assert.Equal(t, offset(start, 30), d)
	_, _, err = store.FindDeathDate(3)
	var integrity *IntegrityError
	assert.True(t, errors.As(err, &integrity))
}
