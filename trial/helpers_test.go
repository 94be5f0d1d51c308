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
	"time"

	"cloud.google.com/go/civil"
)

func date(year int, month int, day int) civil.Date {
	return civil.Date{Year: year, Month: time.Month(month), Day: day}
}

func offset(start civil.Date, days int) civil.Date {
	return start.AddDays(days)
}

func usual(pid int) Classification {
	return Classification{PatientID: pid, Arm: Usual, Compliance: NotApplicable}
}

func compliant(pid int) Classification {
	return Classification{PatientID: pid, Arm: Intervention, Compliance: Compliant}
}

func noncompliant(pid int) Classification {
	return Classification{PatientID: pid, Arm: Intervention, Compliance: Noncompliant}
}

// enrolled returns an enrollment event followed by the given events.
func enrolled(pid int, start civil.Date, events ...Event) []Event {
	return append([]Event{{PatientID: pid, Type: Enrollment, Date: start}}, events...)
}

func ev(pid int, t EventType, d civil.Date) Event {
	return Event{PatientID: pid, Type: t, Date: d}
}

func rowTimes(rows []IntervalRow) [][3]int {
	result := [][3]int{}
	for _, r := range rows {
		result = append(result, [3]int{r.Time0, r.Time1, int(r.Status)})
	}
	return result
}
