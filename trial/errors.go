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

	"cloud.google.com/go/civil"
)

// IntegrityError reports event data of a patient that cannot be turned into an observation window, e.g. a missing
// or duplicated enrollment. It always aborts a run.
type IntegrityError struct {
	PatientID int
	Reason    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("patient %d: data integrity: %s", e.PatientID, e.Reason)
}

// EnrollmentAfterCensorError reports a patient enrolled after the censor date. Such a patient has no time at risk.
type EnrollmentAfterCensorError struct {
	PatientID  int
	Enrollment civil.Date
	Censor     civil.Date
}

func (e *EnrollmentAfterCensorError) Error() string {
	return fmt.Sprintf("patient %d: enrolled on %v, after the censor date %v", e.PatientID, e.Enrollment, e.Censor)
}
