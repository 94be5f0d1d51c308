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
	"strings"
)

// Arm is the randomization arm of a patient.
type Arm int

const (
	Usual        Arm = 0
	Intervention Arm = 1
)

func (a Arm) String() string {
	switch a {
	case Usual:
		return "USUAL"
	case Intervention:
		return "INTERVENTION"
	default:
		return fmt.Sprint("Arm(", int(a), ")")
	}
}

// ParseArm accepts USUAL or INTERVENTION, and the trial specific labels "Usual" and "SPARKLE".
func ParseArm(s string) (Arm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USUAL", "0":
		return Usual, nil
	case "INTERVENTION", "SPARKLE", "1":
		return Intervention, nil
	}
	return 0, fmt.Errorf("unknown arm %q", s)
}

// Compliance is the protocol adherence of a patient. Only intervention patients can be (non)compliant.
type Compliance int

const (
	NotApplicable Compliance = 0
	Compliant     Compliance = 10
	Noncompliant  Compliance = 11
)

func (c Compliance) String() string {
	switch c {
	case NotApplicable:
		return "NOT_APPLICABLE"
	case Compliant:
		return "COMPLIANT"
	case Noncompliant:
		return "NONCOMPLIANT"
	default:
		return fmt.Sprint("Compliance(", int(c), ")")
	}
}

// ParseCompliance accepts the names returned by Compliance.String or their numeric codes.
func ParseCompliance(s string) (Compliance, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOT_APPLICABLE", "NA", "", "0":
		return NotApplicable, nil
	case "COMPLIANT", "SPARKLE_COMPLIANT", "10":
		return Compliant, nil
	case "NONCOMPLIANT", "SPARKLE_NONCOMPLIANT", "11":
		return Noncompliant, nil
	}
	return 0, fmt.Errorf("unknown compliance %q", s)
}

// DefaultComplianceThreshold is the number of completed questionnaire weeks (out of 16) that makes an intervention
// patient compliant.
const DefaultComplianceThreshold = 12

// ComplianceFromWeeks derives the compliance of a patient from the number of questionnaire weeks completed. A usual
// care patient never receives questionnaires, so any completed week is a data error.
func ComplianceFromWeeks(arm Arm, weeksCompleted, threshold int) (Compliance, error) {
	if arm == Usual {
		if weeksCompleted > 0 {
			return NotApplicable, fmt.Errorf("usual care patient has %d questionnaire weeks completed", weeksCompleted)
		}
		return NotApplicable, nil
	}
	if weeksCompleted >= threshold {
		return Compliant, nil
	}
	return Noncompliant, nil
}

// Classification holds the randomization arm and compliance of one patient.
type Classification struct {
	PatientID  int
	Arm        Arm
	Compliance Compliance
}

// Validate checks that compliance is not applicable exactly for usual care patients.
func (c Classification) Validate() error {
	switch c.Arm {
	case Usual:
		if c.Compliance != NotApplicable {
			return fmt.Errorf("patient %d: usual care patient with compliance %v", c.PatientID, c.Compliance)
		}
	case Intervention:
		if c.Compliance != Compliant && c.Compliance != Noncompliant {
			return fmt.Errorf("patient %d: intervention patient with compliance %v", c.PatientID, c.Compliance)
		}
	default:
		return fmt.Errorf("patient %d: unknown arm %v", c.PatientID, c.Arm)
	}
	return nil
}

// ITT returns the intention-to-treat group of the patient.
func (c Classification) ITT() int {
	return ITTGroup(c.Arm, c.Compliance)
}

// AT returns the as-treated group of the patient.
func (c Classification) AT() int {
	return ATGroup(c.Arm, c.Compliance)
}

// ITTGroup returns 1 for patients randomized to the intervention and 0 otherwise. Compliance is ignored.
func ITTGroup(arm Arm, _ Compliance) int {
	if arm == Intervention {
		return 1
	}
	return 0
}

// ATGroup returns 1 only for intervention patients that complied with the protocol.
func ATGroup(arm Arm, compliance Compliance) int {
	if arm == Intervention && compliance == Compliant {
		return 1
	}
	return 0
}
