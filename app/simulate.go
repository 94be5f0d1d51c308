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

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/valyala/fastrand"

	"agtab/trial"
	"agtab/utils"
)

// SimulationParams describes a synthetic trial cohort.
type SimulationParams struct {
	Patients        int
	Seed            uint32 // the highest bit is ignored
	FirstEnrollment civil.Date
	AccrualDays     int // enrollments are spread over this many days
	CensorDate      civil.Date
	DeathPercent    int
	MeanVisitGap    int // average number of days between two hospital contacts
}

// DefaultSimulationParams returns the parameters used by the simulate command without flags.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{
		Patients:        240,
		Seed:            1,
		FirstEnrollment: civil.Date{Year: 2021, Month: 6, Day: 1},
		AccrualDays:     700,
		CensorDate:      utils.MustParseDate("2024-04-30"),
		DeathPercent:    30,
		MeanVisitGap:    60,
	}
}

// SimulatedPatient is a patient of a synthetic cohort together with the questionnaire weeks completed.
type SimulatedPatient struct {
	trial.Classification
	WeeksCompleted int
}

// Simulation is a synthetic cohort.
type Simulation struct {
	Patients []SimulatedPatient
	Events   []trial.Event
}

const questionnaireWeeks = 16

// Simulate generates a cohort that satisfies the input requirements of BuildTables: one enrollment per patient on or
// before the censor date, at most one death, and every admission closed before the next contact. The same
// parameters always give the same cohort.
func Simulate(p SimulationParams) (*Simulation, error) {
	if p.Patients < 0 || p.AccrualDays < 0 || p.MeanVisitGap < 1 || p.DeathPercent < 0 || p.DeathPercent > 100 {
		return nil, fmt.Errorf("invalid simulation parameters %+v", p)
	}
	if p.CensorDate.Before(p.FirstEnrollment) {
		return nil, fmt.Errorf("censor date %v before first enrollment %v", p.CensorDate, p.FirstEnrollment)
	}
	accrual := utils.MinInt(p.AccrualDays, p.CensorDate.DaysSince(p.FirstEnrollment))
	var rng fastrand.RNG
	// fastrand reseeds itself randomly from a zero state
	rng.Seed(p.Seed | 1<<31)
	intn := func(n int) int {
		return int(rng.Uint32n(uint32(utils.MaxInt(n, 1))))
	}
	sim := &Simulation{}
	for pid := 1; pid <= p.Patients; pid++ {
		patient := SimulatedPatient{Classification: trial.Classification{PatientID: pid, Arm: trial.Arm(intn(2))}}
		if patient.Arm == trial.Intervention {
			patient.WeeksCompleted = intn(questionnaireWeeks + 1)
		}
		compliance, err := trial.ComplianceFromWeeks(patient.Arm, patient.WeeksCompleted,
			trial.DefaultComplianceThreshold)
		if err != nil {
			return nil, err
		}
		patient.Compliance = compliance
		sim.Patients = append(sim.Patients, patient)

		enrollment := p.FirstEnrollment.AddDays(intn(accrual + 1))
		sim.Events = append(sim.Events, trial.Event{PatientID: pid, Type: trial.Enrollment, Date: enrollment})
		// follow up a little past the censor date so that the window has to cut events off
		horizon := p.CensorDate.AddDays(30)
		died := intn(100) < p.DeathPercent
		if died {
			horizon = enrollment.AddDays(1 + intn(utils.MaxInt(horizon.DaysSince(enrollment), 1)))
		}
		day := enrollment
		for {
			day = day.AddDays(1 + intn(2*p.MeanVisitGap))
			if !day.Before(horizon) {
				break
			}
			var admission, ends trial.EventType
			switch r := intn(100); {
			case r < 50:
				sim.Events = append(sim.Events, trial.Event{PatientID: pid, Type: trial.EDNoAdmit, Date: day})
				continue
			case r < 75:
				admission, ends = trial.AdmitED, trial.AdmitEDEnds
			case r < 90:
				admission, ends = trial.AdmitClinic, trial.AdmitClinicEnds
			default:
				admission, ends = trial.AdmitElective, trial.AdmitElectiveEnds
			}
			discharge := day.AddDays(intn(10))
			if !discharge.Before(horizon) {
				break
			}
			sim.Events = append(sim.Events,
				trial.Event{PatientID: pid, Type: admission, Date: day},
				trial.Event{PatientID: pid, Type: ends, Date: discharge})
			day = discharge
		}
		if died {
			sim.Events = append(sim.Events, trial.Event{PatientID: pid, Type: trial.Death, Date: horizon})
		}
	}
	return sim, nil
}

// Classifications returns the classifications of the simulated patients.
func (sim *Simulation) Classifications() []trial.Classification {
	result := make([]trial.Classification, len(sim.Patients))
	for i, p := range sim.Patients {
		result[i] = p.Classification
	}
	return result
}

const (
	SimulatedEventsFileName   = "events.csv"
	SimulatedPatientsFileName = "patients.csv"
)

// WriteSimulation writes the events and patients csv files of a simulation into dir, in the formats read by
// ParseEvents and ParsePatients, and returns their paths.
func WriteSimulation(dir string, sim *Simulation) (eventsFile, patientsFile string, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	eventsFile = filepath.Join(dir, SimulatedEventsFileName)
	patientsFile = filepath.Join(dir, SimulatedPatientsFileName)
	events := make([][]string, 0, len(sim.Events))
	for _, e := range sim.Events {
		events = append(events, []string{itoa(e.PatientID), e.Type.String(), e.Date.String()})
	}
	if err = writeCSVFile(eventsFile, []string{"patient_id", "event_type", "event_date"}, events); err != nil {
		return "", "", err
	}
	patients := make([][]string, 0, len(sim.Patients))
	for _, p := range sim.Patients {
		patients = append(patients, []string{itoa(p.PatientID), p.Arm.String(), strconv.Itoa(p.WeeksCompleted)})
	}
	if err = writeCSVFile(patientsFile, []string{"patient_id", "arm", "weeks_completed"}, patients); err != nil {
		return "", "", err
	}
	return eventsFile, patientsFile, nil
}
