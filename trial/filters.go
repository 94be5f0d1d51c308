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

// PatientFilter prescribes a function type for selecting the patients of a cohort that go into the tables, e.g. to
// leave out withdrawn patients. A filter returns true for patients to keep.
type PatientFilter func(c Classification) bool

// ExcludeFilter removes the patients with the given ids.
func ExcludeFilter(ids ...int) PatientFilter {
	excluded := map[int]bool{}
	for _, id := range ids {
		excluded[id] = true
	}
	return func(c Classification) bool {
		return !excluded[c.PatientID]
	}
}

// ArmFilter keeps only the patients randomized to the given arm.
func ArmFilter(arm Arm) PatientFilter {
	return func(c Classification) bool {
		return c.Arm == arm
	}
}

// CompliantFilter keeps usual care patients and compliant intervention patients, i.e. a per-protocol population.
func CompliantFilter() PatientFilter {
	return func(c Classification) bool {
		return c.Arm == Usual || c.Compliance == Compliant
	}
}

// ApplyPatientFilters returns the classifications that pass all filters, in input order.
func ApplyPatientFilters(filters []PatientFilter, classifications []Classification) []Classification {
	result := []Classification{}
	for _, c := range classifications {
		res := true
		for _, filter := range filters {
			res = filter(c) && res
			if !res {
				break
			}
		}
		if res {
			result = append(result, c)
		}
	}
	return result
}
