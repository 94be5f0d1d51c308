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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Grouping selects the group column of an interval row.
type Grouping int

const (
	ByITT Grouping = iota
	ByAT
)

func (g Grouping) String() string {
	if g == ByAT {
		return "at"
	}
	return "itt"
}

func (g Grouping) group(row IntervalRow) int {
	if g == ByAT {
		return row.ATGroup
	}
	return row.ITTGroup
}

// Groupings returns ByITT and ByAT.
func Groupings() []Grouping {
	return []Grouping{ByITT, ByAT}
}

// GroupLabel returns a readable label for a group, e.g. "Itt Control" or "At Intervention".
func GroupLabel(g Grouping, group int) string {
	name := "control"
	if group == 1 {
		name = "intervention"
	}
	return cases.Title(language.English).String(g.String() + " " + name)
}

// GroupCount aggregates the masked interval rows of one category for one group.
type GroupCount struct {
	Category   Category
	Grouping   Grouping
	Group      int
	Label      string
	Patients   int
	Events     int
	AtRiskDays int
}

// EventsPerPatientYear returns the event rate of the group, or 0 when no time at risk was observed.
func (gc GroupCount) EventsPerPatientYear() float64 {
	if gc.AtRiskDays == 0 {
		return 0
	}
	return float64(gc.Events) / (float64(gc.AtRiskDays) / 365.25)
}

// CountByGroup counts patients, events and days at risk per ITT and AT group from the masked rows of one category.
// Every patient has exactly one censored row, and after masking every other row ends in an opening event.
func CountByGroup(category Category, rows []IntervalRow) []GroupCount {
	var result []GroupCount
	for _, g := range Groupings() {
		counts := [2]GroupCount{}
		for group := range counts {
			counts[group] = GroupCount{Category: category, Grouping: g, Group: group, Label: GroupLabel(g, group)}
		}
		for _, row := range rows {
			if row.Category != category {
				continue
			}
			gc := &counts[g.group(row)]
			if row.Status == Censored {
				gc.Patients++
			} else {
				gc.Events++
			}
			gc.AtRiskDays += row.Days()
		}
		result = append(result, counts[:]...)
	}
	return result
}
