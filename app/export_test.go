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
	"io"

	"github.com/rs/zerolog"

	"agtab/trial"
)

func ParseEventsFrom(r io.Reader, name string) ([]trial.Event, error) {
	log := zerolog.Nop()
	table, err := newCSVTable(r, name, &log)
	if err != nil {
		return nil, err
	}
	return parseEvents(table)
}

func ParsePatientsFrom(r io.Reader, name string, threshold int) ([]trial.Classification, error) {
	log := zerolog.Nop()
	table, err := newCSVTable(r, name, &log)
	if err != nil {
		return nil, err
	}
	return parsePatients(table, threshold)
}
