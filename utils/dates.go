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

package utils

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

// ParseDate parses a calendar date. Besides ISO dates it accepts the formats spreadsheet exports tend to produce,
// e.g. "2022-01-10 00:00:00" or "1/10/2022". Any time of day is dropped.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return civil.DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on malformed input. Used for dates that are constants of a program.
func MustParseDate(s string) civil.Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
