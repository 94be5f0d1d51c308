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

// DedupPolicy decides what happens with several events of a patient on the same day before intervals are built.
type DedupPolicy int

const (
	// DedupKeep keeps every event. Same-day events give zero-length intervals.
	DedupKeep DedupPolicy = iota
	// DedupCompact removes exact duplicates: the same event type recorded twice on the same day.
	DedupCompact
	// DedupSameDay keeps only the first event of every day, in rank order.
	DedupSameDay
)

func (p DedupPolicy) String() string {
	switch p {
	case DedupKeep:
		return "keep"
	case DedupCompact:
		return "compact"
	case DedupSameDay:
		return "same-day"
	default:
		return fmt.Sprint("DedupPolicy(", int(p), ")")
	}
}

// ParseDedupPolicy parses the names returned by DedupPolicy.String.
func ParseDedupPolicy(s string) (DedupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "":
		return DedupKeep, nil
	case "compact":
		return DedupCompact, nil
	case "same-day", "sameday":
		return DedupSameDay, nil
	}
	return 0, fmt.Errorf("unknown dedup policy %q", s)
}

// Apply returns a copy of a sorted event list with duplicates removed according to the policy.
func (p DedupPolicy) Apply(events []Event) []Event {
	if p == DedupKeep || len(events) < 2 {
		return append([]Event(nil), events...)
	}
	result := []Event{events[0]}
	cur := events[0]
	for _, e := range events[1:] {
		same := e.Date == cur.Date
		if p == DedupCompact {
			same = same && e.Type == cur.Type
		}
		if !same {
			cur = e
			result = append(result, cur)
		}
	}
	return result
}
