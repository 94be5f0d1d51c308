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

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agtab/app"
	"agtab/trial"
)

func execute(args ...string) error {
	cmd := rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestSimulateThenBuild(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	output := filepath.Join(dir, "output")
	require.NoError(t, execute("simulate", "--output", input, "--patients", "25", "--seed", "3"))

	require.NoError(t, execute("build",
		"--events", filepath.Join(input, app.SimulatedEventsFileName),
		"--patients", filepath.Join(input, app.SimulatedPatientsFileName),
		"--output", output, "--exclude", "4,5", "--dedup", "same-day", "--log-format", "json", "--log-level", "warn",
		"--sqlite", filepath.Join(dir, "agtab.db")))

	m, err := app.ReadManifest(filepath.Join(output, app.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, 23, m.Patients)
	assert.Equal(t, []int{4, 5}, m.Excluded)
	assert.Equal(t, trial.DedupSameDay.String(), m.Dedup)
	for _, category := range trial.Categories() {
		assert.FileExists(t, filepath.Join(output, app.IntervalsFileName(category)))
	}
}

func TestBuildRequiresInputs(t *testing.T) {
	t.Setenv("AGTAB_EVENTS", "")
	t.Setenv("AGTAB_PATIENTS", "")
	err := execute("build", "--output", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no events file")
	assert.Error(t, execute("build", "extra-argument"))
}

func TestVersion(t *testing.T) {
	assert.NoError(t, execute("version"))
}
