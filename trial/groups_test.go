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
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allArms        = []Arm{Usual, Intervention}
	allCompliances = []Compliance{NotApplicable, Compliant, Noncompliant}
)

func TestGroupProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	genArm := gen.IntRange(0, len(allArms)-1).Map(func(i int) Arm { return allArms[i] })
	genCompliance := gen.IntRange(0, len(allCompliances)-1).Map(func(i int) Compliance { return allCompliances[i] })

	properties.Property("itt group ignores compliance", prop.ForAll(
		func(arm Arm, c1, c2 Compliance) bool {
			return ITTGroup(arm, c1) == ITTGroup(arm, c2)
		},
		genArm, genCompliance, genCompliance,
	))

	properties.Property("noncompliant patients are never in the treated group", prop.ForAll(
		func(arm Arm) bool {
			return ATGroup(arm, Noncompliant) == 0
		},
		genArm,
	))

	properties.Property("the treated group is a subset of the intervention arm", prop.ForAll(
		func(arm Arm, c Compliance) bool {
			return ATGroup(arm, c) <= ITTGroup(arm, c)
		},
		genArm, genCompliance,
	))

	properties.TestingRun(t)
}

func TestGroups(t *testing.T) {
	assert.Equal(t, 1, ATGroup(Intervention, Compliant))
	assert.Equal(t, 0, ATGroup(Usual, NotApplicable))
	assert.Equal(t, 1, ITTGroup(Intervention, Noncompliant))
	assert.Equal(t, 0, ITTGroup(Usual, NotApplicable))
	assert.Equal(t, 1, compliant(3).AT())
	assert.Equal(t, 0, noncompliant(3).AT())
	assert.Equal(t, 1, noncompliant(3).ITT())
}

func TestComplianceFromWeeks(t *testing.T) {
	c, err := ComplianceFromWeeks(Intervention, 12, DefaultComplianceThreshold)
	require.NoError(t, err)
	assert.Equal(t, Compliant, c)
	c, err = ComplianceFromWeeks(Intervention, 11, DefaultComplianceThreshold)
	require.NoError(t, err)
	assert.Equal(t, Noncompliant, c)
	c, err = ComplianceFromWeeks(Usual, 0, DefaultComplianceThreshold)
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, c)
	_, err = ComplianceFromWeeks(Usual, 3, DefaultComplianceThreshold)
	assert.Error(t, err)
}

func TestClassificationValidate(t *testing.T) {
	assert.NoError(t, usual(1).Validate())
	assert.NoError(t, compliant(1).Validate())
	assert.NoError(t, noncompliant(1).Validate())
	assert.Error(t, Classification{PatientID: 1, Arm: Usual, Compliance: Compliant}.Validate())
	assert.Error(t, Classification{PatientID: 1, Arm: Intervention, Compliance: NotApplicable}.Validate())
	assert.Error(t, Classification{PatientID: 1, Arm: Arm(5)}.Validate())
}

func TestParseArmAndCompliance(t *testing.T) {
	arm, err := ParseArm("Sparkle")
	require.NoError(t, err)
	assert.Equal(t, Intervention, arm)
	arm, err = ParseArm("usual")
	require.NoError(t, err)
	assert.Equal(t, Usual, arm)
	_, err = ParseArm("placebo")
	assert.Error(t, err)

	c, err := ParseCompliance("SPARKLE_NONCOMPLIANT")
	require.NoError(t, err)
	assert.Equal(t, Noncompliant, c)
	c, err = ParseCompliance("")
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, c)
	_, err = ParseCompliance("sometimes")
	assert.Error(t, err)
}
