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
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"agtab/app"
	"agtab/config"
	"agtab/utils"
)

/*
Agtab builds Andersen-Gill tables for recurrent-event survival analysis from the clinical events of a trial.

Usage:
	agtab build --events file --patients file [flags]
	agtab simulate [flags]
	agtab version

Example:
	agtab build --events events.csv --patients patients.csv --output ./results --censor-date 2024-04-30 --exclude 109
	--dedup compact --sqlite results.db

For every patient and for both emergency department uses and unplanned inpatient admissions, build writes the
time-at-risk intervals from enrollment up to death or the censor date. Each interval ends in an event (status 1) or
in censoring (status 0). Time spent in hospital is left out of the intervals.

The input files are:

events file
	A csv file with the columns patient_id, event_type and event_date. Event types are ENROLLMENT, ED_NOADMIT,
	ADMIT_ED, ADMIT_CLINIC, ADMIT_ELECTIVE, ADMIT_ED_ENDS, ADMIT_CLINIC_ENDS, ADMIT_ELECTIVE_ENDS and DEATH, or their
	numeric codes 0, 1, 21, 22, 23, 31, 32, 33 and 999. Every patient needs exactly one ENROLLMENT.
patients file
	A csv file with the columns patient_id, arm (USUAL or INTERVENTION) and either compliance (NA, COMPLIANT,
	NONCOMPLIANT) or weeks_completed, the number of questionnaire weeks an intervention patient completed.

The output directory receives analysis_recurrent_<category>.csv, analysis_first_<category>.csv,
observation_windows.csv, event_counts.csv and manifest.yaml.

The flags of build are:

--config file
	A yaml, json or toml file with any of the settings below, using underscores in the names, e.g. censor_date.
	Every setting can also be given as an environment variable, e.g. AGTAB_CENSOR_DATE. Flags take precedence over
	environment variables, which take precedence over the config file.
--output path
	The directory where the tables are written to. Default is the current directory.
--censor-date date
	The administrative censor date. Follow up stops at this date. Default 2024-04-30.
--exclude ids
	A comma separated list of patient ids to leave out of the tables.
--dedup keep | compact | same-day
	What to do with several events of a patient on the same day. keep (the default) keeps all of them, which gives
	zero-length intervals. compact removes events of the same type on the same day. same-day keeps only the first
	event of each day.
--exclude-late-enrollment
	Leave out patients enrolled after the censor date, with a warning, instead of stopping.
--collect-errors
	Report the data errors of all patients instead of stopping at the first one.
--compliance-threshold nr
	The number of questionnaire weeks an intervention patient must complete to be compliant. Default 12.
--workers nr
	The number of threads to use. Default is the number of cores.
--sqlite file
	Also store the tables in a SQLite database. Every run is added under its own run id.
--database-url url
	Also copy the tables into a Postgres database.
--log-level trace | debug | info | warn | error
	Default info. At debug level malformed input records are dumped.
--log-format console | json
	Default console.

The flags of simulate are --output, --patients, --seed and --censor-date. It writes events.csv and patients.csv for
a synthetic cohort, which can be passed to build.
*/

const programName = "agtab"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           programName,
		Short:         "Andersen-Gill recurrent-event table builder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(buildCmd())
	cmd.AddCommand(simulateCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Error().Err(err).Msg(programName + " failed")
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the interval tables of a trial",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			log, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			params, err := app.ParamsFromConfig(cfg, &log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			m, err := app.Run(ctx, params)
			if err != nil {
				return err
			}
			log.Info().Str("run_id", m.RunID).Int("patients", m.Patients).Msg("Done")
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func simulateCmd() *cobra.Command {
	defaults := app.DefaultSimulationParams()
	var (
		output     string
		patients   int
		seed       uint32
		censorDate string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write the input files of a synthetic trial cohort",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := utils.NewLogger("info", "console", os.Stderr)
			if err != nil {
				return err
			}
			p := defaults
			p.Patients = patients
			p.Seed = seed
			if p.CensorDate, err = utils.ParseDate(censorDate); err != nil {
				return err
			}
			sim, err := app.Simulate(p)
			if err != nil {
				return err
			}
			eventsFile, patientsFile, err := app.WriteSimulation(output, sim)
			if err != nil {
				return err
			}
			log.Info().Str("events", eventsFile).Str("patients", patientsFile).Int("nr_of_events", len(sim.Events)).
				Msg("Simulated cohort")
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", ".", "output directory")
	cmd.Flags().IntVar(&patients, "patients", defaults.Patients, "number of patients")
	cmd.Flags().Uint32Var(&seed, "seed", defaults.Seed, "random seed")
	cmd.Flags().StringVar(&censorDate, "censor-date", defaults.CensorDate.String(), "censor date of the trial")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(programName, app.Version)
		},
	}
}
