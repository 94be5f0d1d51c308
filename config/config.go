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

// Package config gathers the settings of a table build from defaults, an optional config file, AGTAB_ environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"agtab/trial"
	"agtab/utils"
)

// DefaultCensorDate is the data lock date of the trial.
const DefaultCensorDate = "2024-04-30"

type Config struct {
	Events                string `mapstructure:"events"`
	Patients              string `mapstructure:"patients"`
	Output                string `mapstructure:"output"`
	CensorDate            string `mapstructure:"censor_date"`
	Exclude               []int  `mapstructure:"exclude"`
	Workers               int    `mapstructure:"workers"`
	LogLevel              string `mapstructure:"log_level"`
	LogFormat             string `mapstructure:"log_format"`
	Dedup                 string `mapstructure:"dedup"`
	CollectErrors         bool   `mapstructure:"collect_errors"`
	ExcludeLateEnrollment bool   `mapstructure:"exclude_late_enrollment"`
	ComplianceThreshold   int    `mapstructure:"compliance_threshold"`
	SQLite                string `mapstructure:"sqlite"`
	DatabaseURL           string `mapstructure:"database_url"`
}

var keys = []string{"events", "patients", "output", "censor_date", "exclude", "workers", "log_level", "log_format",
	"dedup", "collect_errors", "exclude_late_enrollment", "compliance_threshold", "sqlite", "database_url"}

// RegisterFlags declares a flag for every configuration key. Flag names use dashes instead of underscores.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "optional configuration file (yaml, json or toml)")
	flags.String("events", "", "events csv file (patient_id,event_type,event_date)")
	flags.String("patients", "", "patients csv file (patient_id,arm,compliance or patient_id,arm,weeks_completed)")
	flags.String("output", ".", "output directory")
	flags.String("censor-date", DefaultCensorDate, "administrative censor date")
	flags.IntSlice("exclude", nil, "ids of patients to leave out")
	flags.Int("workers", 0, "number of parallel batches, 0 picks a default")
	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.String("log-format", "console", "console or json")
	flags.String("dedup", "keep", "same day event policy: keep, compact or same-day")
	flags.Bool("collect-errors", false, "report the errors of all patients instead of stopping at the first")
	flags.Bool("exclude-late-enrollment", false, "leave out patients enrolled after the censor date")
	flags.Int("compliance-threshold", trial.DefaultComplianceThreshold,
		"questionnaire weeks an intervention patient must complete to be compliant")
	flags.String("sqlite", "", "also write the tables into this SQLite database")
	flags.String("database-url", "", "also copy the tables into this Postgres database")
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load builds a configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("output", ".")
	v.SetDefault("censor_date", DefaultCensorDate)
	v.SetDefault("workers", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("dedup", "keep")
	v.SetDefault("compliance_threshold", trial.DefaultComplianceThreshold)

	v.SetEnvPrefix("AGTAB")
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", f.Value.String(), err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks that a build can be started with this configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Events == "" {
		errs = append(errs, errors.New("no events file"))
	}
	if c.Patients == "" {
		errs = append(errs, errors.New("no patients file"))
	}
	if _, err := c.Censor(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DedupPolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("negative number of workers %d", c.Workers))
	}
	if c.ComplianceThreshold < 1 {
		errs = append(errs, fmt.Errorf("compliance threshold %d must be positive", c.ComplianceThreshold))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Censor returns the parsed censor date.
func (c *Config) Censor() (civil.Date, error) {
	d, err := utils.ParseDate(c.CensorDate)
	if err != nil {
		return civil.Date{}, fmt.Errorf("censor date: %w", err)
	}
	return d, nil
}

// DedupPolicy returns the parsed same day event policy.
func (c *Config) DedupPolicy() (trial.DedupPolicy, error) {
	return trial.ParseDedupPolicy(c.Dedup)
}
