// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/ruleforge/internal/rules/config"
)

// Global flag for config file path, populated by the persistent --config
// flag and consumed by every subcommand via loadConfig.
var configFile string

// NewRootCmd creates the root command for the ruleforge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ruleforge",
		Short: "ruleforge - a YAML business rule engine",
		Long: `ruleforge parses, validates, and evaluates YAML-embedded business
rules: structured comparisons, simplified keyword conditions, and
multi-rule lists, against a library of arithmetic, date, financial,
statistical, and validation built-ins.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewLintCmd())
	cmd.AddCommand(NewEvalCmd())
	cmd.AddCommand(NewFmtCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewServeMetricsCmd())

	return cmd
}

// loadConfig builds a config.Config from the persistent --config file and
// whatever flags the invoking subcommand registered on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, flagSetOf(cmd))
}

// flagSetOf returns the full merged flag set (local + persistent/inherited)
// cobra exposes for cmd, the view posflag.Provider needs to see overrides
// set on either the subcommand or the root command.
func flagSetOf(cmd *cobra.Command) *pflag.FlagSet {
	return cmd.Flags()
}
