// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/pitchboard/pitchboard/internal/config"
	"github.com/pitchboard/pitchboard/internal/logging"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the pitchd CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "pitchd",
		Short: "pitchd - pitch board authentication service",
		Long: `pitchd serves account signup, sign-in and bearer-token
authentication for the pitch board, backed by PostgreSQL and
optionally Redis for single-use token revocation.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML); defaults to $XDG_CONFIG_HOME/pitchboard/config.yaml when present")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newTokenCmd(deps))

	return cmd
}

// loadConfig resolves configuration for cmd from the dotenv file, the
// config file, the environment and any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	path := configFile
	if path == "" {
		path = config.DefaultFile()
	}
	return config.Load(path, cmd.Flags())
}

func setupLogging(cfg *config.Config, deps *Deps) {
	logger := logging.Setup("pitchd", version, cfg.LogFormat, cfg.LogLevel, deps.LogOutput)
	deps.setLogger(logger)
}
