// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/optiline/ljscope/internal/config"
)

var (
	// Global flags
	cfgPath             string
	flagMaxFrame        uint32
	flagIncludeReserved bool
	verbose             bool

	// Loaded configuration and logger, set up before any subcommand runs
	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ljscope",
	Short: "LJ-V7000 Ethernet Protocol Analyzer",
	Long: `ljscope - A CLI tool for capturing, decoding and analyzing the Keyence
LJ-V7000 laser profilometer Ethernet command protocol.

Provides a transparent TCP tap that sits between client software and the
controller, offline decoding of captures and raw dumps, live monitoring
with protocol statistics, and a self-test that exercises every supported
command layout.

A TOML config file can preset the tap, decoder, logging and relay options;
command-line flags override it.`,
	Version:       "1.2.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}
		if cmd.Flags().Changed("max-frame") {
			cfg.Decode.MaxFrame = flagMaxFrame
		}
		if cmd.Flags().Changed("include-reserved") {
			cfg.Decode.IncludeReserved = flagIncludeReserved
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = newLogger(cfg.Log)
		return nil
	},
}

func newLogger(lc config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if lc.Pretty {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().Uint32Var(&flagMaxFrame, "max-frame", 0, "Maximum declared frame length in bytes")
	rootCmd.PersistentFlags().BoolVar(&flagIncludeReserved, "include-reserved", false, "Keep raw bytes of reserved regions on decoded records")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
