// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/internal/relay"
	"github.com/optiline/ljscope/internal/tap"
	"github.com/optiline/ljscope/pkg/ljv7"
)

var (
	tapListen string
	tapSensor string
	tapRecord string
	tapRelay  string
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Proxy the command channel and decode traffic in flight",
	Long: `Run a transparent TCP proxy between client software and the controller.

Point the client at the tap's listen address instead of the controller.
Bytes are forwarded unmodified in both directions while every frame is
reassembled, decoded and logged. Traffic can simultaneously be recorded
to a capture file and published to WebSocket subscribers.

When the relay requires authentication, the password is read from the
LJSCOPE_PASSWORD environment variable, or prompted interactively if not
set. The --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	RunE: runTap,
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.Flags().StringVarP(&tapListen, "listen", "l", "", "Local address to accept clients on")
	tapCmd.Flags().StringVarP(&tapSensor, "sensor", "s", "", "Controller address to forward to (host:port)")
	tapCmd.Flags().StringVar(&tapRecord, "record", "", "Write all frames to this capture file")
	tapCmd.Flags().StringVar(&tapRelay, "relay", "", "Serve a WebSocket relay on this address")
}

func runTap(cmd *cobra.Command, args []string) error {
	applyTapFlags(cmd)
	if cfg.Tap.Sensor == "" {
		return fmt.Errorf("no sensor address: set --sensor or tap.sensor in the config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := ljv7.NewStatistics()
	sinks := tap.Fanout{
		&tap.LogSink{Log: logger},
		&tap.StatsSink{Stats: stats},
	}

	if cfg.Tap.Record != "" {
		w, err := capture.OpenWriter(cfg.Tap.Record, cfg.Tap.Sensor)
		if err != nil {
			return err
		}
		defer func() {
			logger.Info().Int("frames", w.Count()).Str("file", cfg.Tap.Record).Msg("capture written")
			w.Close()
		}()
		sinks = append(sinks, &tap.CaptureSink{Writer: w, Log: logger})
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Relay.Listen != "" {
		auth, err := relayAuth()
		if err != nil {
			return err
		}
		rs := relay.New(auth, logger)
		sinks = append(sinks, rs)
		g.Go(func() error { return rs.ListenAndServe(ctx, cfg.Relay.Listen) })
	}

	t := tap.New(tap.Options{
		Listen:          cfg.Tap.Listen,
		Sensor:          cfg.Tap.Sensor,
		MaxFrame:        cfg.Decode.MaxFrame,
		IncludeReserved: cfg.Decode.IncludeReserved,
	}, sinks, logger)
	g.Go(func() error { return t.ListenAndServe(ctx) })

	err := g.Wait()
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
	return err
}

// applyTapFlags lets command-line flags override the config file.
func applyTapFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("listen") {
		cfg.Tap.Listen = tapListen
	}
	if cmd.Flags().Changed("sensor") {
		cfg.Tap.Sensor = tapSensor
	}
	if cmd.Flags().Changed("record") {
		cfg.Tap.Record = tapRecord
	}
	if cmd.Flags().Changed("relay") {
		cfg.Relay.Listen = tapRelay
	}
}

func relayAuth() (relay.Auth, error) {
	if !cfg.Relay.RequireAuth {
		return relay.Auth{}, nil
	}
	password, err := getPassword()
	if err != nil {
		return relay.Auth{}, err
	}
	return relay.Auth{Username: "ljscope", Password: password}, nil
}
