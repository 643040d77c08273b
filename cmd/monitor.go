// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/internal/tap"
	"github.com/optiline/ljscope/pkg/ljv7"
)

var (
	monListen string
	monSensor string
	monRecord string
	monPlain  bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Tap the command channel with a live statistics display",
	Long: `Run the TCP tap with an interactive terminal display instead of log
output: live protocol statistics, the latest decoded frames and every
anomaly, updated as traffic flows.

With --plain the interactive display is replaced by a statistics summary
printed every few seconds, suitable for logging to a file.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVarP(&monListen, "listen", "l", "", "Local address to accept clients on")
	monitorCmd.Flags().StringVarP(&monSensor, "sensor", "s", "", "Controller address to forward to (host:port)")
	monitorCmd.Flags().StringVar(&monRecord, "record", "", "Write all frames to this capture file")
	monitorCmd.Flags().BoolVar(&monPlain, "plain", false, "Periodic text statistics instead of the interactive display")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("listen") {
		cfg.Tap.Listen = monListen
	}
	if cmd.Flags().Changed("sensor") {
		cfg.Tap.Sensor = monSensor
	}
	if cmd.Flags().Changed("record") {
		cfg.Tap.Record = monRecord
	}
	if cfg.Tap.Sensor == "" {
		return fmt.Errorf("no sensor address: set --sensor or tap.sensor in the config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Statistics are not safe for concurrent use. Each mode folds events
	// into them on a single goroutine: the bubbletea update loop for the
	// interactive display, the command goroutine for --plain.
	stats := ljv7.NewStatistics()
	var sinks tap.Fanout

	if cfg.Tap.Record != "" {
		w, err := capture.OpenWriter(cfg.Tap.Record, cfg.Tap.Sensor)
		if err != nil {
			return err
		}
		defer w.Close()
		sinks = append(sinks, &tap.CaptureSink{Writer: w, Log: logger})
	}

	if monPlain {
		return runMonitorPlain(ctx, cmd, stats, sinks)
	}
	return runMonitorTUI(ctx, stats, sinks)
}

func runMonitorPlain(ctx context.Context, cmd *cobra.Command, stats *ljv7.Statistics, sinks tap.Fanout) error {
	sinks = append(sinks, &tap.LogSink{Log: logger})
	cs := newChanSink()
	t := tap.New(tapOptions(), append(sinks, cs), logger)

	done := make(chan error, 1)
	go func() { done <- t.ListenAndServe(ctx) }()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case ev := <-cs.events:
			stats.Update(ev.Record)
		case err := <-cs.errs:
			stats.RecordStreamError(err)
		case <-ticker.C:
			stats.CalculateRates()
			fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
		case err := <-done:
			// The stream pumps have exited; fold in whatever is
			// still buffered before the final summary.
			cs.drainInto(stats)
			fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
			return err
		}
	}
}

func runMonitorTUI(ctx context.Context, stats *ljv7.Statistics, sinks tap.Fanout) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newMonitorModel(cfg.Tap.Listen, cfg.Tap.Sensor, stats)
	p := tea.NewProgram(m)

	// The TUI owns the terminal; silence the logger while it runs.
	t := tap.New(tapOptions(), append(sinks, &teaSink{program: p}), zerolog.Nop())

	tapDone := make(chan error, 1)
	go func() {
		err := t.ListenAndServe(ctx)
		tapDone <- err
		p.Send(tapStoppedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	// Quitting the TUI stops the tap too.
	cancel()
	return <-tapDone
}

func tapOptions() tap.Options {
	return tap.Options{
		Listen:          cfg.Tap.Listen,
		Sensor:          cfg.Tap.Sensor,
		MaxFrame:        cfg.Decode.MaxFrame,
		IncludeReserved: cfg.Decode.IncludeReserved,
	}
}

// teaSink forwards tap events into the bubbletea program.
type teaSink struct {
	program *tea.Program
}

func (s *teaSink) HandleEvent(ev tap.Event) {
	s.program.Send(frameMsg{event: ev})
}

func (s *teaSink) HandleStreamError(origin capture.Origin, err error) {
	s.program.Send(streamErrMsg{origin: origin, err: err})
}

// chanSink hands tap events over to the goroutine that owns the
// statistics.
type chanSink struct {
	events chan tap.Event
	errs   chan error
}

func newChanSink() *chanSink {
	return &chanSink{
		events: make(chan tap.Event, 64),
		errs:   make(chan error, 8),
	}
}

func (s *chanSink) HandleEvent(ev tap.Event) {
	s.events <- ev
}

func (s *chanSink) HandleStreamError(_ capture.Origin, err error) {
	s.errs <- err
}

// drainInto consumes buffered items without blocking. Only valid once
// the tap has stopped and nothing sends anymore.
func (s *chanSink) drainInto(stats *ljv7.Statistics) {
	for {
		select {
		case ev := <-s.events:
			stats.Update(ev.Record)
		case err := <-s.errs:
			stats.RecordStreamError(err)
		default:
			return
		}
	}
}
