// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/pkg/ljv7"
)

var (
	replayTarget string
	replayPace   bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Replay the client side of a capture against a controller",
	Long: `Re-send the client-originated frames of a capture file to a controller
(or any listener) over TCP and decode whatever comes back.

With --pace, the delays between the captured frames are reproduced;
otherwise frames are sent back to back. Sensor-originated frames in the
capture are skipped: the live peer provides the replies.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayTarget, "target", "t", "", "Controller address to replay against (host:port)")
	replayCmd.Flags().BoolVar(&replayPace, "pace", false, "Reproduce the original inter-frame timing")
}

func runReplay(cmd *cobra.Command, args []string) error {
	hdr, entries, err := capture.ReadAll(args[0])
	if err != nil {
		return err
	}

	target := replayTarget
	if target == "" {
		target = hdr.Sensor
	}
	if target == "" {
		return fmt.Errorf("no target address: capture has no sensor recorded, set --target")
	}

	conn, err := net.DialTimeout("tcp", target, 5*time.Second)
	if err != nil {
		return fmt.Errorf("replay: dial %s: %w", target, err)
	}
	defer conn.Close()
	logger.Info().Str("target", target).Int("entries", len(entries)).Msg("replay started")

	stats := ljv7.NewStatistics()

	// Decode replies on a second goroutine so slow controllers cannot
	// deadlock the send path.
	done := make(chan struct{})
	go func() {
		defer close(done)
		re := ljv7.NewReassemblerWithLimit(cfg.Decode.MaxFrame)
		buf := make([]byte, 32<<10)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				frames, ferr := re.Feed(buf[:n])
				for _, f := range frames {
					rec := ljv7.DecodeFrame(f, cfg.Decode.IncludeReserved)
					stats.Update(rec)
					fmt.Fprint(cmd.OutOrStdout(), ljv7.FormatRecord(rec))
				}
				if ferr != nil {
					logger.Error().Err(ferr).Msg("reply stream undecodable")
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	var sent int
	var prev time.Time
	for _, e := range entries {
		if e.Origin != capture.OriginClient {
			continue
		}
		if replayPace && !prev.IsZero() {
			if gap := e.Time.Sub(prev); gap > 0 {
				time.Sleep(gap)
			}
		}
		prev = e.Time
		if _, err := conn.Write(e.Raw); err != nil {
			return fmt.Errorf("replay: send frame %d: %w", sent, err)
		}
		sent++
	}

	// Give the controller a moment to flush its last replies.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	<-done

	fmt.Fprintf(cmd.OutOrStdout(), "\nReplayed %d frames to %s\n", sent, target)
	fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
	return nil
}
