// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Optiline Instruments

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optiline/ljscope/internal/capture"
	"github.com/optiline/ljscope/pkg/ljv7"
)

var (
	decodeHex     bool
	decodeSummary bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode frames from a capture file, raw dump or hex dump",
	Long: `Decode every frame in a file and print a human-readable rendering.

Three input formats are accepted:
  - ljscope capture files written by 'tap --record' or 'monitor --record'
  - raw binary dumps of one direction of the TCP stream
  - hex text dumps (with --hex); whitespace is ignored

Direction is taken from each frame's own header marker, so a raw dump may
contain traffic from either or both directions as long as frames are whole.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeHex, "hex", false, "Treat input as hex text instead of binary")
	decodeCmd.Flags().BoolVar(&decodeSummary, "summary", false, "Print statistics after decoding")
}

func runDecode(cmd *cobra.Command, args []string) error {
	path := args[0]
	stats := ljv7.NewStatistics()

	var err error
	if decodeHex {
		err = decodeHexDump(cmd, path, stats)
	} else if isCapture(path) {
		err = decodeCapture(cmd, path, stats)
	} else {
		err = decodeRawDump(cmd, path, stats)
	}
	if err != nil {
		return err
	}

	if decodeSummary {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
	}
	return nil
}

// isCapture sniffs whether path is an ljscope capture file.
func isCapture(path string) bool {
	r, err := capture.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

func decodeCapture(cmd *cobra.Command, path string, stats *ljv7.Statistics) error {
	hdr, entries, err := capture.ReadAll(path)
	if err != nil {
		return err
	}
	if hdr.Sensor != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Capture of %s, taken %s\n\n", hdr.Sensor, hdr.Created.Format("2006-01-02 15:04:05"))
	}
	for _, e := range entries {
		if len(e.Raw) < ljv7.PrefixSize+ljv7.HeaderSize {
			logger.Warn().Int("len", len(e.Raw)).Msg("skipping runt capture entry")
			continue
		}
		rec := ljv7.DecodeFrame(ljv7.Frame{
			TotalLength: uint32(len(e.Raw)),
			Raw:         e.Raw,
		}, cfg.Decode.IncludeReserved)
		rec.Time = e.Time
		stats.Update(rec)
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s", e.Origin, ljv7.FormatRecord(rec))
	}
	return nil
}

func decodeRawDump(cmd *cobra.Command, path string, stats *ljv7.Statistics) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeStream(cmd, data, stats)
}

func decodeHexDump(cmd *cobra.Command, path string, stats *ljv7.Statistics) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, string(text))
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}
	return decodeStream(cmd, data, stats)
}

func decodeStream(cmd *cobra.Command, data []byte, stats *ljv7.Statistics) error {
	re := ljv7.NewReassemblerWithLimit(cfg.Decode.MaxFrame)
	frames, err := re.Feed(data)
	for _, f := range frames {
		rec := ljv7.DecodeFrame(f, cfg.Decode.IncludeReserved)
		stats.Update(rec)
		fmt.Fprint(cmd.OutOrStdout(), ljv7.FormatRecord(rec))
	}
	if err != nil {
		stats.RecordStreamError(err)
		var tooLarge *ljv7.FrameTooLargeError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("stream undecodable after %d frames: %w", len(frames), err)
		}
		return err
	}
	if n := re.BytesNeeded(); n > 0 && n != ljv7.PrefixSize {
		fmt.Fprintf(cmd.OutOrStdout(), "(truncated: %d more bytes needed for the final frame)\n", n)
	}
	return nil
}
