// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments
//
// ljscope - LJ-V7000 Ethernet Protocol Analyzer
//
// A CLI tool for tapping, decoding and monitoring the Keyence LJ-V7000
// laser profilometer command channel (TCP port 24691).

package main

import (
	"os"

	"github.com/optiline/ljscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
