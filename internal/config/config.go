// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

// Package config loads the ljscope TOML configuration file and applies
// defaults for anything the file leaves out.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/optiline/ljscope/pkg/ljv7"
)

// Config is the full ljscope configuration tree.
type Config struct {
	Tap    TapConfig    `toml:"tap"`
	Decode DecodeConfig `toml:"decode"`
	Log    LogConfig    `toml:"log"`
	Relay  RelayConfig  `toml:"relay"`
}

// TapConfig configures the live TCP tap between a client and a sensor head.
type TapConfig struct {
	// Listen is the local address the tap accepts client connections on.
	Listen string `toml:"listen"`
	// Sensor is the address of the real controller the tap forwards to.
	Sensor string `toml:"sensor"`
	// Record, when non-empty, is a capture file every tapped frame is
	// appended to.
	Record string `toml:"record"`
}

// DecodeConfig tunes the frame decoder.
type DecodeConfig struct {
	// MaxFrame caps the declared length a frame prefix may carry.
	MaxFrame uint32 `toml:"max_frame"`
	// IncludeReserved keeps the raw bytes of reserved header and body
	// regions on decoded records.
	IncludeReserved bool `toml:"include_reserved"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `toml:"level"`
	// Pretty switches from JSON to human console output.
	Pretty bool `toml:"pretty"`
}

// RelayConfig configures the websocket relay endpoint.
type RelayConfig struct {
	// Listen is the HTTP address the relay serves on. Empty disables it.
	Listen string `toml:"listen"`
	// RequireAuth demands HTTP basic auth on the websocket endpoint.
	RequireAuth bool `toml:"require_auth"`
}

// Default returns a Config with every field at its built-in default.
func Default() Config {
	return Config{
		Tap: TapConfig{
			Listen: fmt.Sprintf(":%d", ljv7.DefaultCommandPort),
		},
		Decode: DecodeConfig{
			MaxFrame: ljv7.DefaultMaxFrameSize,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path on top of Default. Fields absent from
// the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Decode.MaxFrame < ljv7.HeaderSize+ljv7.PrefixSize {
		return fmt.Errorf("decode.max_frame %d below minimum frame size", c.Decode.MaxFrame)
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q not recognized", c.Log.Level)
	}
	if c.Tap.Sensor != "" && !strings.Contains(c.Tap.Sensor, ":") {
		return fmt.Errorf("tap.sensor %q missing port", c.Tap.Sensor)
	}
	return nil
}
