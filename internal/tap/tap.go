// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Optiline Instruments

package tap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/optiline/ljscope/internal/capture"
)

// Options configures a Tap.
type Options struct {
	// Listen is the local address clients connect to.
	Listen string
	// Sensor is the controller address traffic is forwarded to.
	Sensor string
	// MaxFrame caps declared frame lengths; zero keeps the default.
	MaxFrame uint32
	// IncludeReserved keeps reserved-region bytes on decoded records.
	IncludeReserved bool
	// DialTimeout bounds the upstream connect; zero means 5 seconds.
	DialTimeout time.Duration
}

// Tap is a transparent TCP proxy that decodes the traffic it forwards.
// Bytes always flow even when decoding fails; the tap never alters or
// withholds wire data.
type Tap struct {
	opts Options
	sink Sink
	log  zerolog.Logger

	mu sync.Mutex // serializes sink delivery across pump goroutines
}

// New builds a tap delivering decoded traffic to sink.
func New(opts Options, sink Sink, log zerolog.Logger) *Tap {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return &Tap{opts: opts, sink: sink, log: log}
}

// ListenAndServe listens on the configured address and serves until ctx is
// canceled.
func (t *Tap) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.opts.Listen)
	if err != nil {
		return fmt.Errorf("tap: listen %s: %w", t.opts.Listen, err)
	}
	t.log.Info().Str("listen", ln.Addr().String()).Str("sensor", t.opts.Sensor).Msg("tap listening")
	return t.Serve(ctx, ln)
}

// Serve accepts client connections on ln until ctx is canceled.
func (t *Tap) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.handleConn(ctx, conn)
		}()
	}
}

func (t *Tap) handleConn(ctx context.Context, client net.Conn) {
	defer client.Close()
	remote := client.RemoteAddr().String()
	t.log.Info().Str("client", remote).Msg("client connected")

	dialer := net.Dialer{Timeout: t.opts.DialTimeout}
	sensor, err := dialer.DialContext(ctx, "tcp", t.opts.Sensor)
	if err != nil {
		t.log.Error().Str("client", remote).Err(err).Msg("sensor dial failed")
		return
	}
	defer sensor.Close()

	stop := context.AfterFunc(ctx, func() {
		client.Close()
		sensor.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		// Either side closing tears down both so the peer sees EOF.
		defer client.Close()
		defer sensor.Close()
		t.pump(capture.OriginClient, client, sensor)
	}()
	go func() {
		defer wg.Done()
		defer client.Close()
		defer sensor.Close()
		t.pump(capture.OriginSensor, sensor, client)
	}()
	wg.Wait()
	t.log.Info().Str("client", remote).Msg("client disconnected")
}

// pump forwards bytes from src to dst while decoding them.
func (t *Tap) pump(origin capture.Origin, src, dst net.Conn) {
	stream := NewStream(origin, t.opts.MaxFrame, t.opts.IncludeReserved)
	buf := make([]byte, 32<<10)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return
			}
			events, decErr := stream.Feed(buf[:n], time.Now())
			t.deliver(events, origin, decErr)
		}
		if readErr != nil {
			if readErr != io.EOF && !errors.Is(readErr, net.ErrClosed) {
				t.log.Debug().Str("origin", origin.String()).Err(readErr).Msg("read ended")
			}
			return
		}
	}
}

func (t *Tap) deliver(events []Event, origin capture.Origin, decErr error) {
	if len(events) == 0 && decErr == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ev := range events {
		t.sink.HandleEvent(ev)
	}
	if decErr != nil {
		t.sink.HandleStreamError(origin, decErr)
	}
}
