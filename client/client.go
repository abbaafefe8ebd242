// File: client/client.go
// Package client connects to a page server, reads for a fixed duration and
// reports the achieved throughput.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gologme/log"

	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/session"
	"github.com/momentics/hioload-pagebench/internal/transport"
)

// Config holds all client-side parameters.
type Config struct {
	Addr      string            // server address, ip:port
	Transport transport.Options // I/O backend
	Parallel  int               // reader workers
	PageSize  int               // bytes per receive
	Duration  time.Duration     // measurement window

	Metrics *control.Metrics
	Logger  *log.Logger
}

// DefaultConfig returns the benchmark defaults.
func DefaultConfig() Config {
	return Config{
		Addr: control.DefaultAddress,
		Transport: transport.Options{
			Backend:     transport.BackendAuto,
			RingEntries: transport.DefaultRingEntries,
		},
		Parallel: control.Parallel,
		PageSize: control.PageSize,
		Duration: control.Duration,
	}
}

// Run performs one measurement. Worker I/O errors do not fail the run; the
// report covers whatever was received before them.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Logger == nil {
		cfg.Logger = control.Discard()
	}
	addr, err := control.ParseAddress(cfg.Addr)
	if err != nil {
		return Report{}, err
	}
	conn, err := transport.Dial(ctx, addr.String(), cfg.Transport)
	if err != nil {
		return Report{}, err
	}
	defer conn.Close()
	cfg.Logger.Infof("Connected to server at %s", addr)

	start := time.Now()
	sess, err := session.New(conn, session.Config{
		Role:     session.Reader,
		Parallel: cfg.Parallel,
		PageSize: cfg.PageSize,
		Deadline: start.Add(cfg.Duration),
		Metrics:  cfg.Metrics,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return Report{}, err
	}
	res, err := sess.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return Report{}, fmt.Errorf("reader session: %w", err)
	}
	r := NewReport(res.StatsSnapshot, elapsed)
	r.FailedReaders = res.Failed
	return r, nil
}
