// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session coordinator: fan-out of Parallel workers over one connection and
// an unconditional join.

package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gologme/log"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/pool"
)

// Role selects the worker loop.
type Role uint8

const (
	// Reader receives pages until the deadline or peer close (client).
	Reader Role = iota
	// Writer sends the pattern page until peer close or error (server).
	Writer
)

func (r Role) String() string {
	if r == Writer {
		return "writer"
	}
	return "reader"
}

// Config describes one session.
type Config struct {
	Role     Role
	Parallel int
	PageSize int

	// Deadline stops readers once reached. Zero means no deadline.
	Deadline time.Time
	// Clock overrides time.Now.
	Clock func() time.Time

	Stats   *control.Stats
	Metrics *control.Metrics
	Logger  *log.Logger
}

// Result summarises a finished session.
type Result struct {
	control.StatsSnapshot
	Elapsed time.Duration
	// Failed counts workers stopped by an I/O error.
	Failed int
	// Err is the first worker error, if any. It never aborted the others.
	Err error
}

// Session owns the worker set of one connection.
type Session struct {
	conn   api.Conn
	cfg    Config
	peer   string
	failed atomic.Int64
}

// New validates cfg and fills its defaults.
func New(conn api.Conn, cfg Config) (*Session, error) {
	if conn == nil {
		return nil, fmt.Errorf("session: nil conn: %w", api.ErrInvalidArgument)
	}
	if cfg.Parallel <= 0 || cfg.PageSize <= 0 {
		return nil, fmt.Errorf("session: parallel=%d page=%d: %w", cfg.Parallel, cfg.PageSize, api.ErrInvalidArgument)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Stats == nil {
		cfg.Stats = control.NewStats()
	}
	if cfg.Logger == nil {
		cfg.Logger = control.Discard()
	}
	s := &Session{conn: conn, cfg: cfg, peer: "?"}
	if a := conn.RemoteAddr(); a != nil {
		s.peer = a.String()
	}
	return s, nil
}

// Stats returns the aggregator the workers report into.
func (s *Session) Stats() *control.Stats { return s.cfg.Stats }

// Run starts exactly Parallel workers and blocks until all of them stopped.
// Cancelling ctx closes the connection, which wakes every worker.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var fill pool.FillFunc
	if s.cfg.Role == Writer {
		fill = pool.PatternFill
	}
	slots, err := pool.NewSlotPool(s.cfg.Parallel, s.cfg.PageSize, fill)
	if err != nil {
		return Result{}, fmt.Errorf("session pool: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	s.cfg.Metrics.SessionStarted()
	defer s.cfg.Metrics.SessionEnded()

	start := s.cfg.Clock()
	var g errgroup.Group
	for i := 0; i < slots.Len(); i++ {
		page := slots.Page(i)
		s.cfg.Logger.Debugf("%s slot %d started for %s", s.cfg.Role, i, s.peer)
		if s.cfg.Role == Writer {
			g.Go(func() error { return s.write(page) })
		} else {
			g.Go(func() error { return s.read(page) })
		}
	}
	werr := g.Wait()
	elapsed := s.cfg.Clock().Sub(start)

	res := Result{
		StatsSnapshot: s.cfg.Stats.Snapshot(),
		Elapsed:       elapsed,
		Failed:        int(s.failed.Load()),
		Err:           werr,
	}
	if err := slots.Close(); err != nil {
		return res, fmt.Errorf("session pool close: %w", err)
	}
	return res, nil
}
