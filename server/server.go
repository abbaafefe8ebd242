// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accept loop. Every connection gets its own writer session; accepting never
// waits on a running session.

package server

import (
	"context"
	"fmt"
	"net"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/session"
	"github.com/momentics/hioload-pagebench/internal/transport"
)

// NewServer binds the listen address.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if _, err := control.ParseAddress(cfg.ListenAddr); err != nil {
		return nil, err
	}
	ln, err := transport.Listen(cfg.ListenAddr, cfg.Transport)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		listener: ln,
		sessions: session.NewRegistry(),
		logger:   control.Discard(),
		shutdown: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if p := s.metrics.Probes(); p != nil {
		p.Register("backend", func() any { return string(ln.Backend()) })
		p.Register("sessions", func() any { return s.sessions.Len() })
	}
	s.logger.Infof("Server listening on %s", ln.Addr())
	s.logger.Debugf("backend %s, %d writers of %d bytes per connection", ln.Backend(), cfg.Parallel, cfg.PageSize)
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Sessions returns the number of connections being served.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// Serve accepts until Shutdown or ctx cancellation. An accept failure is
// returned; a shutdown returns nil once every session has ended.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Shutdown() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.wg.Wait()
				return nil
			default:
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.logger.Infof("Client %s connected", conn.RemoteAddr())
		s.wg.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn api.Conn) {
	defer s.wg.Done()
	id := s.sessions.Add(conn)
	defer func() {
		s.sessions.Delete(id)
		conn.Close()
	}()
	select {
	case <-s.shutdown:
		return
	default:
	}

	sess, err := session.New(conn, session.Config{
		Role:     session.Writer,
		Parallel: s.cfg.Parallel,
		PageSize: s.cfg.PageSize,
		Metrics:  s.metrics,
		Logger:   s.logger,
	})
	if err != nil {
		s.logger.Errorf("Session for %s: %v", conn.RemoteAddr(), err)
		return
	}
	res, err := sess.Run(ctx)
	if err != nil {
		s.logger.Errorf("Session for %s: %v", conn.RemoteAddr(), err)
		return
	}
	s.logger.Debugf("Session for %s done: %d pages, %d bytes in %s, %d failed writers",
		conn.RemoteAddr(), res.Pages, res.Bytes, res.Elapsed, res.Failed)
}

// Shutdown stops accepting and closes every live connection. It is safe to
// call more than once.
func (s *Server) Shutdown() error {
	var err error
	s.once.Do(func() {
		close(s.shutdown)
		err = s.listener.Close()
		s.sessions.CloseAll()
	})
	return err
}
