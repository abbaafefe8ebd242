// File: internal/session/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-pagebench/api"
)

// read is the client loop. The deadline is checked only between
// operations, so one receive may complete after it.
func (s *Session) read(page api.Buffer) error {
	slot := page.Slot()
	for {
		if !s.cfg.Deadline.IsZero() && !s.cfg.Clock().Before(s.cfg.Deadline) {
			s.cfg.Logger.Debugf("reader slot %d: deadline reached", slot)
			return nil
		}
		c := s.conn.Recv(page)
		page = c.Buf
		if c.Err != nil {
			return s.fail(slot, c.Err, "Error reading from server")
		}
		if c.N == 0 {
			s.cfg.Logger.Infoln("Server closed the connection")
			return nil
		}
		s.cfg.Stats.Add(uint64(c.N), 1)
		s.cfg.Metrics.Observe(c.N)
	}
}

// write is the server loop. Partial writes are not topped up.
func (s *Session) write(page api.Buffer) error {
	slot := page.Slot()
	for {
		c := s.conn.Send(page)
		page = c.Buf
		if c.Err != nil {
			return s.fail(slot, c.Err, "Error sending to "+s.peer)
		}
		if c.N == 0 {
			s.cfg.Logger.Infof("Client %s disconnected", s.peer)
			return nil
		}
		s.cfg.Stats.Add(uint64(c.N), 1)
		s.cfg.Metrics.Observe(c.N)
	}
}

// fail logs err and stops the worker. A connection closed by this side is a
// shutdown, not a failure.
func (s *Session) fail(slot int, err error, what string) error {
	if errors.Is(err, api.ErrTransportClosed) {
		s.cfg.Logger.Debugf("%s slot %d: connection closed locally", s.cfg.Role, slot)
		return nil
	}
	s.cfg.Logger.Errorf("%s: %v", what, err)
	s.cfg.Metrics.Failed()
	s.failed.Add(1)
	return fmt.Errorf("%s slot %d: %w", s.cfg.Role, slot, err)
}
