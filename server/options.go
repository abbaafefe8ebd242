// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/gologme/log"

	"github.com/momentics/hioload-pagebench/control"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger routes server and session logs to l.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics reports transfer counters and probes into m.
func WithMetrics(m *control.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}
