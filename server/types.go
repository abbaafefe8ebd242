// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync"

	"github.com/gologme/log"

	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/session"
	"github.com/momentics/hioload-pagebench/internal/transport"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr string            // TCP bind address, ip:port
	Transport  transport.Options // I/O backend for accepted connections
	Parallel   int               // writer workers per connection
	PageSize   int               // bytes per page
}

// DefaultConfig returns the benchmark defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: control.DefaultAddress,
		Transport: transport.Options{
			Backend:     transport.BackendAuto,
			RingEntries: transport.DefaultRingEntries,
		},
		Parallel: control.Parallel,
		PageSize: control.PageSize,
	}
}

// Server accepts connections and streams pages to each of them.
type Server struct {
	cfg      *Config
	listener *transport.Listener
	sessions *session.Registry
	metrics  *control.Metrics
	logger   *log.Logger

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}
