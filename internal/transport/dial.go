// File: internal/transport/dial.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dial and Listen wrap package net and hand out backend connections.

package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/momentics/hioload-pagebench/api"
)

// Wrap converts an established connection to the backend in opts.
func Wrap(c net.Conn, opts Options) (api.Conn, error) {
	switch RuntimeBackend(opts.Backend) {
	case BackendURing:
		return wrapRing(c, opts)
	default:
		return NewNetConn(c), nil
	}
}

// Dial connects to addr and wraps the stream.
func Dial(ctx context.Context, addr string, opts Options) (api.Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return Wrap(c, opts)
}

// Listener accepts TCP connections and wraps them for one backend.
type Listener struct {
	ln   net.Listener
	opts Options
}

// Listen binds addr.
func Listen(addr string, opts Options) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	opts.Backend = RuntimeBackend(opts.Backend)
	return &Listener{ln: ln, opts: opts}, nil
}

// Accept waits for the next peer.
func (l *Listener) Accept() (api.Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, netErr("accept", err)
	}
	return Wrap(c, l.opts)
}

// Close stops accepting.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Backend returns the resolved backend.
func (l *Listener) Backend() Backend { return l.opts.Backend }

var _ api.Listener = (*Listener)(nil)
