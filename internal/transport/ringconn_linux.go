//go:build linux
// +build linux

// File: internal/transport/ringconn_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// io_uring-backed api.Conn. The socket is detached from the Go netpoller by
// duplicating its descriptor in blocking mode; every Recv/Send becomes one
// SQE on the connection's own ring, so a stalled peer only holds back its
// own submissions.

package transport

import (
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/internal/uring"
)

// RingConn submits its operations to an io_uring ring it owns.
type RingConn struct {
	file   *os.File
	fd     int
	ring   *uring.Ring
	remote net.Addr

	// mu is held shared by operations and exclusively by Close so the fd
	// number is never reused under an in-flight submission.
	mu      sync.RWMutex
	closed  bool
	closing atomic.Bool
}

// NewRingConn takes ownership of c and ring and moves the socket onto ring.
// Both are closed if the move fails.
func NewRingConn(c net.Conn, ring *uring.Ring) (*RingConn, error) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		c.Close()
		ring.Close()
		return nil, fmt.Errorf("ring conn needs *net.TCPConn, got %T: %w", c, api.ErrNotSupported)
	}
	f, err := tc.File()
	remote := tc.RemoteAddr()
	tc.Close()
	if err != nil {
		ring.Close()
		return nil, fmt.Errorf("dup socket: %w", err)
	}
	// Fd switches the duplicate to blocking mode; the ring then parks
	// operations in the kernel instead of failing them with EAGAIN.
	fd := int(f.Fd())
	return &RingConn{file: f, fd: fd, ring: ring, remote: remote}, nil
}

// Recv submits one RECV into buf.
func (c *RingConn) Recv(buf api.Buffer) api.Completion {
	return c.submit(buf, func(b []byte) (int, error) { return c.ring.Recv(c.fd, b, 0) }, "recv")
}

// Send submits one SEND of the whole buf.
func (c *RingConn) Send(buf api.Buffer) api.Completion {
	return c.submit(buf, func(b []byte) (int, error) { return c.ring.Send(c.fd, b, unix.MSG_NOSIGNAL) }, "send")
}

func (c *RingConn) submit(buf api.Buffer, do func([]byte) (int, error), op string) api.Completion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return api.Completion{Buf: buf, Err: fmt.Errorf("%s: %w", op, api.ErrTransportClosed)}
	}
	if err := buf.Lend(); err != nil {
		return api.Completion{Buf: buf, Err: err}
	}
	n, err := do(buf.Bytes())
	buf.Reclaim()
	if err != nil {
		if op == "send" && peerGone(err) {
			return api.Completion{Buf: buf}
		}
		return api.Completion{Buf: buf, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return api.Completion{N: n, Buf: buf}
}

// Close shuts the socket down, which completes pending RECV/SEND entries,
// then releases the descriptor and the ring once they returned.
func (c *RingConn) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	err := c.file.Close()
	if rerr := c.ring.Close(); err == nil {
		err = rerr
	}
	return err
}

// RemoteAddr returns the peer address.
func (c *RingConn) RemoteAddr() net.Addr { return c.remote }

var _ api.Conn = (*RingConn)(nil)

func wrapRing(c net.Conn, opts Options) (api.Conn, error) {
	entries := opts.RingEntries
	if entries == 0 {
		entries = DefaultRingEntries
	}
	r, err := uring.New(entries)
	if err != nil {
		c.Close()
		return nil, err
	}
	return NewRingConn(c, r)
}
