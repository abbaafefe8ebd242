// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/momentics/hioload-pagebench/api"
)

// NetConn runs each operation as a blocking call on the caller's goroutine;
// the return of Read/Write is the completion.
type NetConn struct {
	conn net.Conn
}

// NewNetConn wraps an established connection.
func NewNetConn(conn net.Conn) *NetConn {
	return &NetConn{conn: conn}
}

// Recv reads once into buf.
func (n *NetConn) Recv(buf api.Buffer) api.Completion {
	if err := buf.Lend(); err != nil {
		return api.Completion{Buf: buf, Err: err}
	}
	cnt, err := n.conn.Read(buf.Bytes())
	buf.Reclaim()
	if cnt > 0 || errors.Is(err, io.EOF) {
		// Data wins over a trailing error; the next Recv reports it.
		return api.Completion{N: cnt, Buf: buf}
	}
	return api.Completion{Buf: buf, Err: netErr("recv", err)}
}

// Send writes the whole page once.
func (n *NetConn) Send(buf api.Buffer) api.Completion {
	if err := buf.Lend(); err != nil {
		return api.Completion{Buf: buf, Err: err}
	}
	cnt, err := n.conn.Write(buf.Bytes())
	buf.Reclaim()
	if peerGone(err) {
		// Bytes already written still count; the next Send reports the close.
		return api.Completion{N: cnt, Buf: buf}
	}
	return api.Completion{N: cnt, Buf: buf, Err: netErr("send", err)}
}

// Close the connection.
func (n *NetConn) Close() error {
	return n.conn.Close()
}

// RemoteAddr returns the peer address.
func (n *NetConn) RemoteAddr() net.Addr {
	return n.conn.RemoteAddr()
}

// peerGone reports a send refused because the peer already closed or reset
// the stream. Writers treat it like a zero-length completion.
func peerGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}

func netErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%s: %w", op, api.ErrTransportClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ api.Conn = (*NetConn)(nil)
