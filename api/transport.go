// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Completion-style connection abstraction shared by the io_uring and the
// portable net backends.

package api

import "net"

// Completion is the outcome of one submitted operation. Buf carries the
// ownership of the submitted buffer back to the caller.
//
// N == 0 with a nil Err means the peer closed the stream.
type Completion struct {
	N   int
	Buf Buffer
	Err error
}

// PeerClosed reports whether the completion signals an orderly close.
func (c Completion) PeerClosed() bool {
	return c.Err == nil && c.N == 0
}

// Conn is one established byte stream. Recv and Send may be called
// concurrently from many goroutines; each call owns its buffer until it
// returns. Short reads and writes are regular completions.
type Conn interface {
	// Recv reads into buf and returns once the kernel completed the read.
	Recv(buf Buffer) Completion

	// Send writes the whole page once; the kernel may accept fewer bytes.
	Send(buf Buffer) Completion

	// Close shuts the stream down, waking outstanding operations.
	Close() error

	// RemoteAddr returns the peer address.
	RemoteAddr() net.Addr
}

// Listener accepts connections already wrapped for a backend.
type Listener interface {
	Accept() (Conn, error)
	Close() error
	Addr() net.Addr
}
