// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the connection interface.

package fake

import (
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-pagebench/api"
)

// Conn is an in-memory api.Conn whose operations complete immediately.
// Every Recv fills the page with the transfer pattern; every Send is
// accepted in full.
type Conn struct {
	mu     sync.Mutex
	limit  int
	fail   map[int]error
	counts map[int]int
	delay  time.Duration
	hook   func(slot int)
	remote net.Addr

	ops       atomic.Int64
	reentrant atomic.Int64
	closed    atomic.Bool
}

// Option configures a fake Conn.
type Option func(*Conn)

// WithLimit makes each slot see a peer close after n successful operations.
func WithLimit(n int) Option {
	return func(c *Conn) { c.limit = n }
}

// FailSlot makes every operation on slot return err.
func FailSlot(slot int, err error) Option {
	return func(c *Conn) { c.fail[slot] = err }
}

// WithDelay makes every operation take at least d.
func WithDelay(d time.Duration) Option {
	return func(c *Conn) { c.delay = d }
}

// WithHook runs fn after every operation, before it completes.
func WithHook(fn func(slot int)) Option {
	return func(c *Conn) { c.hook = fn }
}

// NewConn creates a fake connection.
func NewConn(opts ...Option) *Conn {
	c := &Conn{
		fail:   make(map[int]error),
		counts: make(map[int]int),
		remote: net.TCPAddrFromAddrPort(netip.MustParseAddrPort("127.0.0.1:40000")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Recv implements api.Conn.Recv.
func (c *Conn) Recv(buf api.Buffer) api.Completion {
	return c.do(buf, true)
}

// Send implements api.Conn.Send.
func (c *Conn) Send(buf api.Buffer) api.Completion {
	return c.do(buf, false)
}

func (c *Conn) do(buf api.Buffer, fill bool) api.Completion {
	if c.closed.Load() {
		return api.Completion{Buf: buf, Err: api.ErrTransportClosed}
	}
	if err := buf.Lend(); err != nil {
		c.reentrant.Add(1)
		return api.Completion{Buf: buf, Err: err}
	}
	defer buf.Reclaim()

	slot := buf.Slot()
	c.mu.Lock()
	c.counts[slot]++
	n := c.counts[slot]
	err := c.fail[slot]
	c.mu.Unlock()
	c.ops.Add(1)

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.hook != nil {
		c.hook(slot)
	}
	if err != nil {
		return api.Completion{Buf: buf, Err: err}
	}
	if c.limit > 0 && n > c.limit {
		return api.Completion{Buf: buf}
	}
	p := buf.Bytes()
	if fill {
		for i := range p {
			p[i] = byte(i % 256)
		}
	}
	return api.Completion{N: len(p), Buf: buf}
}

// Close implements api.Conn.Close.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return api.ErrTransportClosed
	}
	return nil
}

// RemoteAddr implements api.Conn.RemoteAddr.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// Ops returns the number of operations issued on slot.
func (c *Conn) Ops(slot int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[slot]
}

// TotalOps returns the number of operations issued on all slots.
func (c *Conn) TotalOps() int64 { return c.ops.Load() }

// Reentrant returns how many operations were refused because their buffer
// was already lent to another operation.
func (c *Conn) Reentrant() int64 { return c.reentrant.Load() }

// Closed reports whether Close was called.
func (c *Conn) Closed() bool { return c.closed.Load() }

var _ api.Conn = (*Conn)(nil)
