//go:build linux
// +build linux

// File: internal/uring/ring_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// io_uring ring: mmap'd SQ/CQ, FIFO submission backlog, single reaper.

package uring

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/eapache/queue"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-pagebench/api"
)

// closeToken is the user_data of the NOP that stops the reaper.
const closeToken = ^uint64(0)

// op is one submitted operation waiting for its completion.
type op struct {
	id     uint64
	opcode uint8
	fd     int32
	flags  uint32
	buf    []byte
	res    chan result
}

type result struct {
	n   int32
	err error
}

// Ring is one io_uring instance; every Send/Recv parks its caller until the
// matching completion is reaped.
type Ring struct {
	fd       int
	features uint32

	sqRing []byte
	cqRing []byte
	sqeMem []byte

	sqHead    *uint32
	sqTail    *uint32
	sqMask    uint32
	sqEntries uint32
	sqArray   unsafe.Pointer

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   unsafe.Pointer

	// mu guards SQ writes, the backlog and the in-flight count.
	mu          sync.Mutex
	backlog     *queue.Queue
	inflight    int
	maxInflight int
	closing     bool
	closeErr    error

	ops    *xsync.MapOf[uint64, *op]
	nextID atomic.Uint64
	done   chan struct{}
	once   sync.Once
}

// New sets up a ring with the given number of SQ entries (rounded up by the
// kernel to a power of two) and starts its reaper.
func New(entries uint32) (*Ring, error) {
	if entries == 0 {
		return nil, fmt.Errorf("ring entries: %w", api.ErrInvalidArgument)
	}
	var p params
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(&p)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("io_uring_setup: %w", errno)
	}
	r := &Ring{
		fd:       int(fd),
		features: p.Features,
		backlog:  queue.New(),
		ops:      xsync.NewMapOf[uint64, *op](),
		done:     make(chan struct{}),
	}
	if err := r.mmap(&p); err != nil {
		unix.Close(r.fd)
		return nil, err
	}
	// Keep one CQ slot for the close sentinel.
	r.maxInflight = int(p.CQEntries) - 1
	go r.reap()
	return r, nil
}

func (r *Ring) mmap(p *params) error {
	sqSize := int(p.SQOff.Array) + int(p.SQEntries)*4
	cqSize := int(p.CQOff.CQEs) + int(p.CQEntries)*int(cqeSize)
	single := p.Features&featSingleMmap != 0
	if single && cqSize > sqSize {
		sqSize = cqSize
	}

	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_SHARED | unix.MAP_POPULATE
	sq, err := unix.Mmap(r.fd, offSQRing, sqSize, prot, flags)
	if err != nil {
		return fmt.Errorf("mmap sq ring: %w", err)
	}
	cq := sq
	if !single {
		cq, err = unix.Mmap(r.fd, offCQRing, cqSize, prot, flags)
		if err != nil {
			unix.Munmap(sq)
			return fmt.Errorf("mmap cq ring: %w", err)
		}
	}
	sqes, err := unix.Mmap(r.fd, offSQEs, int(p.SQEntries)*int(sqeSize), prot, flags)
	if err != nil {
		if !single {
			unix.Munmap(cq)
		}
		unix.Munmap(sq)
		return fmt.Errorf("mmap sqes: %w", err)
	}

	r.sqRing, r.cqRing, r.sqeMem = sq, cq, sqes
	r.sqHead = u32At(sq, p.SQOff.Head)
	r.sqTail = u32At(sq, p.SQOff.Tail)
	r.sqMask = *u32At(sq, p.SQOff.RingMask)
	r.sqEntries = *u32At(sq, p.SQOff.RingEntries)
	r.sqArray = unsafe.Pointer(&sq[p.SQOff.Array])
	r.cqHead = u32At(cq, p.CQOff.Head)
	r.cqTail = u32At(cq, p.CQOff.Tail)
	r.cqMask = *u32At(cq, p.CQOff.RingMask)
	r.cqes = unsafe.Pointer(&cq[p.CQOff.CQEs])
	return nil
}

func u32At(mem []byte, off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[off]))
}

func (r *Ring) sqeAt(idx uint32) *sqe {
	return (*sqe)(unsafe.Add(unsafe.Pointer(&r.sqeMem[0]), uintptr(idx)*sqeSize))
}

func (r *Ring) cqeAt(idx uint32) *cqe {
	return (*cqe)(unsafe.Add(r.cqes, uintptr(idx)*cqeSize))
}

// Send submits a send of buf on fd and blocks until it completes.
func (r *Ring) Send(fd int, buf []byte, flags uint32) (int, error) {
	return r.do(opSend, fd, buf, flags)
}

// Recv submits a receive into buf on fd and blocks until it completes.
func (r *Ring) Recv(fd int, buf []byte, flags uint32) (int, error) {
	return r.do(opRecv, fd, buf, flags)
}

// Nop round-trips an empty operation through the ring.
func (r *Ring) Nop() error {
	_, err := r.do(opNop, -1, nil, 0)
	return err
}

func (r *Ring) do(opcode uint8, fd int, buf []byte, flags uint32) (int, error) {
	o := &op{
		id:     r.nextID.Add(1),
		opcode: opcode,
		fd:     int32(fd),
		flags:  flags,
		buf:    buf,
		res:    make(chan result, 1),
	}

	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return 0, api.ErrTransportClosed
	}
	r.ops.Store(o.id, o)
	if r.backlog.Length() > 0 || !r.pushLocked(o) {
		r.backlog.Add(o)
	} else if err := r.enterLocked(); err != nil {
		r.closeErr = err
		go r.Close()
	}
	r.mu.Unlock()

	res := <-o.res
	runtime.KeepAlive(buf)
	if res.err != nil {
		return 0, res.err
	}
	if res.n < 0 {
		return 0, unix.Errno(-res.n)
	}
	return int(res.n), nil
}

// pushLocked writes o into the next free SQE. It fails when the SQ is full
// or when the CQ budget is spent.
func (r *Ring) pushLocked(o *op) bool {
	if o.id != closeToken && r.inflight >= r.maxInflight {
		return false
	}
	tail := atomic.LoadUint32(r.sqTail)
	head := atomic.LoadUint32(r.sqHead)
	if tail-head >= r.sqEntries {
		return false
	}
	idx := tail & r.sqMask
	e := r.sqeAt(idx)
	*e = sqe{
		Opcode:   o.opcode,
		Fd:       o.fd,
		OpFlags:  o.flags,
		UserData: o.id,
	}
	if len(o.buf) > 0 {
		e.Addr = uint64(uintptr(unsafe.Pointer(&o.buf[0])))
		e.Len = uint32(len(o.buf))
	}
	*(*uint32)(unsafe.Add(r.sqArray, uintptr(idx)*4)) = idx
	atomic.StoreUint32(r.sqTail, tail+1)
	r.inflight++
	return true
}

// enterLocked hands every queued SQE to the kernel.
func (r *Ring) enterLocked() error {
	for {
		pending := atomic.LoadUint32(r.sqTail) - atomic.LoadUint32(r.sqHead)
		if pending == 0 {
			return nil
		}
		_, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.fd), uintptr(pending), 0, 0, 0, 0)
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return fmt.Errorf("io_uring_enter submit: %w", errno)
		}
	}
}

// flushLocked moves backlog entries into the SQ in FIFO order.
func (r *Ring) flushLocked() {
	pushed := 0
	for r.backlog.Length() > 0 {
		o := r.backlog.Peek().(*op)
		if !r.pushLocked(o) {
			break
		}
		r.backlog.Remove()
		pushed++
	}
	if pushed > 0 {
		if err := r.enterLocked(); err != nil && r.closeErr == nil {
			r.closeErr = err
			go r.Close()
		}
	}
}

// reap waits for completions and wakes their submitters until the close
// sentinel shows up.
func (r *Ring) reap() {
	defer close(r.done)
	for {
		_, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.fd), 0, 1, enterGetEvents, 0, 0)
		if errno != 0 && errno != unix.EINTR && errno != unix.EAGAIN && errno != unix.EBUSY {
			r.mu.Lock()
			r.closing = true
			r.mu.Unlock()
			r.failAll(fmt.Errorf("io_uring_enter wait: %w", errno))
			return
		}

		head := atomic.LoadUint32(r.cqHead)
		tail := atomic.LoadUint32(r.cqTail)
		reaped := 0
		stop := false
		for ; head != tail; head++ {
			c := r.cqeAt(head & r.cqMask)
			id, res := c.UserData, c.Res
			reaped++
			if id == closeToken {
				stop = true
				continue
			}
			if o, ok := r.ops.LoadAndDelete(id); ok {
				o.res <- result{n: res}
			}
		}
		atomic.StoreUint32(r.cqHead, head)

		r.mu.Lock()
		r.inflight -= reaped
		if !r.closing {
			r.flushLocked()
		}
		r.mu.Unlock()

		if stop {
			r.failAll(api.ErrTransportClosed)
			return
		}
	}
}

// failAll completes every registered operation with err.
func (r *Ring) failAll(err error) {
	r.ops.Range(func(id uint64, o *op) bool {
		if _, ok := r.ops.LoadAndDelete(id); ok {
			o.res <- result{err: err}
		}
		return true
	})
}

// Pending returns the number of submissions still parked in the backlog.
func (r *Ring) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backlog.Length()
}

// Close stops the reaper and unmaps the rings. Operations still waiting
// complete with api.ErrTransportClosed.
func (r *Ring) Close() error {
	var err error
	r.once.Do(func() {
		r.mu.Lock()
		r.closing = true
		for r.backlog.Length() > 0 {
			o := r.backlog.Remove().(*op)
			if _, ok := r.ops.LoadAndDelete(o.id); ok {
				o.res <- result{err: api.ErrTransportClosed}
			}
		}
		woke := r.pushLocked(&op{id: closeToken, opcode: opNop, fd: -1})
		if woke {
			woke = r.enterLocked() == nil
		}
		r.mu.Unlock()

		if !woke {
			// The reaper may still sit in io_uring_enter, so the rings stay
			// mapped and the fd stays open.
			r.failAll(api.ErrTransportClosed)
			err = fmt.Errorf("ring close: reaper not woken: %w", api.ErrTransportClosed)
			return
		}
		<-r.done
		r.failAll(api.ErrTransportClosed)

		unix.Munmap(r.sqeMem)
		if &r.cqRing[0] != &r.sqRing[0] {
			unix.Munmap(r.cqRing)
		}
		unix.Munmap(r.sqRing)
		err = unix.Close(r.fd)

		r.mu.Lock()
		if r.closeErr != nil {
			err = r.closeErr
		}
		r.mu.Unlock()
	})
	return err
}
