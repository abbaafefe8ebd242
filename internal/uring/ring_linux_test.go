//go:build linux
// +build linux

package uring_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/internal/uring"
)

func newRing(t *testing.T, entries uint32) *uring.Ring {
	t.Helper()
	if !uring.Supported() {
		t.Skip("io_uring not available")
	}
	r, err := uring.New(entries)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestRingNop(t *testing.T) {
	r := newRing(t, 8)
	defer r.Close()
	if err := r.Nop(); err != nil {
		t.Fatalf("Nop: %v", err)
	}
}

func TestRingSendRecv(t *testing.T) {
	r := newRing(t, 8)
	defer r.Close()
	a, b := socketPair(t)

	n, err := r.Send(a, []byte("page"), unix.MSG_NOSIGNAL)
	if err != nil || n != 4 {
		t.Fatalf("Send = %d, %v", n, err)
	}
	buf := make([]byte, 16)
	n, err = r.Recv(b, buf, 0)
	if err != nil || string(buf[:n]) != "page" {
		t.Fatalf("Recv = %q, %v", buf[:n], err)
	}
}

func TestRingRecvPeerClosed(t *testing.T) {
	r := newRing(t, 8)
	defer r.Close()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[1])
	unix.Close(fds[0])

	n, err := r.Recv(fds[1], make([]byte, 8), 0)
	if err != nil || n != 0 {
		t.Fatalf("Recv after peer close = %d, %v; want 0, nil", n, err)
	}
}

func TestRingBacklogDrains(t *testing.T) {
	// Two SQ entries give a CQ budget far below the number of submitters.
	r := newRing(t, 2)
	defer r.Close()

	const submitters = 64
	var wg sync.WaitGroup
	errs := make(chan error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Nop()
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("backlog never drained")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Nop: %v", err)
		}
	}
	if p := r.Pending(); p != 0 {
		t.Errorf("Pending = %d after drain", p)
	}
}

func TestRingCloseFailsWaiters(t *testing.T) {
	r := newRing(t, 8)
	_, b := socketPair(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := r.Recv(b, make([]byte, 8), 0)
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, api.ErrTransportClosed) {
			t.Fatalf("Recv err = %v, want ErrTransportClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending Recv not released by Close")
	}
	if err := r.Nop(); !errors.Is(err, api.ErrTransportClosed) {
		t.Fatalf("Nop after Close err = %v", err)
	}
}
