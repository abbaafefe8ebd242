package server_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/transport"
	"github.com/momentics/hioload-pagebench/internal/uring"
	"github.com/momentics/hioload-pagebench/server"
)

func startServer(t *testing.T, m *control.Metrics) (*server.Server, chan error) {
	t.Helper()
	return startServerWith(t, m, transport.Options{Backend: transport.BackendNet})
}

func startServerWith(t *testing.T, m *control.Metrics, opts transport.Options) (*server.Server, chan error) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Transport = opts
	srv, err := server.NewServer(cfg, server.WithMetrics(m))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()
	return srv, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerStreamsPattern(t *testing.T) {
	srv, done := startServer(t, nil)
	defer func() {
		srv.Shutdown()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()

	c, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got := make([]byte, 16*control.PageSize)
	if _, err := io.ReadFull(c, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := make([]byte, len(got))
	for i := range want {
		want[i] = byte(i % 256)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("stream does not follow the page pattern")
	}
}

func TestServerIsolatesClients(t *testing.T) {
	m := control.NewMetrics("server")
	srv, done := startServer(t, m)

	a, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	b, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	waitFor(t, func() bool { return srv.Sessions() == 2 })

	a.Close()
	waitFor(t, func() bool { return srv.Sessions() == 1 })

	buf := make([]byte, control.PageSize)
	if _, err := io.ReadFull(b, buf); err != nil {
		t.Fatalf("second client starved after first left: %v", err)
	}

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if srv.Sessions() != 0 || m.Active() != 0 {
		t.Fatalf("sessions left: registry=%d gauge=%d", srv.Sessions(), m.Active())
	}
	if m.Probes().DumpState()["backend"] != "net" {
		t.Fatalf("probes: %v", m.Probes().DumpState())
	}
}

func TestServerRejectsHostname(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "localhost:0"
	if _, err := server.NewServer(cfg); !errors.Is(err, api.ErrInvalidAddress) {
		t.Fatalf("err = %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Transport.Backend = transport.BackendNet
	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServerDisconnectIsNotAnError(t *testing.T) {
	m := control.NewMetrics("server")
	srv, done := startServer(t, m)
	defer func() {
		srv.Shutdown()
		<-done
	}()

	c, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, control.PageSize)
	if _, err := io.ReadFull(c, buf); err != nil {
		t.Fatal(err)
	}
	c.Close()
	waitFor(t, func() bool { return srv.Sessions() == 0 })

	var out strings.Builder
	m.WritePrometheus(&out)
	if !strings.Contains(out.String(), `pagebench_errors_total{role="server"} 0`) {
		t.Fatalf("client disconnect counted as writer errors:\n%s", out.String())
	}
}

func TestRingServerStalledPeersDoNotStarveOthers(t *testing.T) {
	if !uring.Supported() {
		t.Skip("io_uring not available")
	}
	srv, done := startServerWith(t, nil, transport.Options{Backend: transport.BackendURing, RingEntries: 16})
	defer func() {
		srv.Shutdown()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()

	// Two peers that never read keep all their writers parked in the kernel.
	for i := 0; i < 2; i++ {
		idle, err := net.Dial("tcp", srv.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		defer idle.Close()
	}
	waitFor(t, func() bool { return srv.Sessions() == 2 })
	time.Sleep(300 * time.Millisecond)

	c, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.SetReadDeadline(time.Now().Add(3 * time.Second))

	got := make([]byte, 4*control.PageSize)
	if _, err := io.ReadFull(c, got); err != nil {
		t.Fatalf("reader starved by idle peers: %v (sessions=%d)", err, srv.Sessions())
	}
}

func TestRingServerStreamsPages(t *testing.T) {
	if !uring.Supported() {
		t.Skip("io_uring not available")
	}
	srv, done := startServerWith(t, nil, transport.Options{Backend: transport.BackendURing, RingEntries: 32})
	defer func() {
		srv.Shutdown()
		<-done
	}()

	c, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	got := make([]byte, 16*control.PageSize)
	if _, err := io.ReadFull(c, got); err != nil {
		t.Fatalf("read: %v", err)
	}
}
