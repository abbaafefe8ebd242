// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide transfer counters exported in Prometheus text format.
// Workers only add; nothing on the hot path reads them back.

package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gologme/log"
)

// Metrics holds the counters of one role (server or client).
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	set    *metrics.Set
	bytes  *metrics.Counter
	pages  *metrics.Counter
	errors *metrics.Counter
	active atomic.Int64
	probes *Probes
}

// NewMetrics registers the counters for role in a private set.
func NewMetrics(role string) *Metrics {
	m := &Metrics{set: metrics.NewSet(), probes: NewProbes()}
	m.bytes = m.set.NewCounter(fmt.Sprintf(`pagebench_bytes_total{role=%q}`, role))
	m.pages = m.set.NewCounter(fmt.Sprintf(`pagebench_pages_total{role=%q}`, role))
	m.errors = m.set.NewCounter(fmt.Sprintf(`pagebench_errors_total{role=%q}`, role))
	m.set.NewGauge(fmt.Sprintf(`pagebench_sessions_active{role=%q}`, role), func() float64 {
		return float64(m.active.Load())
	})
	return m
}

// Observe records one completed operation of n bytes.
func (m *Metrics) Observe(n int) {
	if m == nil {
		return
	}
	m.bytes.Add(n)
	m.pages.Inc()
}

// Failed records one worker stopped by an I/O error.
func (m *Metrics) Failed() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

// SessionStarted bumps the active session gauge.
func (m *Metrics) SessionStarted() {
	if m != nil {
		m.active.Add(1)
	}
}

// SessionEnded lowers the active session gauge.
func (m *Metrics) SessionEnded() {
	if m != nil {
		m.active.Add(-1)
	}
}

// Active returns the number of running sessions.
func (m *Metrics) Active() int64 {
	if m == nil {
		return 0
	}
	return m.active.Load()
}

// Probes returns the debug probe registry served next to the metrics.
func (m *Metrics) Probes() *Probes {
	if m == nil {
		return nil
	}
	return m.probes
}

// WritePrometheus writes all counters in text exposition format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
}

// Handler serves /metrics and /debug/probes.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.WritePrometheus(w)
	})
	mux.HandleFunc("/debug/probes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = m.probes.WriteJSON(w)
	})
	return mux
}

// Serve exposes Handler on addr until ctx is done. An empty addr disables it.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *log.Logger) error {
	if m == nil || addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Infof("Metrics served on http://%s/metrics", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorln("Metrics server stopped:", err)
		}
	}()
	return nil
}
