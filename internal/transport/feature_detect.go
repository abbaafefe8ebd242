// File: internal/transport/feature_detect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backend naming and runtime selection.

package transport

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/uring"
)

// Backend names an api.Conn implementation.
type Backend string

const (
	BackendAuto  Backend = "auto"
	BackendURing Backend = "uring"
	BackendNet   Backend = "net"
)

// DefaultRingEntries is the SQ depth of each connection's ring.
const DefaultRingEntries = control.DefaultRingEntries

// Options configures Dial and Listen.
type Options struct {
	Backend     Backend
	RingEntries uint32
}

// HasIoUringSupport reports whether the kernel accepts io_uring_setup.
// Tests replace it to force the fallback.
var HasIoUringSupport = uring.Supported

// ParseBackend converts a config string to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendURing, BackendNet:
		return b, nil
	default:
		return "", fmt.Errorf("backend %q: %w", s, api.ErrInvalidArgument)
	}
}

// RuntimeBackend resolves auto to the best backend for this host.
func RuntimeBackend(b Backend) Backend {
	if b != BackendAuto && b != "" {
		return b
	}
	if HasIoUringSupport() {
		return BackendURing
	}
	return BackendNet
}

// FromConfig builds Options from the resolved run configuration.
func FromConfig(cfg control.Config) (Options, error) {
	b, err := ParseBackend(cfg.Backend)
	if err != nil {
		return Options{}, err
	}
	return Options{Backend: b, RingEntries: cfg.RingEntries}, nil
}
