// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection layer for the page benchmark. Establishment (listen, accept,
// dial) is delegated to package net; established streams are wrapped as
// api.Conn on one of two backends:
//
//   - uring: SEND/RECV submitted to a process-wide io_uring ring
//   - net:   plain blocking net.Conn calls on the worker goroutine
//
// Backends are selected per process by name; "auto" prefers uring.
package transport
