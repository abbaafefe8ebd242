// File: internal/session/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package session runs one connection's worth of page streams: a fixed set
// of workers, each owning one page, sharing the connection and the stats
// aggregator. The coordinator joins every worker regardless of how it
// stopped.
package session
