// File: internal/uring/doc.go
// Package uring
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Minimal io_uring completion ring used by the page benchmark transport.
// Goroutines submit one SEND or RECV each and park until a single reaper
// goroutine delivers the matching completion. Completions are matched by
// user_data and may arrive in any order.
package uring
