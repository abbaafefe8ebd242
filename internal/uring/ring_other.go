//go:build !linux
// +build !linux

// File: internal/uring/ring_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// io_uring is Linux-only; other platforms get a ring that cannot be created.

package uring

import "github.com/momentics/hioload-pagebench/api"

// Ring is unavailable on this platform.
type Ring struct{}

// New always fails with api.ErrNotSupported.
func New(entries uint32) (*Ring, error) { return nil, api.ErrNotSupported }

// Supported reports false.
func Supported() bool { return false }

func (r *Ring) Send(fd int, buf []byte, flags uint32) (int, error) { return 0, api.ErrNotSupported }
func (r *Ring) Recv(fd int, buf []byte, flags uint32) (int, error) { return 0, api.ErrNotSupported }
func (r *Ring) Nop() error                                          { return api.ErrNotSupported }
func (r *Ring) Pending() int                                        { return 0 }
func (r *Ring) Close() error                                        { return nil }
