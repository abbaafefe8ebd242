//go:build linux
// +build linux

package uring

import "sync"

var (
	probeOnce sync.Once
	probeOK   bool
)

// Supported reports whether io_uring_setup works here and the kernel knows
// SEND/RECV. Seccomp profiles and old kernels fail; the result is cached.
func Supported() bool {
	probeOnce.Do(func() {
		r, err := New(4)
		if err != nil {
			return
		}
		probeOK = r.features&featRWCurPos != 0 && r.Nop() == nil
		_ = r.Close()
	})
	return probeOK
}
