//go:build !linux
// +build !linux

package transport

import (
	"net"

	"github.com/momentics/hioload-pagebench/api"
)

func wrapRing(c net.Conn, _ Options) (api.Conn, error) {
	c.Close()
	return nil, api.ErrNotSupported
}
