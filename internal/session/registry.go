// File: internal/session/registry.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Concurrent registry of live sessions, used to tear all of them down on
// shutdown.

package session

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/momentics/hioload-pagebench/api"
)

// Registry tracks the connections of running sessions.
type Registry struct {
	conns  *xsync.MapOf[uint64, api.Conn]
	nextID atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: xsync.NewMapOf[uint64, api.Conn]()}
}

// Add registers conn and returns its id.
func (r *Registry) Add(conn api.Conn) uint64 {
	id := r.nextID.Add(1)
	r.conns.Store(id, conn)
	return id
}

// Delete forgets id.
func (r *Registry) Delete(id uint64) {
	r.conns.Delete(id)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return r.conns.Size()
}

// CloseAll closes every registered connection and empties the registry.
func (r *Registry) CloseAll() {
	r.conns.Range(func(id uint64, c api.Conn) bool {
		if _, ok := r.conns.LoadAndDelete(id); ok {
			c.Close()
		}
		return true
	})
}
