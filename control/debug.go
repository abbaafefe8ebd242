// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named debug probes evaluated on demand.

package control

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
)

// Probes holds registered probe functions.
type Probes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewProbes creates a probe registry.
func NewProbes() *Probes {
	return &Probes{probes: make(map[string]func() any)}
}

// Register inserts a named probe, replacing an existing one.
func (p *Probes) Register(name string, fn func() any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[name] = fn
}

// DumpState evaluates every probe.
func (p *Probes) DumpState() map[string]any {
	out := make(map[string]any)
	if p == nil {
		return out
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for k, fn := range p.probes {
		out[k] = fn()
	}
	return out
}

// Names returns the registered probe names, sorted.
func (p *Probes) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	names := make([]string, 0, len(p.probes))
	for k := range p.probes {
		names = append(names, k)
	}
	p.mu.RUnlock()
	sort.Strings(names)
	return names
}

// WriteJSON writes DumpState as one JSON object.
func (p *Probes) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(p.DumpState())
}
