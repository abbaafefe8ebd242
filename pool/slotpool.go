// File: pool/slotpool.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed slot pool: one page per concurrent stream, allocated once per session
// and recycled by its owning worker for every operation.

package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-pagebench/api"
)

// FillFunc initialises a freshly allocated page.
type FillFunc func(page []byte)

// PatternFill writes byte i = i mod 256.
func PatternFill(page []byte) {
	for i := range page {
		page[i] = byte(i % 256)
	}
}

// Page implements api.Buffer for one worker slot.
type Page struct {
	data []byte
	slot int
	pool *SlotPool
	lent atomic.Bool
}

// Bytes returns the whole page.
func (p *Page) Bytes() []byte { return p.data }

// Slot returns the owning worker slot.
func (p *Page) Slot() int { return p.slot }

// Lend transfers ownership to an in-flight operation.
func (p *Page) Lend() error {
	if !p.lent.CompareAndSwap(false, true) {
		return fmt.Errorf("slot %d: %w", p.slot, api.ErrBufferInFlight)
	}
	p.pool.inFlight.Add(1)
	return nil
}

// Reclaim returns ownership to the worker. Reclaiming a page that is not
// lent is a no-op.
func (p *Page) Reclaim() {
	if p.lent.CompareAndSwap(true, false) {
		p.pool.inFlight.Add(-1)
	}
}

// Lent reports whether the page is currently held by an operation.
func (p *Page) Lent() bool { return p.lent.Load() }

// SlotPool owns the pages of one session. It never grows or shrinks.
type SlotPool struct {
	mu       sync.Mutex
	pages    []*Page
	size     int
	inFlight atomic.Int64
	closed   bool
}

// NewSlotPool allocates n pages of size bytes, running fill on each.
func NewSlotPool(n, size int, fill FillFunc) (*SlotPool, error) {
	if n <= 0 || size <= 0 {
		return nil, fmt.Errorf("slot pool n=%d size=%d: %w", n, size, api.ErrInvalidArgument)
	}
	sp := &SlotPool{
		pages: make([]*Page, n),
		size:  size,
	}
	for i := range sp.pages {
		data := make([]byte, size)
		if fill != nil {
			fill(data)
		}
		sp.pages[i] = &Page{data: data, slot: i, pool: sp}
	}
	return sp, nil
}

// Page returns the page of slot i.
func (sp *SlotPool) Page(i int) api.Buffer {
	return sp.pages[i]
}

// Len returns the number of slots.
func (sp *SlotPool) Len() int { return len(sp.pages) }

// PageSize returns the fixed page length.
func (sp *SlotPool) PageSize() int { return sp.size }

// InFlight returns how many pages are lent right now.
func (sp *SlotPool) InFlight() int { return int(sp.inFlight.Load()) }

// Close releases all pages. It refuses while an operation still holds one.
func (sp *SlotPool) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.closed {
		return api.ErrPoolClosed
	}
	if n := sp.inFlight.Load(); n > 0 {
		return fmt.Errorf("close with %d pages lent: %w", n, api.ErrBufferInFlight)
	}
	sp.closed = true
	for _, p := range sp.pages {
		p.data = nil
	}
	return nil
}

// Ensure compile-time compliance.
var (
	_ api.Buffer     = (*Page)(nil)
	_ api.BufferPool = (*SlotPool)(nil)
)
