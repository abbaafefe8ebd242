// Package api
// Author: momentics
//
// Page buffers with explicit ownership hand-off for completion-based IO.
//
// A buffer is owned either by the worker that holds it or by exactly one
// in-flight operation. Ownership moves into Conn.Recv/Conn.Send and comes
// back in the returned Completion.

package api

// Buffer describes a fixed-length page bound to one worker slot.
type Buffer interface {
	// Bytes returns the whole page. The slice must not be touched while
	// the buffer is lent to an operation.
	Bytes() []byte

	// Slot returns the index of the worker slot owning this buffer.
	Slot() int

	// Lend marks the buffer as held by an in-flight operation.
	// Returns ErrBufferInFlight if it is already lent.
	Lend() error

	// Reclaim hands the buffer back to its worker after completion.
	Reclaim()
}

// BufferPool hands out the per-slot buffers of one session.
type BufferPool interface {
	// Page returns the buffer for slot i.
	Page(i int) Buffer

	// Len returns the number of slots.
	Len() int

	// Close drops all pages; it fails while any page is lent.
	Close() error
}
