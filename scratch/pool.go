// Package scratch provides reusable byte buffers and index vectors so
// the per-message hot path (framing, matching, encoding) avoids
// allocation churn, per spec.md §4 item 1 and §9 ("Scratch pools").
package scratch

import "sync"

// Buffer is a reusable byte buffer borrowed from Pool. At most one
// caller holds a given Buffer at a time (spec.md §5).
type Buffer struct {
	B []byte
}

// Reset truncates the buffer to length 0 without releasing capacity.
func (b *Buffer) Reset() { b.B = b.B[:0] }

// Pool hands out *Buffer and *Indices values on Get and reclaims them
// on Put, the same single-holder discipline spec.md §9 describes as
// "a RAII-style scoped acquisition that returns to the pool on drop" —
// Go has no destructors, so callers must call Put explicitly (usually
// via defer) instead of relying on scope exit.
type Pool struct {
	buffers sync.Pool
	indices sync.Pool
}

// NewPool constructs an empty scratch pool.
func NewPool() *Pool {
	return &Pool{
		buffers: sync.Pool{New: func() any { return &Buffer{B: make([]byte, 0, 2048)} }},
		indices: sync.Pool{New: func() any { return &Indices{I: make([]uint64, 0, 64)} }},
	}
}

// GetBuffer borrows a zero-length buffer.
func (p *Pool) GetBuffer() *Buffer {
	b := p.buffers.Get().(*Buffer)
	b.Reset()
	return b
}

// PutBuffer returns a buffer to the pool.
func (p *Pool) PutBuffer(b *Buffer) {
	if b != nil {
		p.buffers.Put(b)
	}
}

// Indices is a reusable index vector, used to stage face-id lists:
// propagate's outbound face set and satisfyDemand's snapshot of a
// prefix entry's faces.
type Indices struct {
	I []uint64
}

func (idx *Indices) Reset() { idx.I = idx.I[:0] }

func (p *Pool) GetIndices() *Indices {
	idx := p.indices.Get().(*Indices)
	idx.Reset()
	return idx
}

func (p *Pool) PutIndices(idx *Indices) {
	if idx != nil {
		p.indices.Put(idx)
	}
}
