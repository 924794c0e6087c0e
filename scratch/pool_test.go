package scratch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// A borrowed Buffer always starts at zero length regardless of what
// the previous holder left in it, and returning it to the pool makes
// it available for reuse rather than discarded.
func TestBufferResetOnGet(t *testing.T) {
	p := NewPool()

	b := p.GetBuffer()
	b.B = append(b.B, 1, 2, 3)
	p.PutBuffer(b)

	b2 := p.GetBuffer()
	assert.Equal(t, 0, len(b2.B))
}

// GetIndices always returns a zero-length vector, even across Put/Get
// cycles that left stale entries in the backing array.
func TestIndicesResetOnGet(t *testing.T) {
	p := NewPool()

	idx := p.GetIndices()
	idx.I = append(idx.I, 1, 2, 3)
	p.PutIndices(idx)

	idx2 := p.GetIndices()
	assert.Equal(t, 0, len(idx2.I))
}

// Putting a nil Buffer/Indices back is a no-op, not a panic.
func TestPoolPutNil(t *testing.T) {
	p := NewPool()
	assert.NotPanics(t, func() {
		p.PutBuffer(nil)
		p.PutIndices(nil)
	})
}
