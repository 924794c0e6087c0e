package defn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeComponent builds one [tag][2-byte length][value][closer]
// component, the shape ParseName expects (see name.go's doc comment).
func encodeComponent(tag byte, val []byte) []byte {
	out := make([]byte, 0, 4+len(val))
	out = append(out, tag)
	out = append(out, byte(len(val)>>8), byte(len(val)))
	out = append(out, val...)
	out = append(out, 0x00)
	return out
}

func encodeName(comps ...[]byte) []byte {
	var out []byte
	for _, c := range comps {
		out = append(out, encodeComponent(ComponentGeneric, c)...)
	}
	return out
}

// A name with N generic components parses into N+1 offsets and
// exposes each component's bare value.
func TestParseNameComponents(t *testing.T) {
	raw := encodeName([]byte("x"), []byte("y"), []byte("1"))
	n, err := ParseName(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, n.NComps())
	assert.Equal(t, []byte("x"), n.ComponentValue(0))
	assert.Equal(t, []byte("y"), n.ComponentValue(1))
	assert.Equal(t, []byte("1"), n.ComponentValue(2))
}

// A truncated component header is a parse error, not a panic.
func TestParseNameMalformed(t *testing.T) {
	_, err := ParseName([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrMalformed)
}

// A length prefix overrunning the buffer is also a parse error.
func TestParseNameLengthOverrun(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x05, 'a', 'b', 0x00}
	_, err := ParseName(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

// An empty name parses to zero components and a single zero offset.
func TestParseNameEmpty(t *testing.T) {
	n, err := ParseName(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n.NComps())
}

// PrefixBytes(k) returns exactly the first k components' encoded bytes,
// so it can be reused as a name in its own right.
func TestPrefixBytes(t *testing.T) {
	raw := encodeName([]byte("x"), []byte("y"), []byte("z"))
	n, err := ParseName(raw)
	require.NoError(t, err)

	prefix := n.PrefixBytes(2)
	pn, err := ParseName(prefix)
	require.NoError(t, err)
	assert.Equal(t, 2, pn.NComps())
	assert.Equal(t, []byte("x"), pn.ComponentValue(0))
	assert.Equal(t, []byte("y"), pn.ComponentValue(1))
}

// Compare is lexicographic over the full encoded byte sequence, so
// shorter names that are a strict prefix of a longer one sort first.
func TestNameCompareOrdering(t *testing.T) {
	a, err := ParseName(encodeName([]byte("x"), []byte("a")))
	require.NoError(t, err)
	b, err := ParseName(encodeName([]byte("x"), []byte("b")))
	require.NoError(t, err)
	c, err := ParseName(encodeName([]byte("x")))
	require.NoError(t, err)

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Negative(t, c.Compare(a)) // "/x" sorts before "/x/a"
	assert.Zero(t, a.Compare(a))
}

// SegmentsEqual compares only the first k encoded segments, ignoring
// anything beyond them, and rejects names shorter than k.
func TestSegmentsEqual(t *testing.T) {
	a, err := ParseName(encodeName([]byte("x"), []byte("y"), []byte("1")))
	require.NoError(t, err)
	b, err := ParseName(encodeName([]byte("x"), []byte("y"), []byte("2")))
	require.NoError(t, err)
	short, err := ParseName(encodeName([]byte("x")))
	require.NoError(t, err)

	assert.True(t, SegmentsEqual(a, b, 2))
	assert.False(t, SegmentsEqual(a, b, 3))
	assert.False(t, SegmentsEqual(a, short, 2))
}

// IsExplicitDigest recognizes a component only when it has both the
// explicit-digest tag and the exact 36-byte wire length spec.md §4.3
// names (1 tag + 2 length + 32 digest + 1 closer).
func TestIsExplicitDigest(t *testing.T) {
	digest := make([]byte, 32)
	raw := append(encodeName([]byte("x")), encodeComponent(ComponentExplicitDigest, digest)...)
	n, err := ParseName(raw)
	require.NoError(t, err)
	require.Equal(t, 2, n.NComps())

	assert.True(t, n.IsExplicitDigest(1))
	assert.False(t, n.IsExplicitDigest(0))
}
