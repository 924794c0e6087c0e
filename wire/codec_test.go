package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccnd-go/ccnd/defn"
)

func encodeTestName(t *testing.T, comps ...string) defn.Name {
	t.Helper()
	var raw []byte
	for _, c := range comps {
		raw = append(raw, 0x00, byte(len(c)>>8), byte(len(c)))
		raw = append(raw, []byte(c)...)
		raw = append(raw, 0x00)
	}
	n, err := defn.ParseName(raw)
	require.NoError(t, err)
	return n
}

// Encoding then decoding an Interest reproduces every field, including
// optional ones like publisher and exclude.
func TestEncodeDecodeInterestRoundTrip(t *testing.T) {
	var c BasicCodec
	i := &Interest{
		Name:      encodeTestName(t, "a", "b"),
		Nonce:     []byte{1, 2, 3, 4},
		Scope:     1,
		OrderPref: OrderRightmost,
		MinSuffix: 1,
		MaxSuffix: 3,
		Publisher: []byte("pub"),
		Exclude:   [][]byte{[]byte("x"), []byte("y")},
	}

	enc, err := c.EncodeInterest(i)
	require.NoError(t, err)

	got, err := c.DecodeInterest(enc)
	require.NoError(t, err)
	assert.Equal(t, i.Name.Bytes, got.Name.Bytes)
	assert.Equal(t, i.Nonce, got.Nonce)
	assert.Equal(t, i.Scope, got.Scope)
	assert.Equal(t, i.OrderPref, got.OrderPref)
	assert.Equal(t, i.MinSuffix, got.MinSuffix)
	assert.Equal(t, i.MaxSuffix, got.MaxSuffix)
	assert.Equal(t, i.Publisher, got.Publisher)
	assert.ElementsMatch(t, i.Exclude, got.Exclude)
}

// A decoded Interest with no scope/min/max fields present falls back
// to the documented defaults: scope 2 (network), maxSuffix -1
// (unbounded).
func TestDecodeInterestDefaults(t *testing.T) {
	var c BasicCodec
	i := &Interest{Name: encodeTestName(t, "a")}
	enc, err := c.EncodeInterest(i)
	require.NoError(t, err)

	// EncodeInterest always writes a scope field, so decode only the
	// leading name sub-element to leave scope/min/max absent.
	got, err := c.DecodeInterest(enc[:tlvHeaderLen+len(i.Name.Bytes)])
	require.NoError(t, err)
	assert.Equal(t, 2, got.Scope)
	assert.Equal(t, -1, got.MaxSuffix)
}

// DecodeInterest rejects a body with no name sub-element.
func TestDecodeInterestMissingName(t *testing.T) {
	var c BasicCodec
	_, err := c.DecodeInterest([]byte{tNonce, 0x00, 0x01, 0xAA})
	assert.ErrorIs(t, err, defn.ErrMalformed)
}

// EncodeContentObject/DecodeContentObject round-trip the name,
// payload, signature hash, and publisher.
func TestEncodeDecodeContentObjectRoundTrip(t *testing.T) {
	var c BasicCodec
	obj := &ContentObject{
		Name:      encodeTestName(t, "a", "b", "1"),
		Payload:   []byte("hello world"),
		SigHash:   [32]byte{9, 9, 9},
		Publisher: []byte("pub"),
	}

	enc, err := c.EncodeContentObject(obj)
	require.NoError(t, err)

	got, err := c.DecodeContentObject(enc)
	require.NoError(t, err)
	assert.Equal(t, obj.Name.Bytes, got.Name.Bytes)
	assert.Equal(t, obj.Payload, got.Payload)
	assert.Equal(t, obj.SigHash, got.SigHash)
	assert.Equal(t, obj.Publisher, got.Publisher)
}

// SpliceNonce rewrites an existing nonce sub-element in place without
// disturbing the rest of the encoded Interest.
func TestSpliceNonceReplacesExisting(t *testing.T) {
	var c BasicCodec
	i := &Interest{Name: encodeTestName(t, "a"), Nonce: []byte{1, 1, 1, 1}}
	enc, err := c.EncodeInterest(i)
	require.NoError(t, err)

	spliced, err := c.SpliceNonce(enc, []byte{9, 9, 9, 9})
	require.NoError(t, err)

	got, err := c.DecodeInterest(spliced)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got.Nonce)
	assert.Equal(t, i.Name.Bytes, got.Name.Bytes)
}

// SpliceNonce appends a nonce sub-element when the original encoding
// had none.
func TestSpliceNonceInsertsWhenAbsent(t *testing.T) {
	var c BasicCodec
	i := &Interest{Name: encodeTestName(t, "a")}
	enc, err := c.EncodeInterest(i)
	require.NoError(t, err)

	spliced, err := c.SpliceNonce(enc, []byte{7, 7, 7, 7})
	require.NoError(t, err)

	got, err := c.DecodeInterest(spliced)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7, 7}, got.Nonce)
}

// An Interest whose encoded size would exceed MaxPacketSize is
// rejected at encode time.
func TestEncodeInterestSizeViolation(t *testing.T) {
	var c BasicCodec
	i := &Interest{
		Name:    encodeTestName(t, "a"),
		Publisher: make([]byte, defn.MaxPacketSize+1),
	}
	_, err := c.EncodeInterest(i)
	assert.ErrorIs(t, err, defn.ErrSizeViolation)
}
