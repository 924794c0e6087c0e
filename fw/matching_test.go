package fw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccnd-go/ccnd/defn"
	"github.com/ccnd-go/ccnd/table"
)

func mustTestName(t *testing.T, comps ...string) defn.Name {
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

// A content name must have strictly more components than the
// Interest's prefix to be a match: an exact-length name never counts
// unless the prefix's trailing component is an explicit digest.
func TestIsPrefixMatchRequiresStrictExtension(t *testing.T) {
	prefix := mustTestName(t, "a", "b")
	exact := &table.ContentEntry{Name: mustTestName(t, "a", "b")}
	extended := &table.ContentEntry{Name: mustTestName(t, "a", "b", "c")}
	other := &table.ContentEntry{Name: mustTestName(t, "a", "x", "c")}

	assert.False(t, isPrefixMatch(exact, prefix, prefix.NComps()))
	assert.True(t, isPrefixMatch(extended, prefix, prefix.NComps()))
	assert.False(t, isPrefixMatch(other, prefix, prefix.NComps()))
}

// When the Interest's last component is an explicit digest, the match
// requires an exact (not strict) length against the digest-stripped
// prefix, and the stripped prefix's segments must equal the content's
// full name (spec.md §8 scenario 6).
func TestIsPrefixMatchExplicitDigest(t *testing.T) {
	digest := make([]byte, 32)
	base := mustTestName(t, "a", "b")
	withDigest := appendDigestComponent(t, base, digest)

	matching := &table.ContentEntry{Name: base}
	assert.True(t, isPrefixMatch(matching, withDigest, withDigest.NComps()))

	longer := &table.ContentEntry{Name: mustTestName(t, "a", "b", "c")}
	assert.False(t, isPrefixMatch(longer, withDigest, withDigest.NComps()))
}

func appendDigestComponent(t *testing.T, n defn.Name, digest []byte) defn.Name {
	t.Helper()
	raw := append([]byte(nil), n.Bytes...)
	raw = append(raw, 0x01, byte(len(digest)>>8), byte(len(digest)))
	raw = append(raw, digest...)
	raw = append(raw, 0x00)
	out, err := defn.ParseName(raw)
	require.NoError(t, err)
	return out
}
