package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// A publisher filter rejects a ContentObject whose publisher doesn't
// match, and is a no-op when absent.
func TestQualifierMatchPublisher(t *testing.T) {
	name := encodeTestName(t, "a")
	obj := &ContentObject{Name: name, Publisher: []byte("pub-a")}

	noFilter := &Interest{Name: name}
	assert.True(t, QualifierMatch(noFilter, obj))

	matching := &Interest{Name: name, Publisher: []byte("pub-a"), MaxSuffix: -1}
	assert.True(t, QualifierMatch(matching, obj))

	mismatching := &Interest{Name: name, Publisher: []byte("pub-b"), MaxSuffix: -1}
	assert.False(t, QualifierMatch(mismatching, obj))
}

// MinSuffix/MaxSuffix bound the number of components a matching
// ContentObject's name may add beyond the Interest's name.
func TestQualifierMatchSuffixBounds(t *testing.T) {
	iName := encodeTestName(t, "a")
	cName := encodeTestName(t, "a", "b", "c") // suffix length 2

	tooShort := &Interest{Name: iName, MinSuffix: 3, MaxSuffix: -1}
	assert.False(t, QualifierMatch(tooShort, &ContentObject{Name: cName}))

	tooLong := &Interest{Name: iName, MinSuffix: 0, MaxSuffix: 1}
	assert.False(t, QualifierMatch(tooLong, &ContentObject{Name: cName}))

	justRight := &Interest{Name: iName, MinSuffix: 1, MaxSuffix: 2}
	assert.True(t, QualifierMatch(justRight, &ContentObject{Name: cName}))
}

// Exclude rejects a ContentObject whose next component past the
// Interest's name matches any excluded value.
func TestQualifierMatchExclude(t *testing.T) {
	iName := encodeTestName(t, "a")
	excluded := &Interest{Name: iName, MaxSuffix: -1, Exclude: [][]byte{[]byte("b"), []byte("z")}}

	assert.False(t, QualifierMatch(excluded, &ContentObject{Name: encodeTestName(t, "a", "b")}))
	assert.True(t, QualifierMatch(excluded, &ContentObject{Name: encodeTestName(t, "a", "c")}))
}

// An empty Bloom filter always reports "not present", and a
// populated one round-trips additions.
func TestBloomFilter(t *testing.T) {
	var empty Bloom
	assert.False(t, empty.Present())
	assert.False(t, empty.Contains([32]byte{1}))

	b := NewBloom(64, 3)
	assert.True(t, b.Present())

	hash := [32]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	assert.False(t, b.Contains(hash))
	b.Add(hash)
	assert.True(t, b.Contains(hash))
}
