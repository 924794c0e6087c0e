// Package wire is the external collaborator spec.md §1b names: "the
// wire-format codec that parses/emits Interest and ContentObject
// messages." It is kept deliberately small. A minimal concrete codec
// is supplied (gated behind the same self-delimiting framing the
// face package uses) so the matching engine has something real to
// run against; bit-level layout is explicitly out of spec.md's scope,
// so nothing here should be mistaken for a faithful NDN/CCNx codec.
package wire

import (
	"encoding/binary"

	"github.com/ccnd-go/ccnd/defn"
)

// Selector preference values for child-selector ordering (spec.md
// §4.3). The matching engine's traversal treats OrderRightmost
// specially; every other value scans left to right.
const (
	OrderDefault   = 0
	OrderLeftmost  = 1
	OrderRightmost = 5
)

// Interest is the decoded form of an Interest message.
type Interest struct {
	Name        defn.Name
	Nonce       []byte // synthesized if absent, per spec.md §4.4
	Scope       int    // 0 = process, 1 = host, >=2 = network
	OrderPref   int
	MinSuffix   int
	MaxSuffix   int
	Publisher   []byte
	Exclude     [][]byte // excluded component values
	ResponseFilter Bloom // spec.md §4.3 "response filter"
}

// ContentObject is the decoded form of a ContentObject message.
type ContentObject struct {
	Name       defn.Name
	Payload    []byte
	SigHash    [32]byte // spec.md §4.3 "32-byte signature-hash values"
	Publisher  []byte
}

// Codec parses and emits the wire forms of Interest and
// ContentObject; spec.md places its bit-level layout out of scope.
type Codec interface {
	DecodeInterest(body []byte) (*Interest, error)
	EncodeInterest(i *Interest) ([]byte, error)
	DecodeContentObject(body []byte) (*ContentObject, error)
	EncodeContentObject(c *ContentObject) ([]byte, error)

	// SpliceNonce locates and rewrites the canonical nonce position within an already-encoded Interest, per spec.md
	// §4.4 "Nonce synthesis": "the modified bytes, not the original,
	// are what propagates."
	SpliceNonce(encoded []byte, nonce []byte) ([]byte, error)
}

// Bloom is a minimal Bloom filter over 32-byte signature hashes, used
// by the response filter (spec.md §4.3). A nil/empty Bloom always
// reports "not present."
type Bloom struct {
	bits []byte
	k    int
}

// NewBloom constructs an m-byte, k-hash Bloom filter.
func NewBloom(m int, k int) Bloom {
	return Bloom{bits: make([]byte, m), k: k}
}

func (b *Bloom) Add(sigHash [32]byte) {
	if len(b.bits) == 0 {
		return
	}
	for i := 0; i < b.k; i++ {
		idx := bloomIndex(sigHash, i, len(b.bits)*8)
		b.bits[idx/8] |= 1 << (idx % 8)
	}
}

// Contains reports whether sigHash may have been added. An empty
// filter (len(bits)==0) always reports false: "when no filter is
// present" in spec.md §4.3.
func (b Bloom) Contains(sigHash [32]byte) bool {
	if len(b.bits) == 0 {
		return false
	}
	for i := 0; i < b.k; i++ {
		idx := bloomIndex(sigHash, i, len(b.bits)*8)
		if b.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}
	return true
}

func (b Bloom) Present() bool { return len(b.bits) > 0 }

func bloomIndex(sigHash [32]byte, seed int, nbits int) int {
	h := binary.BigEndian.Uint64(sigHash[:8]) + uint64(seed)*binary.BigEndian.Uint64(sigHash[8:16])
	return int(h % uint64(nbits))
}
