package defn

import "bytes"

// Component type tags. The wire codec (package wire) is the external
// collaborator that actually produces these bytes; Name only needs to
// recognize the explicit-digest tag to implement spec.md §4.3's
// content-digest prefix allowance.
const (
	ComponentGeneric        byte = 0x00
	ComponentExplicitDigest byte = 0x01
)

// explicitDigestComponentLen is the on-the-wire length of an explicit
// content-digest component: 1 type byte + 2 big-endian length bytes +
// 32 digest bytes + 1 closer byte, per spec.md §4.3.
const explicitDigestComponentLen = 1 + 2 + 32 + 1

// Name is a hierarchical name: an ordered sequence of opaque byte
// components. It is stored as the complete encoded byte sequence plus
// a parallel array of component-boundary offsets, exactly as spec.md
// §3 describes ("component boundaries are resolved through a parallel
// array of byte offsets recorded when the name was parsed").
//
// Each component is encoded as [1 type byte][2-byte big-endian
// length][value][1 closer byte], a fixed, self-delimiting shape that
// ParseName can walk without any other context.
type Name struct {
	Bytes   []byte
	Offsets []int // len(Offsets) == NComps()+1
}

// ParseName decodes a Name from its encoded component sequence.
func ParseName(raw []byte) (Name, error) {
	offsets := []int{0}
	pos := 0
	for pos < len(raw) {
		if pos+3 > len(raw) {
			return Name{}, ErrMalformed
		}
		valLen := int(raw[pos+1])<<8 | int(raw[pos+2])
		end := pos + 3 + valLen + 1
		if end > len(raw) || valLen < 0 {
			return Name{}, ErrMalformed
		}
		pos = end
		offsets = append(offsets, pos)
	}
	return Name{Bytes: raw, Offsets: offsets}, nil
}

// NComps returns the number of components in the name.
func (n Name) NComps() int {
	if len(n.Offsets) == 0 {
		return 0
	}
	return len(n.Offsets) - 1
}

// Component returns the full encoded bytes (tag+length+value+closer)
// of component i.
func (n Name) Component(i int) []byte {
	return n.Bytes[n.Offsets[i]:n.Offsets[i+1]]
}

// ComponentValue returns the value bytes of component i, stripped of
// framing.
func (n Name) ComponentValue(i int) []byte {
	c := n.Component(i)
	if len(c) < 4 {
		return nil
	}
	return c[3 : len(c)-1]
}

// PrefixBytes returns the encoded byte sequence of the first k
// components; this is the raw key used by the Interest Prefix Table
// and as the Content Store's skiplist/hashtable key (spec.md §3).
func (n Name) PrefixBytes(k int) []byte {
	return n.Bytes[:n.Offsets[k]]
}

// Compare implements the lexicographic order over the encoded form of
// the complete component sequence that spec.md §3 requires for name
// comparison (skiplist ordering, prefix-table keys).
func (n Name) Compare(o Name) int {
	return bytes.Compare(n.Bytes, o.Bytes)
}

// Equal reports whether two names have identical encoded bytes.
func (n Name) Equal(o Name) bool {
	return bytes.Equal(n.Bytes, o.Bytes)
}

// IsExplicitDigest reports whether component i is shaped like an
// explicit content-digest component: the right length, and tagged as
// such. Used by spec.md §4.3's prefix-match digest allowance and by
// spec.md §8 scenario 6.
func (n Name) IsExplicitDigest(i int) bool {
	c := n.Component(i)
	return len(c) == explicitDigestComponentLen && c[0] == ComponentExplicitDigest
}

// SegmentsEqual reports whether the first k encoded component segments
// of n and o are byte-identical, the core test in spec.md §4.3's
// is_prefix_match ("the first prefix_comp_count byte segments of both
// names must be byte-identical").
func SegmentsEqual(n, o Name, k int) bool {
	if n.NComps() < k || o.NComps() < k {
		return false
	}
	return bytes.Equal(n.PrefixBytes(k), o.PrefixBytes(k))
}
