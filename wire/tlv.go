package wire

import "github.com/ccnd-go/ccnd/defn"

// tlvHeaderLen is the header size for this package's sub-element
// encoding: 1 type byte + 2 big-endian length bytes. This is
// independent of, and simpler than, face's top-level frame header,
// since sub-elements never need to exceed 65535 bytes (spec.md §7's
// own limit on whole messages).
const tlvHeaderLen = 3

func tlvEncode(typ byte, val []byte) []byte {
	out := make([]byte, tlvHeaderLen+len(val))
	out[0] = typ
	out[1] = byte(len(val) >> 8)
	out[2] = byte(len(val))
	copy(out[tlvHeaderLen:], val)
	return out
}

func tlvDecodeAll(buf []byte) (map[byte][][]byte, error) {
	out := make(map[byte][][]byte)
	for len(buf) > 0 {
		if len(buf) < tlvHeaderLen {
			return nil, defn.ErrMalformed
		}
		typ := buf[0]
		length := int(buf[1])<<8 | int(buf[2])
		end := tlvHeaderLen + length
		if end > len(buf) {
			return nil, defn.ErrMalformed
		}
		out[typ] = append(out[typ], buf[tlvHeaderLen:end])
		buf = buf[end:]
	}
	return out, nil
}

func first(m map[byte][][]byte, typ byte) ([]byte, bool) {
	vs, ok := m[typ]
	if !ok || len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}
