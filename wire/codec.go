package wire

import (
	"encoding/binary"

	"github.com/ccnd-go/ccnd/defn"
)

// Sub-element type tags for the minimal concrete codec (see wire.go's
// package doc comment for why this is hand-rolled rather than a
// faithful NDN/CCNx TLV codec).
const (
	tName           byte = 0x01
	tNonce          byte = 0x02
	tScope          byte = 0x03
	tOrderPref      byte = 0x04
	tMinSuffix      byte = 0x05
	tMaxSuffix      byte = 0x06
	tPublisher      byte = 0x07
	tExclude        byte = 0x08
	tResponseFilter byte = 0x09
	tPayload        byte = 0x0a
	tSigHash        byte = 0x0b
)

// BasicCodec is the concrete Codec implementation used when no other
// is configured.
type BasicCodec struct{}

func (BasicCodec) EncodeInterest(i *Interest) ([]byte, error) {
	var out []byte
	out = append(out, tlvEncode(tName, i.Name.Bytes)...)
	if len(i.Nonce) > 0 {
		out = append(out, tlvEncode(tNonce, i.Nonce)...)
	}
	out = append(out, tlvEncode(tScope, []byte{byte(i.Scope)})...)
	out = append(out, tlvEncode(tOrderPref, []byte{byte(i.OrderPref)})...)
	if i.MinSuffix != 0 {
		out = append(out, tlvEncode(tMinSuffix, encodeUint16(uint16(i.MinSuffix)))...)
	}
	if i.MaxSuffix != 0 {
		out = append(out, tlvEncode(tMaxSuffix, encodeUint16(uint16(i.MaxSuffix)))...)
	}
	if len(i.Publisher) > 0 {
		out = append(out, tlvEncode(tPublisher, i.Publisher)...)
	}
	for _, ex := range i.Exclude {
		out = append(out, tlvEncode(tExclude, ex)...)
	}
	if i.ResponseFilter.Present() {
		out = append(out, tlvEncode(tResponseFilter, i.ResponseFilter.bits)...)
	}
	if len(out) > defn.MaxPacketSize {
		return nil, defn.ErrSizeViolation
	}
	return out, nil
}

func (BasicCodec) DecodeInterest(body []byte) (*Interest, error) {
	fields, err := tlvDecodeAll(body)
	if err != nil {
		return nil, err
	}
	nameBytes, ok := first(fields, tName)
	if !ok {
		return nil, defn.ErrMalformed
	}
	name, err := defn.ParseName(nameBytes)
	if err != nil {
		return nil, err
	}
	if name.NComps() > defn.MaxNameComponents {
		return nil, defn.ErrSizeViolation
	}

	i := &Interest{Name: name, Scope: 2, MaxSuffix: -1}
	if v, ok := first(fields, tNonce); ok {
		i.Nonce = v
	}
	if v, ok := first(fields, tScope); ok && len(v) == 1 {
		i.Scope = int(v[0])
	}
	if v, ok := first(fields, tOrderPref); ok && len(v) == 1 {
		i.OrderPref = int(v[0])
	}
	if v, ok := first(fields, tMinSuffix); ok {
		i.MinSuffix = int(decodeUint16(v))
	}
	if v, ok := first(fields, tMaxSuffix); ok {
		i.MaxSuffix = int(decodeUint16(v))
	}
	if v, ok := first(fields, tPublisher); ok {
		i.Publisher = v
	}
	for _, ex := range fields[tExclude] {
		i.Exclude = append(i.Exclude, ex)
	}
	if v, ok := first(fields, tResponseFilter); ok {
		i.ResponseFilter = Bloom{bits: v, k: 3}
	}
	return i, nil
}

func (BasicCodec) EncodeContentObject(c *ContentObject) ([]byte, error) {
	var out []byte
	out = append(out, tlvEncode(tName, c.Name.Bytes)...)
	out = append(out, tlvEncode(tPayload, c.Payload)...)
	out = append(out, tlvEncode(tSigHash, c.SigHash[:])...)
	if len(c.Publisher) > 0 {
		out = append(out, tlvEncode(tPublisher, c.Publisher)...)
	}
	if len(out) > defn.MaxPacketSize {
		return nil, defn.ErrSizeViolation
	}
	return out, nil
}

func (BasicCodec) DecodeContentObject(body []byte) (*ContentObject, error) {
	fields, err := tlvDecodeAll(body)
	if err != nil {
		return nil, err
	}
	nameBytes, ok := first(fields, tName)
	if !ok {
		return nil, defn.ErrMalformed
	}
	name, err := defn.ParseName(nameBytes)
	if err != nil {
		return nil, err
	}
	c := &ContentObject{Name: name}
	if v, ok := first(fields, tPayload); ok {
		c.Payload = v
	}
	if v, ok := first(fields, tSigHash); ok && len(v) == 32 {
		copy(c.SigHash[:], v)
	}
	if v, ok := first(fields, tPublisher); ok {
		c.Publisher = v
	}
	return c, nil
}

// SpliceNonce rewrites (or inserts) the nonce sub-element in an
// already-encoded Interest, per spec.md §4.4: "the modified bytes,
// not the original, are what propagates."
func (BasicCodec) SpliceNonce(encoded []byte, nonce []byte) ([]byte, error) {
	var out []byte
	spliced := false
	pos := 0
	for pos < len(encoded) {
		if pos+tlvHeaderLen > len(encoded) {
			return nil, defn.ErrMalformed
		}
		typ := encoded[pos]
		length := int(encoded[pos+1])<<8 | int(encoded[pos+2])
		end := pos + tlvHeaderLen + length
		if end > len(encoded) {
			return nil, defn.ErrMalformed
		}
		if typ == tNonce {
			out = append(out, tlvEncode(tNonce, nonce)...)
			spliced = true
		} else {
			out = append(out, encoded[pos:end]...)
		}
		pos = end
	}
	if !spliced {
		out = append(out, tlvEncode(tNonce, nonce)...)
	}
	return out, nil
}

func encodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func decodeUint16(b []byte) uint16 {
	if len(b) != 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}
