package face

import "github.com/ccnd-go/ccnd/defn"

// Outer element type tags recognized by the framer (spec.md §4.8).
// Interest and ContentObject bodies themselves are opaque to framing;
// only the wire package's Codec interprets them further.
const (
	TypeInterest       byte = 0x01
	TypeContentObject  byte = 0x02
	TypeProtocolDataUnit byte = 0x7F // "CCNProtocolDataUnit" outer envelope
)

const frameHeaderLen = 4 // 1 type byte + 3 big-endian length bytes

// decodeOne extracts one self-delimiting top-level element from the
// front of buf. ok is false if buf does not yet hold a complete
// element (the caller should wait for more bytes); err is non-nil on
// a malformed length (spec.md §7 "Parse error").
func decodeOne(buf []byte) (typ byte, body []byte, consumed int, ok bool, err error) {
	if len(buf) < frameHeaderLen {
		return 0, nil, 0, false, nil
	}
	typ = buf[0]
	length := int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
	if length < 0 || length > defn.MaxPacketSize {
		return 0, nil, 0, false, defn.ErrSizeViolation
	}
	total := frameHeaderLen + length
	if total > len(buf) {
		return 0, nil, 0, false, nil
	}
	return typ, buf[frameHeaderLen:total], total, true, nil
}

// EncodeFrame wraps body in the framer's 4-byte header, used by
// wire.Codec implementations and by SendFrame's envelope wrapping.
func EncodeFrame(typ byte, body []byte) []byte {
	if len(body) > defn.MaxPacketSize {
		panic("frame body exceeds MaxPacketSize")
	}
	out := make([]byte, frameHeaderLen+len(body))
	out[0] = typ
	out[1] = byte(len(body) >> 16)
	out[2] = byte(len(body) >> 8)
	out[3] = byte(len(body))
	copy(out[frameHeaderLen:], body)
	return out
}

// StreamDecoder incrementally splits a byte stream into self-
// delimiting top-level messages (spec.md §4.8 "A sliding decoder over
// face.inbuf"), unwrapping at most one level of outer PDU envelope.
type StreamDecoder struct {
	buf []byte
}

// Message is one fully-decoded Interest or ContentObject frame: its
// type byte and its body.
type Message struct {
	Type byte
	Body []byte
}

// Feed appends newly-received bytes to the decoder's pending buffer.
func (d *StreamDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next extracts every complete message currently available, unwrapping
// one level of CCNProtocolDataUnit envelope. linkFramed reports
// whether an envelope was seen (spec.md §4.8 "set the LINK flag").
// err is non-nil only for a genuine protocol error (nested envelope or
// malformed length); in that case messages decoded so far are still
// returned, so the caller can dispatch them before tearing the face
// down (spec.md §7: stream protocol errors terminate the face after
// processing what was already extracted).
func (d *StreamDecoder) Next() (messages []Message, linkFramed bool, err error) {
	for {
		typ, body, consumed, ok, derr := decodeOne(d.buf)
		if derr != nil {
			return messages, linkFramed, derr
		}
		if !ok {
			return messages, linkFramed, nil
		}
		d.buf = d.buf[consumed:]

		if typ == TypeProtocolDataUnit {
			linkFramed = true
			inner, innerErr := unwrapEnvelope(body)
			if innerErr != nil {
				return messages, linkFramed, innerErr
			}
			messages = append(messages, inner...)
			continue
		}
		messages = append(messages, Message{Type: typ, Body: body})
	}
}

// DecodeDatagram decodes a single complete datagram payload, which
// may itself be a single envelope-wrapped message (spec.md §4.8
// applies identically to datagram faces; malformed datagrams are
// discarded rather than tearing down the face, per spec.md §7).
func DecodeDatagram(payload []byte) (messages []Message, linkFramed bool, err error) {
	typ, body, consumed, ok, derr := decodeOne(payload)
	if derr != nil {
		return nil, false, derr
	}
	if !ok || consumed != len(payload) {
		return nil, false, defn.ErrMalformed
	}
	if typ == TypeProtocolDataUnit {
		inner, innerErr := unwrapEnvelope(body)
		return inner, true, innerErr
	}
	return []Message{{Type: typ, Body: body}}, false, nil
}

// unwrapEnvelope drains every top-level element inside an envelope
// body. Nesting is refused (spec.md §4.8 "the framer refuses nested
// PDU envelopes to bound recursion").
func unwrapEnvelope(body []byte) ([]Message, error) {
	var out []Message
	for len(body) > 0 {
		typ, inner, consumed, ok, err := decodeOne(body)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, defn.ErrMalformed
		}
		if typ == TypeProtocolDataUnit {
			return out, defn.ErrNestedEnvelope
		}
		out = append(out, Message{Type: typ, Body: inner})
		body = body[consumed:]
	}
	return out, nil
}
