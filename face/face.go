package face

import "github.com/ccnd-go/ccnd/defn"

// Face is a connection endpoint: a stable id, its Transport, and the
// per-face state the matching engine consults (spec.md §3 "Face").
type Face struct {
	id        uint64
	Transport Transport
}

// ID returns the face's stable, generation-protected identifier.
func (f *Face) ID() uint64 { return f.id }

// EnrollTransport wraps Enroll for the common case of registering an
// already-constructed Transport: the freshly minted id is stamped
// onto the transport (so its String() and CachedAccession bookkeeping
// can self-identify) before the Face is returned. Callers outside
// package face cannot set a Transport's id directly since setFaceID
// is unexported, so this is the entry point fw.Daemon uses whenever a
// listener accepts a new connection or datagram peer (spec.md §3 Face
// "Lifecycle").
func (t *Table) EnrollTransport(tr Transport) (*Face, error) {
	return t.Enroll(func(id uint64) *Face {
		tr.setFaceID(id)
		return &Face{id: id, Transport: tr}
	})
}

// Table is the Face Table (spec.md §4.1): a registry of connection
// endpoints addressed by a slot|generation id, so that ids minted
// before a slot was reused can never resolve to the new occupant
// (spec.md §3 "Face id encoding", §9 "Stable face ids across reuse").
type Table struct {
	slots []slot
	free  []uint32 // free slot indices, LIFO
	max   uint32
}

// slot carries its own generation counter, bumped every time the slot
// is released, so two faces that occupy the same slot at different
// times never share an id regardless of whether releasing them ever
// triggers a backing-array grow (spec.md §3 "Face id encoding").
type slot struct {
	gen  uint32
	face *Face
}

// genShift places the generation counter in the high bits of the
// 64-bit face id, leaving the low 32 bits for the slot index, per
// spec.md §3 "face_id = slot | generation".
const genShift = 32

// NewTable constructs a Face Table with the given hard cap on live
// faces (MAXFACES in spec.md §4.1).
func NewTable(maxFaces int) *Table {
	return &Table{max: uint32(maxFaces)}
}

// Enroll finds a free slot, assigns it a fresh id, and registers face
// there, growing the backing array by ≈1.5× when full (up to max) and
// failing with defn.ErrFaceTableFull at the hard cap (spec.md §4.1).
func (t *Table) Enroll(make func(id uint64) *Face) (*Face, error) {
	if len(t.free) == 0 {
		if err := t.grow(); err != nil {
			return nil, err
		}
	}

	idx := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]

	id := uint64(idx) | (uint64(t.slots[idx].gen) << genShift)
	f := make(id)
	t.slots[idx].face = f
	return f, nil
}

func (t *Table) grow() error {
	oldLen := uint32(len(t.slots))
	if oldLen >= t.max {
		return defn.ErrFaceTableFull
	}

	newLen := oldLen + oldLen/2
	if newLen == 0 {
		newLen = 16
	}
	if newLen > t.max {
		newLen = t.max
	}

	grown := make([]slot, newLen)
	copy(grown, t.slots)
	t.slots = grown

	for i := newLen; i > oldLen; i-- {
		t.free = append(t.free, i-1)
	}
	return nil
}

// Lookup returns the face for id, but only if the slot it names still
// holds that exact id (spec.md §4.1 Lookup, §8 "For every live face
// id, lookup(id) returns a face with that id").
func (t *Table) Lookup(id uint64) (*Face, bool) {
	idx := uint32(id)
	if int(idx) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[idx]
	if s.face == nil || s.gen != uint32(id>>genShift) {
		return nil, false
	}
	return s.face, true
}

// Release clears the slot for id, making it reusable, and bumps the
// slot's generation so that id (and any other id sharing its previous
// generation) can never resolve to whatever face next occupies this
// slot (spec.md §3 "Face id encoding", §9 "Stable face ids across
// reuse"). It does not free any sockaddr memory the face's transport
// may own, because that belongs to the datagram-face lookup table,
// not the Face Table (spec.md §4.1 Release).
func (t *Table) Release(id uint64) {
	idx := uint32(id)
	if int(idx) >= len(t.slots) {
		return
	}
	s := &t.slots[idx]
	if s.face == nil || s.gen != uint32(id>>genShift) {
		return
	}
	s.face = nil
	s.gen++
	t.free = append(t.free, idx)
}

// Range calls fn for every live face, in slot order.
func (t *Table) Range(fn func(*Face)) {
	for i := range t.slots {
		if t.slots[i].face != nil {
			fn(t.slots[i].face)
		}
	}
}

// Len returns the number of live faces.
func (t *Table) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].face != nil {
			n++
		}
	}
	return n
}
