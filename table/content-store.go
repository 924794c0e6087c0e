// Package table implements the Content Store, Interest Prefix Table,
// and Propagating Interest Table (spec.md §4.2-§4.4).
package table

import (
	"bytes"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/ccnd-go/ccnd/defn"
	"github.com/ccnd-go/ccnd/sched"
)

// ContentEntry is a stored ContentObject, per spec.md §3 "Content
// entry". Name.Bytes is the spec's "key"; Tail holds the complete
// originally-encoded ContentObject body (key bytes included), so it
// can be resent byte-for-byte, and so duplicate/collision detection
// on insert is a single byte comparison.
type ContentEntry struct {
	skipNode

	Accession uint64
	Name      defn.Name
	Tail      []byte
	SigHash   [32]byte

	// Faces is the face-send set; Faces[:NFaceDone] have already been
	// sent this arrival, Faces[NFaceDone:NFaceOld] were done as of
	// the previous cleaning pass, and Faces[NFaceOld:] are newly
	// added and still pending (spec.md §3 invariant
	// "nface_done <= nface_old <= len(faces)").
	Faces     []uint64
	NFaceDone int
	NFaceOld  int

	Sender   *sched.Task
	SlowSend bool

	hashNext *ContentEntry // collision chain within the exact-match hashtable
}

// ContentStore is the daemon's content store: an accession-indexed
// dense array, a name-ordered skiplist, and an xxhash-keyed hashtable
// for exact-key duplicate/collision detection (spec.md §4.2).
type ContentStore struct {
	skip *skiplist

	byHash map[uint64]*ContentEntry

	byAccession   []*ContentEntry
	accessionBase uint64
	nextAccession uint64
}

// NewContentStore constructs an empty store. seed reseeds the
// skiplist's depth PRNG (spec.md §9: "re-seed once at startup from a
// system random source if available").
func NewContentStore(seed int64) *ContentStore {
	return &ContentStore{
		skip:          newSkiplist(seed),
		byHash:        make(map[uint64]*ContentEntry),
		nextAccession: 1,
	}
}

func keyHash(key []byte) uint64 { return xxhash.Sum64(key) }

func (cs *ContentStore) findExact(key []byte) *ContentEntry {
	for e := cs.byHash[keyHash(key)]; e != nil; e = e.hashNext {
		if bytes.Equal(e.Name.Bytes, key) {
			return e
		}
	}
	return nil
}

// Insert stores a new ContentObject, or folds a duplicate arrival
// into the existing entry, per spec.md §4.2 "Insertion":
//
//   - No entry with this key: create one.
//   - Same key, same tail (a duplicate arrival): keep the existing
//     entry and add arrivalFace to its face-send set *past* the done
//     partition, "so a node that already had the content is reminded
//     to be done for that face."
//   - Same key, different tail (a name collision): both the existing
//     and incoming entries are discarded; returns defn.ErrNameCollision.
func (cs *ContentStore) Insert(name defn.Name, tail []byte, sigHash [32]byte, arrivalFace uint64) (*ContentEntry, bool, error) {
	if existing := cs.findExact(name.Bytes); existing != nil {
		if bytes.Equal(existing.Tail, tail) {
			cs.remindFace(existing, arrivalFace)
			return existing, false, nil
		}
		cs.remove(existing)
		return nil, false, defn.ErrNameCollision
	}

	e := &ContentEntry{
		Accession: cs.nextAccession,
		Name:      name,
		Tail:      append([]byte(nil), tail...),
		SigHash:   sigHash,
	}
	cs.nextAccession++

	update := cs.skip.findBefore(name)
	cs.skip.insert(e, update)

	h := keyHash(name.Bytes)
	e.hashNext = cs.byHash[h]
	cs.byHash[h] = e

	cs.storeAccession(e)
	return e, true, nil
}

// remindFace appends faceID to the face-send set past the done
// partition (i.e. it is "new" work, not yet sent this pass).
func (cs *ContentStore) remindFace(e *ContentEntry, faceID uint64) {
	for _, id := range e.Faces {
		if id == faceID {
			return
		}
	}
	e.Faces = append(e.Faces, faceID)
}

// AddRecipient records faceID as a hit recipient before the done
// partition moves past it, i.e. the face still needs the content sent
// (spec.md §4.3 step 4 "record the hit in the content's face-send set
// before the done partition").
func (e *ContentEntry) AddRecipient(faceID uint64) {
	for _, id := range e.Faces {
		if id == faceID {
			return
		}
	}
	e.Faces = append(e.Faces, faceID)
}

// remove deletes e from every index. Used only for the name-collision
// case above; there is otherwise no content eviction (spec.md §9 open
// question b).
func (cs *ContentStore) remove(e *ContentEntry) {
	h := keyHash(e.Name.Bytes)
	if cs.byHash[h] == e {
		cs.byHash[h] = e.hashNext
	} else {
		for cur := cs.byHash[h]; cur != nil; cur = cur.hashNext {
			if cur.hashNext == e {
				cur.hashNext = e.hashNext
				break
			}
		}
	}

	update := cs.skip.findBefore(e.Name)
	for lvl := 0; lvl < len(e.next); lvl++ {
		pred := update[lvl]
		if pred == nil {
			pred = &cs.skip.head
		}
		if pred.next[lvl] == e {
			pred.next[lvl] = e.next[lvl]
		}
	}

	if int(e.Accession-cs.accessionBase) < len(cs.byAccession) {
		cs.byAccession[e.Accession-cs.accessionBase] = nil
	}
}

func (cs *ContentStore) storeAccession(e *ContentEntry) {
	if len(cs.byAccession) == 0 {
		cs.accessionBase = e.Accession
	}
	idx := int(e.Accession - cs.accessionBase)
	if idx >= len(cs.byAccession) {
		grown := make([]*ContentEntry, idx+idx/2+20)
		copy(grown, cs.byAccession)
		cs.byAccession = grown
	}
	cs.byAccession[idx] = e
}

// LookupByAccession returns the entry for acc, or nil if acc falls
// outside the current window or the slot's occupant doesn't match
// (spec.md §4.2 "Lookup by accession returns null if outside the
// window or if the slot's stored accession differs").
func (cs *ContentStore) LookupByAccession(acc uint64) *ContentEntry {
	if acc < cs.accessionBase {
		return nil
	}
	idx := int(acc - cs.accessionBase)
	if idx >= len(cs.byAccession) {
		return nil
	}
	e := cs.byAccession[idx]
	if e == nil || e.Accession != acc {
		return nil
	}
	return e
}

// FindBefore exposes the skiplist's find_before for the matching
// engine's traversal start (spec.md §4.3 step 2).
func (cs *ContentStore) FindBefore(name defn.Name) *ContentEntry {
	update := cs.skip.findBefore(name)
	return successor(update)
}

// Next returns the level-0 skiplist successor of e (spec.md §4.2
// "Enumeration in name order").
func (cs *ContentStore) Next(e *ContentEntry) *ContentEntry {
	return cs.skip.next(e)
}

// RangeAccession calls fn for every live content entry, in accession
// order, skipping removed slots. Used by the periodic cleaning pass
// (spec.md §4.7).
func (cs *ContentStore) RangeAccession(fn func(e *ContentEntry)) {
	for _, e := range cs.byAccession {
		if e != nil {
			fn(e)
		}
	}
}

// Len returns the number of content entries currently stored.
func (cs *ContentStore) Len() int {
	n := 0
	for _, e := range cs.byAccession {
		if e != nil {
			n++
		}
	}
	return n
}

// CompactFaces is the periodic cleaning pass over one entry (spec.md
// §4.7): drop face ids no longer live, preserve the done-partition
// count, and roll NFaceOld forward so only newly-added faces count as
// unsent to link-framed peers on the next pass.
func (e *ContentEntry) CompactFaces(isLive func(uint64) bool) {
	kept := e.Faces[:0]
	doneKept := 0
	for i, id := range e.Faces {
		if !isLive(id) {
			if i < e.NFaceDone {
				// a done face being dropped shifts the partition down
			}
			continue
		}
		if i < e.NFaceDone {
			doneKept++
		}
		kept = append(kept, id)
	}
	e.Faces = kept
	e.NFaceDone = doneKept
	e.NFaceOld = doneKept
}

// StaleTime is unused by the forwarding path (spec.md carries no
// cache-freshness model) but kept as a hook for a future FreshnessPeriod
// feature; it always reports the zero time.
func (e *ContentEntry) StaleTime() time.Time { return time.Time{} }
