package table

import (
	"time"

	"github.com/ccnd-go/ccnd/sched"
)

// PitEntry is one outstanding Interest propagation record: the prefix
// it was expressed for, its nonce, the single face it arrived on, its
// expiry and timeout task, and its position
// in the per-prefix intrusive list (spec.md §3, §4.4, §9).
type PitEntry struct {
	Prefix   []byte
	Nonce    [8]byte
	FaceID   uint64
	Expiry   time.Time
	Timeout  *sched.Task

	prev, next *PitEntry // intrusive doubly-linked list within prefixHead.entries
}

type prefixHead struct {
	first, last *PitEntry
}

// PropagatingInterestTable tracks Interests this daemon has forwarded
// and not yet seen answered or expire, indexed two ways: by (prefix)
// for "is a duplicate already out" queries via an intrusive
// doubly-linked list per prefix, and by nonce for loop suppression
// (spec.md §4.4).
type PropagatingInterestTable struct {
	byPrefix map[string]*prefixHead
	byNonce  map[[8]byte]*PitEntry
}

// NewPropagatingInterestTable builds an empty table.
func NewPropagatingInterestTable() *PropagatingInterestTable {
	return &PropagatingInterestTable{
		byPrefix: make(map[string]*prefixHead),
		byNonce:  make(map[[8]byte]*PitEntry),
	}
}

// SeenNonce reports whether nonce has already propagated through this
// daemon, per spec.md §4.4's loop-suppression rule: "an Interest whose
// nonce has already been seen is never re-propagated."
func (t *PropagatingInterestTable) SeenNonce(nonce [8]byte) bool {
	_, ok := t.byNonce[nonce]
	return ok
}

// Insert records a freshly propagated Interest, appending it to the
// tail of its prefix's intrusive list (spec.md §9: "newest entries
// append at the tail so a prefix scan visits them in arrival order").
func (t *PropagatingInterestTable) Insert(prefix []byte, nonce [8]byte, faceID uint64, expiry time.Time) *PitEntry {
	e := &PitEntry{
		Prefix: append([]byte(nil), prefix...),
		Nonce:  nonce,
		FaceID: faceID,
		Expiry: expiry,
	}
	t.byNonce[nonce] = e

	key := string(prefix)
	h, ok := t.byPrefix[key]
	if !ok {
		h = &prefixHead{}
		t.byPrefix[key] = h
	}
	e.prev = h.last
	if h.last != nil {
		h.last.next = e
	} else {
		h.first = e
	}
	h.last = e
	return e
}

// Remove unlinks e from both indices. Safe to call more than once.
func (t *PropagatingInterestTable) Remove(e *PitEntry) {
	if _, ok := t.byNonce[e.Nonce]; !ok {
		return
	}
	delete(t.byNonce, e.Nonce)

	key := string(e.Prefix)
	h, ok := t.byPrefix[key]
	if !ok {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		h.first = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		h.last = e.prev
	}
	e.prev, e.next = nil, nil
	if h.first == nil {
		delete(t.byPrefix, key)
	}
}

// Range calls fn for every pending entry under prefix, in arrival
// order, stopping early if fn returns false.
func (t *PropagatingInterestTable) Range(prefix []byte, fn func(*PitEntry) bool) {
	h, ok := t.byPrefix[string(prefix)]
	if !ok {
		return
	}
	for e := h.first; e != nil; {
		next := e.next // fn may call Remove, which clears e.next
		if !fn(e) {
			return
		}
		e = next
	}
}

// Len reports the number of outstanding propagating entries.
func (t *PropagatingInterestTable) Len() int { return len(t.byNonce) }

// Sweep removes and returns every entry whose Expiry is before now,
// per spec.md §4.7's reaper pass.
func (t *PropagatingInterestTable) Sweep(now time.Time) []*PitEntry {
	var expired []*PitEntry
	for _, e := range t.byNonce {
		if e.Expiry.Before(now) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		t.Remove(e)
	}
	return expired
}
