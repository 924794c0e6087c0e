package table

// InterestPrefixEntry tracks per-face interest demand for one prefix,
// as a pair of parallel vectors rather than a map, per spec.md §3 "an
// interest prefix entry keeps faceid[] and counter[] in lockstep."
type InterestPrefixEntry struct {
	Prefix     []byte
	FaceIDs    []uint64
	Counters   []uint32
	IdlePasses int
}

func (e *InterestPrefixEntry) indexOf(faceID uint64) int {
	for i, id := range e.FaceIDs {
		if id == faceID {
			return i
		}
	}
	return -1
}

// ConsumeFace removes faceID's demand slot, reporting whether it was
// present. Used when arriving content satisfies a recorded demand.
func (e *InterestPrefixEntry) ConsumeFace(faceID uint64) bool {
	i := e.indexOf(faceID)
	if i < 0 {
		return false
	}
	e.swapRemove(i)
	return true
}

func (e *InterestPrefixEntry) swapRemove(i int) {
	last := len(e.FaceIDs) - 1
	e.FaceIDs[i] = e.FaceIDs[last]
	e.Counters[i] = e.Counters[last]
	e.FaceIDs = e.FaceIDs[:last]
	e.Counters = e.Counters[:last]
}

// InterestPrefixTable is the demand model spec.md §4.6 ages: one
// entry per prefix seen in an arriving Interest, each holding the set
// of faces that have expressed interest in it and a decaying demand
// counter per face.
type InterestPrefixTable struct {
	entries     map[string]*InterestPrefixEntry
	unitInterest uint32
}

// NewInterestPrefixTable builds an empty table. unitInterest is the
// counter increment credited to a face on each fresh Interest arrival
// (spec.md §4.6, driven by TablesConfig.UnitInterest).
func NewInterestPrefixTable(unitInterest int) *InterestPrefixTable {
	return &InterestPrefixTable{
		entries:      make(map[string]*InterestPrefixEntry),
		unitInterest: uint32(unitInterest),
	}
}

// Record credits faceID's demand counter for prefix, creating the
// entry (and the face's slot within it) if this is the first sighting
// of either.
func (t *InterestPrefixTable) Record(prefix []byte, faceID uint64) *InterestPrefixEntry {
	key := string(prefix)
	e, ok := t.entries[key]
	if !ok {
		e = &InterestPrefixEntry{Prefix: append([]byte(nil), prefix...)}
		t.entries[key] = e
	}
	e.IdlePasses = 0
	if i := e.indexOf(faceID); i >= 0 {
		e.Counters[i] += t.unitInterest
		return e
	}
	e.FaceIDs = append(e.FaceIDs, faceID)
	e.Counters = append(e.Counters, t.unitInterest)
	return e
}

// Lookup returns the entry for prefix, if any, without modifying it.
func (t *InterestPrefixTable) Lookup(prefix []byte) (*InterestPrefixEntry, bool) {
	e, ok := t.entries[string(prefix)]
	return e, ok
}

// Len reports the number of distinct prefixes currently tracked.
func (t *InterestPrefixTable) Len() int { return len(t.entries) }

// AgePass implements spec.md §4.6's halflife decay: counters above
// unitInterest are multiplied by 5/6 (≈ the fourth root of 1/2, so
// four passes ≈ half-life); counters equal to unitInterest decrement
// by one; counters below unitInterest (including those the 5/6 scaling
// overshot past unitInterest in a single pass) keep scaling down by 5/6
// as well, so every nonzero counter keeps moving toward zero on every
// pass rather than stalling partway down; counters at zero are
// swap-removed from the parallel vectors. A prefix entry left with no
// counters at all counts one idle pass; idleLimit consecutive idle
// passes deletes the entry (spec.md: "deleted after idle exceeds 8
// aging passes", i.e. on the 9th consecutive empty pass, so callers
// pass idleLimit=9).
func (t *InterestPrefixTable) AgePass(idleLimit int) (aged, reaped int) {
	for key, e := range t.entries {
		for i := 0; i < len(e.Counters); {
			switch {
			case e.Counters[i] > t.unitInterest:
				e.Counters[i] = uint32(uint64(e.Counters[i]) * 5 / 6)
			case e.Counters[i] == t.unitInterest:
				e.Counters[i]--
			default:
				e.Counters[i] = uint32(uint64(e.Counters[i]) * 5 / 6)
			}
			if e.Counters[i] == 0 {
				e.swapRemove(i)
				continue
			}
			i++
		}
		aged++
		if len(e.FaceIDs) == 0 {
			e.IdlePasses++
			if e.IdlePasses >= idleLimit {
				delete(t.entries, key)
				reaped++
			}
		} else {
			e.IdlePasses = 0
		}
	}
	return aged, reaped
}

// Forget drops faceID from every prefix entry, for use when a face is
// released from the face table (spec.md §4.7's cleaning sweep).
func (t *InterestPrefixTable) Forget(faceID uint64) {
	for key, e := range t.entries {
		if i := e.indexOf(faceID); i >= 0 {
			e.swapRemove(i)
		}
		if len(e.FaceIDs) == 0 && len(t.entries) > 0 {
			delete(t.entries, key)
		}
	}
}
