package fw

import (
	"time"

	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/table"
	"github.com/ccnd-go/ccnd/wire"
)

// propagateMinDelay and propagateMaxDelay bound the per-tick random
// delay of spec.md §4.4 ("reschedules itself for a random delay in
// [500, 8691] microseconds").
const (
	propagateMinDelay = 500 * time.Microsecond
	propagateMaxDelay = 8691 * time.Microsecond
)

// propagationState is the outbound worklist for one forwarded
// Interest: the remaining faces to send to, one drained per tick
// (spec.md §4.4).
type propagationState struct {
	d       *Daemon
	entry   *table.PitEntry
	encoded []byte
	pending []uint64
}

// propagate begins forwarding interest to every face but the ingress,
// honoring scope (spec.md §4.4 "Outbound face set"), and registers
// the propagating entry for loop suppression. pe is unused directly
// here (it already recorded demand in Daemon.matchInterest) but is
// threaded through so callers read as a single matching-then-
// propagating step.
func (d *Daemon) propagate(ingress uint64, interest *wire.Interest, encoded []byte, pe *table.InterestPrefixEntry) {
	if interest.Scope == 0 {
		return
	}

	// Stage the outbound face set in a borrowed index vector (spec.md
	// §4 item 1, §9 "Scratch pools") rather than allocating a fresh
	// slice per forwarded interest.
	idx := d.Scratch.GetIndices()
	defer d.Scratch.PutIndices(idx)
	d.Faces.Range(func(f *face.Face) {
		if f.ID() == ingress {
			return
		}
		if interest.Scope == 1 && f.Transport.IsLinkFramed() {
			return
		}
		idx.I = append(idx.I, f.ID())
	})
	if len(idx.I) == 0 {
		return
	}
	pending := append([]uint64(nil), idx.I...)

	var nonce [8]byte
	copy(nonce[:], interest.Nonce)
	prefix := interest.Name.PrefixBytes(interest.Name.NComps())
	entry := d.PIT.Insert(prefix, nonce, ingress, time.Now().Add(d.Cfg.Tables.InterestHalfLife*4))

	ps := &propagationState{d: d, entry: entry, encoded: face.EncodeFrame(face.TypeInterest, encoded), pending: pending}
	// The very first send, like every later one, goes through the
	// scheduler with a randomized delay (spec.md §4.3 step 5: "enqueue
	// do_propagate with a randomized initial delay"), rather than
	// sending synchronously inline.
	delay := propagateMinDelay + time.Duration(d.rng.Int63n(int64(propagateMaxDelay-propagateMinDelay)))
	entry.Timeout = d.Sched.Schedule(delay, ps.tick)
}

// tick sends to one pending face and reschedules itself, per spec.md
// §4.4's drain-one-per-tick design; when the set empties, the entry
// is left registered (by nonce and by prefix) awaiting either a
// satisfying content arrival (cleared in Daemon.satisfyDemand) or
// reaping (fw/reaper.go).
func (ps *propagationState) tick(cancelled bool) {
	if cancelled || len(ps.pending) == 0 {
		return
	}

	faceID := ps.pending[0]
	ps.pending = ps.pending[1:]

	if f, ok := ps.d.Faces.Lookup(faceID); ok {
		f.Transport.SendFrame(ps.encoded)
	}

	if len(ps.pending) == 0 {
		return
	}
	delay := propagateMinDelay + time.Duration(ps.d.rng.Int63n(int64(propagateMaxDelay-propagateMinDelay)))
	ps.entry.Timeout = ps.d.Sched.Schedule(delay, ps.tick)
}
