// Package fw is the forwarder core: the daemon state and the
// dispatch loop that ties the face table, content store, interest
// tables, matching engine, and scheduler together (spec.md §2, §5).
package fw

import (
	"context"
	"math/rand"
	"time"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/scratch"
	"github.com/ccnd-go/ccnd/sched"
	"github.com/ccnd-go/ccnd/table"
	"github.com/ccnd-go/ccnd/wire"
)

// Daemon is the single process-wide forwarder state spec.md §9 calls
// "the daemon value": a handle threaded through the event loop and
// every callback rather than a package-level global, so tests can run
// several independent instances.
type Daemon struct {
	Cfg   *core.Config
	Faces *face.Table
	CS    *table.ContentStore
	IPT   *table.InterestPrefixTable
	PIT   *table.PropagatingInterestTable
	Sched *sched.Scheduler
	Codec wire.Codec

	// Scratch is the single-holder buffer/index-vector pool of
	// spec.md §4 item 1 ("Scratch Buffer Pool"), borrowed by the
	// propagation and delivery paths below to stage face-id lists
	// without per-message allocation churn.
	Scratch *scratch.Pool

	RecvCh chan face.RecvEvent

	rng *rand.Rand

	ageTask   *sched.Task
	reapTask  *sched.Task
	cleanTask *sched.Task

	// idleFaces records, per datagram face id, whether the previous
	// reaper pass already observed a zero RecvCount since its last
	// reset; a face is only released once this has happened on two
	// consecutive passes (spec.md §4.7 "zero recvcount two passes in a
	// row"), see fw/reaper.go.
	idleFaces map[uint64]bool

	// io is the I/O Loop of spec.md §2 item 8: the poll call pollLoop
	// blocks on, bounded by the scheduler's next deadline and woken
	// early whenever RecvCh gets a frame (see fw/ioloop.go).
	io *IOLoop

	// Counters surfaced by mgmt.Server.
	InterestsDropped uint64
	NameCollisions   uint64
}

// New constructs a Daemon from cfg, wiring up every table and the
// scheduler, but does not start any periodic task; call Run to start
// the event loop, which arms aging/reaping/cleaning on demand.
func New(cfg *core.Config) *Daemon {
	d := &Daemon{
		Cfg:    cfg,
		Faces:  face.NewTable(cfg.Faces.MaxFaces),
		CS:     table.NewContentStore(time.Now().UnixNano()),
		IPT:    table.NewInterestPrefixTable(cfg.Tables.UnitInterest),
		PIT:    table.NewPropagatingInterestTable(),
		Sched:   sched.New(),
		Codec:   wire.BasicCodec{},
		Scratch: scratch.NewPool(),
		RecvCh:  make(chan face.RecvEvent, 256),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	io, err := NewIOLoop()
	if err != nil {
		// Falling back to a plain timer-bounded wait still satisfies
		// spec.md §5's "bounded by the next scheduled task's deadline";
		// only the epoll_wait primitive itself is unavailable.
		core.Log.Warn(pkgLog{}, "io loop unavailable, falling back to timer-only wait", "err", err)
	} else {
		d.io = io
	}
	return d
}

// EnrollFace registers a freshly accepted Transport in the Face Table
// and starts its receive goroutine, which only ever posts to RecvCh
// (see SPEC_FULL.md §5'); this is the single path every listener
// (unix, tcp, udp, websocket, http3) uses to turn an accepted
// connection or newly-seen datagram peer into a live Face (spec.md
// §3 Face "Lifecycle").
func (d *Daemon) EnrollFace(t face.Transport) (*face.Face, error) {
	f, err := d.Faces.EnrollTransport(t)
	if err != nil {
		return nil, err
	}
	go t.RunReceive(d.RecvCh)
	return f, nil
}

// Run is the single dispatch goroutine: it is the only goroutine that
// ever mutates Faces, CS, IPT, or PIT, matching spec.md §5's "no
// shared mutable state across threads; no locks" by construction
// rather than by literal single-threading (see SPEC_FULL.md §5').
// Every face transport's own reader goroutine only ever posts to
// RecvCh; it never touches daemon state directly.
func (d *Daemon) Run(ctx context.Context) {
	d.armReaper()
	d.armCleaner()

	fired := make(chan struct{}, 1)
	if d.io != nil {
		go d.pollLoop(ctx, fired)
		defer d.io.Close()
	}

	for {
		var timer *time.Timer
		if d.io == nil {
			if deadline, ok := d.Sched.NextDeadline(); ok {
				timer = time.NewTimer(time.Until(deadline))
			} else {
				timer = time.NewTimer(time.Hour)
			}
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev := <-d.RecvCh:
			if timer != nil {
				timer.Stop()
			}
			if d.io != nil {
				d.io.Wake()
			}
			d.handleFrame(ev.FaceID, ev.Frame)
		case <-d.Sched.WakeChan():
			if timer != nil {
				timer.Stop()
			}
			if d.io != nil {
				d.io.Wake()
			}
		case <-fired:
		case <-timerC(timer):
		}
		d.Sched.RunDue()
	}
}

// timerC returns t.C, or a nil channel (which blocks forever in a
// select) when the I/O Loop goroutine is handling the deadline wait
// instead.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// pollLoop is the I/O Loop proper (spec.md §2 item 8, §5 "the only
// blocking primitive is the poll call at the top of the I/O loop,
// bounded by the next scheduled task's deadline"): it repeatedly
// blocks in IOLoop.WaitUntil and signals fired so Run re-evaluates due
// tasks. Run wakes it early via IOLoop.Wake whenever RecvCh delivers a
// frame or the scheduler arms an earlier deadline, so this loop never
// needs to itself inspect daemon state.
func (d *Daemon) pollLoop(ctx context.Context, fired chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		deadline, ok := d.Sched.NextDeadline()
		if !ok {
			deadline = time.Time{}
		}
		d.io.WaitUntil(deadline)
		select {
		case fired <- struct{}{}:
		default:
		}
	}
}

func (d *Daemon) handleFrame(faceID uint64, frame []byte) {
	msgs, _, err := face.DecodeDatagram(frame)
	if err != nil {
		core.Log.Debug(pkgLog{}, "frame parse error", "face", faceID, "err", err)
		return
	}
	for _, m := range msgs {
		switch m.Type {
		case face.TypeInterest:
			d.handleInterest(faceID, m.Body)
		case face.TypeContentObject:
			d.handleContentObject(faceID, m.Body)
		default:
			core.Log.Debug(pkgLog{}, "unknown frame type dropped", "face", faceID, "type", m.Type)
		}
	}
}

// handleInterest implements spec.md §4.3's matching traversal plus
// the §4.4 loop-suppression and nonce-synthesis steps that gate it.
func (d *Daemon) handleInterest(faceID uint64, body []byte) {
	interest, err := d.Codec.DecodeInterest(body)
	if err != nil {
		core.Log.Debug(pkgLog{}, "interest parse error", "face", faceID, "err", err)
		return
	}

	origin, ok := d.Faces.Lookup(faceID)
	if !ok {
		return
	}

	if (interest.Scope == 0 || interest.Scope == 1) && origin.Transport.IsLinkFramed() {
		core.Log.Warn(pkgLog{}, "scope violation dropped", "face", faceID)
		return
	}

	encoded := body
	var nonce [8]byte
	if len(interest.Nonce) > 0 {
		copy(nonce[:], interest.Nonce)
	} else {
		fresh := d.synthNonce()
		spliced, err := d.Codec.SpliceNonce(body, fresh)
		if err != nil {
			core.Log.Debug(pkgLog{}, "nonce splice failed", "face", faceID, "err", err)
			return
		}
		encoded = spliced
		interest.Nonce = fresh
		copy(nonce[:], fresh)
	}

	if d.PIT.SeenNonce(nonce) {
		d.InterestsDropped++
		return
	}

	d.matchInterest(faceID, interest, encoded)
}

// handleContentObject implements the content-arrival half of spec.md
// §4.2's Insertion rule, then looks for recorded demand the new (or
// duplicate) entry can satisfy.
func (d *Daemon) handleContentObject(faceID uint64, body []byte) {
	co, err := d.Codec.DecodeContentObject(body)
	if err != nil {
		core.Log.Debug(pkgLog{}, "content parse error", "face", faceID, "err", err)
		return
	}

	entry, _, err := d.CS.Insert(co.Name, body, co.SigHash, faceID)
	if err != nil {
		d.NameCollisions++
		core.Log.Warn(pkgLog{}, "name collision dropped", "face", faceID, "name", co.Name.NComps())
		return
	}

	d.satisfyDemand(entry, faceID)
}

// satisfyDemand walks prefixes of entry's name, shortest suffix first
// (i.e. longest prefix first), delivering to any face with recorded
// demand at that prefix and clearing the matching propagating
// entries. This is the engineering completion of spec.md §4.3's
// traversal for the symmetric case (content arriving before the
// interest is re-evaluated against the store); see DESIGN.md. The
// walk starts one component short of entry.Name's full length because
// isPrefixMatch (fw/matching.go) requires the content name to be
// strictly longer than a non-digest interest's prefix, so a demand
// recorded at k == NComps() could never actually match this content.
func (d *Daemon) satisfyDemand(entry *table.ContentEntry, arrivalFace uint64) {
	for k := entry.Name.NComps() - 1; k >= 0; k-- {
		prefix := entry.Name.PrefixBytes(k)
		pe, ok := d.IPT.Lookup(prefix)
		if !ok {
			continue
		}
		// pe.FaceIDs is mutated by ConsumeFace mid-loop (swap-remove),
		// so the walk copies it out first via a borrowed scratch
		// index vector (spec.md §9 "Scratch pools").
		idx := d.Scratch.GetIndices()
		idx.I = append(idx.I, pe.FaceIDs...)
		for _, faceID := range idx.I {
			if faceID == arrivalFace {
				continue
			}
			if !pe.ConsumeFace(faceID) {
				continue
			}
			entry.AddRecipient(faceID)
			d.scheduleSend(entry)
		}
		d.Scratch.PutIndices(idx)
		d.PIT.Range(prefix, func(e *table.PitEntry) bool {
			d.Sched.Cancel(e.Timeout)
			d.PIT.Remove(e)
			return true
		})
	}
}

type pkgLog struct{}

func (pkgLog) String() string { return "fw" }
