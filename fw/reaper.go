package fw

import (
	"time"

	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/table"
)

// reaperPeriod is 2 × CCN_INTEREST_HALFLIFE_MICROSEC (spec.md §4.7).
func (d *Daemon) reaperPeriod() time.Duration {
	return 2 * d.Cfg.Tables.InterestHalfLife
}

const cleaningPeriod = 15 * time.Second

// armReaper schedules the reaper pass, but only while there is work
// for it to do (spec.md §4.7: "runs ... while there are datagram
// faces or propagating entries").
func (d *Daemon) armReaper() {
	d.reapTask = d.Sched.Schedule(d.reaperPeriod(), d.reapTick)
}

func (d *Daemon) reapTick(cancelled bool) {
	d.reapTask = nil
	if cancelled {
		return
	}

	var dead []uint64
	d.Faces.Range(func(f *face.Face) {
		if !f.Transport.IsDatagram() {
			return
		}
		id := f.ID()
		if f.Transport.RecvCount() == 0 {
			if d.idleFaces[id] {
				dead = append(dead, id)
			} else {
				if d.idleFaces == nil {
					d.idleFaces = make(map[uint64]bool)
				}
				d.idleFaces[id] = true
			}
		} else {
			delete(d.idleFaces, id)
		}
		// Reset so the next pass's RecvCount reflects only receives
		// since now; without this a face that ever received anything
		// could never be observed idle again (spec.md §4.7).
		f.Transport.ResetRecvCount()
	})
	for _, id := range dead {
		d.releaseFace(id)
		delete(d.idleFaces, id)
	}

	d.PIT.Sweep(time.Now())

	if d.Faces.Len() > 0 || d.PIT.Len() > 0 {
		d.armReaper()
	}
}

// releaseFace tears a face down: closes its transport, releases its
// slot, and forgets its recorded demand (spec.md §4.1 release, §4.7).
func (d *Daemon) releaseFace(faceID uint64) {
	if f, ok := d.Faces.Lookup(faceID); ok {
		f.Transport.Close()
	}
	d.Faces.Release(faceID)
	d.IPT.Forget(faceID)
}

// armCleaner schedules the periodic content face-send-set compaction
// (spec.md §4.7 "a separate cleaning pass (every 15s)").
func (d *Daemon) armCleaner() {
	d.cleanTask = d.Sched.Schedule(cleaningPeriod, d.cleanTick)
}

func (d *Daemon) cleanTick(cancelled bool) {
	d.cleanTask = nil
	if cancelled {
		return
	}

	isLive := func(faceID uint64) bool {
		f, ok := d.Faces.Lookup(faceID)
		return ok && f.Transport.IsRunning()
	}
	d.CS.RangeAccession(func(e *table.ContentEntry) {
		e.CompactFaces(isLive)
	})

	d.armCleaner()
}
