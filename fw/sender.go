package fw

import (
	"time"

	"golang.org/x/exp/constraints"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/table"
)

// clamp bounds v to [lo, hi], used below to keep the link-framed
// delay's slow-send doubling from escaping its configured bounds.
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// chooseContentDelay implements spec.md §4.5's choose_content_delay:
// a per-face-type pacing delay for the content sender's drain loop.
func (d *Daemon) chooseContentDelay(running bool, datagram, linkFramed, slowSend bool) time.Duration {
	switch {
	case !running:
		return time.Microsecond // gone face: drain the slot
	case datagram && !linkFramed:
		return 100 * time.Microsecond
	case linkFramed:
		base := d.Cfg.Tables.DataPause
		lo := base / 2
		hi := base * 3 / 2
		delay := lo + time.Duration(d.rng.Int63n(int64(hi-lo)))
		if slowSend {
			delay *= 4
		}
		return clamp(delay, lo, hi*4)
	default:
		return 10 * time.Microsecond // local stream face
	}
}

// scheduleSend arms entry's sender task if one isn't already active,
// per spec.md §4.5: "When match_interests finds new recipients for a
// content entry, a sender task is scheduled if not already active."
func (d *Daemon) scheduleSend(entry *table.ContentEntry) {
	if entry.Sender != nil {
		return
	}
	entry.Sender = d.Sched.Schedule(0, func(cancelled bool) { d.sendTick(entry, cancelled) })
}

// sendTick runs through faces[nface_done..], sending once to the next
// face and rescheduling for that face's chosen delay, matching
// spec.md §4.5's content_sender loop. On cancellation it releases the
// entry's reference to the task without touching any other daemon
// state, per spec.md §5's cancellation contract.
func (d *Daemon) sendTick(entry *table.ContentEntry, cancelled bool) {
	if cancelled {
		entry.Sender = nil
		return
	}

	if entry.NFaceDone >= len(entry.Faces) {
		entry.Sender = nil
		return
	}

	faceID := entry.Faces[entry.NFaceDone]
	f, ok := d.Faces.Lookup(faceID)
	running := ok && f.Transport.IsRunning()

	var datagram, linkFramed bool
	if ok {
		datagram = f.Transport.IsDatagram()
		linkFramed = f.Transport.IsLinkFramed()
		if linkFramed {
			core.Log.Trace(pkgLog{}, "sending content, link-framed", "face", faceID)
		}
		f.Transport.SendFrame(face.EncodeFrame(face.TypeContentObject, entry.Tail))
	}
	entry.NFaceDone++

	delay := d.chooseContentDelay(running, datagram, linkFramed, entry.SlowSend)
	entry.Sender = d.Sched.Schedule(delay, func(cancelled bool) { d.sendTick(entry, cancelled) })
}
