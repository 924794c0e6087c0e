// Package face implements the Face Table (spec.md §4.1) and the
// transport/framing layer each Face's connection endpoint runs over.
package face

import (
	"time"

	"github.com/ccnd-go/ccnd/defn"
)

// Transport is the interface every concrete connection type
// implements, generalized from fw/face/transport.go's `transport`
// interface in the teacher. Unlike the teacher (which dispatches
// received frames straight into a per-thread LinkService), Transport
// here posts received frames onto a single shared channel so that all
// daemon-state mutation happens on one goroutine (see SPEC_FULL.md
// §5' and fw/daemon.go).
type Transport interface {
	String() string

	RemoteURI() *defn.URI
	LocalURI() *defn.URI
	Scope() defn.Scope
	LinkType() defn.LinkType
	Persistency() defn.Persistency
	SetPersistency(defn.Persistency) bool
	MTU() int
	FaceID() uint64
	setFaceID(uint64)

	// IsDatagram distinguishes datagram faces (one PDU per receive,
	// aged out on inactivity) from stream faces (spec.md §3 Face
	// "flags indicating datagram-vs-stream").
	IsDatagram() bool
	// IsLinkFramed reports whether this face's peer wraps PDUs in the
	// outer envelope (spec.md §4.8); set by the framer on first
	// receive.
	IsLinkFramed() bool
	SetLinkFramed(bool)

	// SendFrame transmits one already-framed PDU, wrapping it in the
	// outer envelope first if IsLinkFramed (spec.md §4.5).
	SendFrame(frame []byte)
	// RunReceive blocks, reading frames and posting them to recvCh,
	// until the transport is closed.
	RunReceive(recvCh chan<- RecvEvent)
	IsRunning() bool
	Close()

	NInBytes() uint64
	NOutBytes() uint64

	// CachedAccession/SetCachedAccession/ClearCachedAccession implement
	// the per-face resume hint of spec.md §4.3 step 1.
	CachedAccession() (uint64, bool)
	SetCachedAccession(acc uint64)
	ClearCachedAccession()

	// RecvCount feeds the reaping sweep (spec.md §4.7: "zero recvcount
	// two passes in a row"); LastActive reports the time of the last
	// receive and is not read by the sweep.
	RecvCount() uint64
	LastActive() time.Time
	// ResetRecvCount zeroes the receive-activity counter at the end of
	// a reaper pass, so the next pass's RecvCount reflects only
	// receives since then, making "zero recvcount two passes in a row"
	// an actual per-pass observation instead of a one-shot lifetime
	// check (spec.md §4.7).
	ResetRecvCount()
}

// RecvEvent is one received, already-framed PDU plus its originating
// face, posted onto the daemon's single dispatch channel.
type RecvEvent struct {
	FaceID uint64
	Frame  []byte
}

// transportBase holds the fields and accessors common to every
// Transport, copied from fw/face/transport.go's transportBase and
// extended with the recvcount/cached_accession fields spec.md §3
// requires on a Face.
type transportBase struct {
	faceID      uint64
	remoteURI   *defn.URI
	localURI    *defn.URI
	scope       defn.Scope
	linkType    defn.LinkType
	persistency defn.Persistency
	mtu         int
	datagram    bool
	linkFramed  bool
	running     bool

	nInBytes  uint64
	nOutBytes uint64

	// recvCount is the receive-activity counter the aging/reaping
	// sweep uses to detect inactive datagram faces (spec.md §3, §4.7).
	recvCount uint64
	// cachedAccession resumes name-ordered enumeration for a
	// repeating interest from this face (spec.md §4.3 step 1).
	cachedAccession    uint64
	hasCachedAccession bool
	// lastActive is set whenever RecvCount is bumped; the reaper does
	// not consult it.
	lastActive time.Time
}

func (t *transportBase) makeTransportBase(
	remoteURI, localURI *defn.URI,
	persistency defn.Persistency,
	scope defn.Scope,
	linkType defn.LinkType,
	mtu int,
	datagram bool,
) {
	t.remoteURI = remoteURI
	t.localURI = localURI
	t.persistency = persistency
	t.scope = scope
	t.linkType = linkType
	t.mtu = mtu
	t.datagram = datagram
}

func (t *transportBase) setFaceID(faceID uint64) { t.faceID = faceID }
func (t *transportBase) FaceID() uint64          { return t.faceID }

func (t *transportBase) LocalURI() *defn.URI  { return t.localURI }
func (t *transportBase) RemoteURI() *defn.URI { return t.remoteURI }
func (t *transportBase) Scope() defn.Scope    { return t.scope }
func (t *transportBase) LinkType() defn.LinkType { return t.linkType }
func (t *transportBase) MTU() int             { return t.mtu }
func (t *transportBase) IsDatagram() bool     { return t.datagram }
func (t *transportBase) IsRunning() bool      { return t.running }

func (t *transportBase) Persistency() defn.Persistency { return t.persistency }

// SetPersistency changes the persistency of the face; on-demand faces
// may be promoted to persistent but not demoted while connected,
// matching fw/face/unix-stream-transport.go's SetPersistency.
func (t *transportBase) SetPersistency(p defn.Persistency) bool {
	if p == t.persistency {
		return true
	}
	if p == defn.PersistencyPersistent {
		t.persistency = p
		return true
	}
	return false
}

func (t *transportBase) IsLinkFramed() bool      { return t.linkFramed }
func (t *transportBase) SetLinkFramed(v bool)    { t.linkFramed = v }

func (t *transportBase) NInBytes() uint64  { return t.nInBytes }
func (t *transportBase) NOutBytes() uint64 { return t.nOutBytes }

func (t *transportBase) markReceived(n int) {
	t.nInBytes += uint64(n)
	t.recvCount++
	t.lastActive = time.Now()
}

func (t *transportBase) CachedAccession() (uint64, bool) {
	return t.cachedAccession, t.hasCachedAccession
}

func (t *transportBase) SetCachedAccession(acc uint64) {
	t.cachedAccession = acc
	t.hasCachedAccession = true
}

func (t *transportBase) ClearCachedAccession() {
	t.cachedAccession = 0
	t.hasCachedAccession = false
}

func (t *transportBase) RecvCount() uint64     { return t.recvCount }
func (t *transportBase) LastActive() time.Time { return t.lastActive }
func (t *transportBase) ResetRecvCount()       { t.recvCount = 0 }
