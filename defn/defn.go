// Package defn holds small shared value types and sentinel errors used
// across the face, table, and fw packages: URIs, face scope/link-type
// enums, persistency, and wire-size limits.
package defn

import (
	"errors"
	"fmt"
)

// Scope bounds how far a face may carry an Interest (spec.md §3, §4.4).
type Scope int

const (
	// NonLocal faces reach other hosts.
	NonLocal Scope = iota
	// Local faces reach processes on this host (e.g. unix-socket clients).
	Local
)

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s == Local {
		return "local"
	}
	return "non-local"
}

// LinkType distinguishes point-to-point from multi-access faces. The
// matching engine does not read it; its scope-1 handling (spec.md
// §4.4) uses the transport's link-framed flag instead.
type LinkType int

const (
	PointToPoint LinkType = iota
	MultiAccess
)

// Persistency labels a face as persistent or on-demand. The reaper
// does not consult it: every idle datagram face is reaped alike
// (spec.md §4.7).
type Persistency int

const (
	PersistencyPersistent Persistency = iota
	PersistencyOnDemand
	PersistencyPermanent
)

// URI identifies a face endpoint, e.g. "unix:///tmp/ccnd.sock" or
// "udp4://198.51.100.1:4485".
type URI struct {
	scheme string
	host   string
}

// MakeURI constructs a canonical URI from a scheme and host component.
func MakeURI(scheme, host string) *URI {
	return &URI{scheme: scheme, host: host}
}

func (u *URI) Scheme() string { return u.scheme }
func (u *URI) Host() string   { return u.host }

// IsCanonical reports whether the URI has both a scheme and a host.
func (u *URI) IsCanonical() bool {
	return u != nil && u.scheme != "" && u.host != ""
}

func (u *URI) String() string {
	if u == nil {
		return "none"
	}
	return fmt.Sprintf("%s://%s", u.scheme, u.host)
}

// Size limits from spec.md §7.
const (
	MaxPacketSize    = 65535
	MaxNameComponents = 255
)

// Sentinel errors, named the way fw/face/unix-stream-transport.go names
// defn.ErrNotCanonical.
var (
	ErrNotCanonical      = errors.New("URI is not canonical")
	ErrFaceTableFull     = errors.New("face table is full")
	ErrFaceNotFound      = errors.New("no face with that id")
	ErrNameCollision     = errors.New("content name collision")
	ErrSizeViolation     = errors.New("message exceeds size limits")
	ErrScopeViolation    = errors.New("interest scope violated by link-framed ingress")
	ErrDuplicateNonce    = errors.New("duplicate interest nonce")
	ErrNestedEnvelope    = errors.New("nested CCNProtocolDataUnit envelope")
	ErrMalformed         = errors.New("malformed message")
)
