/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
)

// UnixStreamTransport is a local file-system stream face, spec.md
// §6's "file-system (local-domain) stream socket". Adapted from
// fw/face/unix-stream-transport.go: same URI validation, sendFrame,
// and runReceive shape, but frames are posted to a shared channel
// instead of calling into a per-thread link service.
type UnixStreamTransport struct {
	conn net.Conn
	dec  StreamDecoder
	transportBase
}

// MakeUnixStreamTransport wraps an accepted Unix-domain connection.
func MakeUnixStreamTransport(remoteURI, localURI *defn.URI, conn net.Conn) (*UnixStreamTransport, error) {
	if !remoteURI.IsCanonical() || remoteURI.Scheme() != "fd" || !localURI.IsCanonical() || localURI.Scheme() != "unix" {
		return nil, defn.ErrNotCanonical
	}
	t := new(UnixStreamTransport)
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyPersistent, defn.Local, defn.PointToPoint, defn.MaxPacketSize, false)
	t.conn = conn
	t.running = true
	return t, nil
}

func (t *UnixStreamTransport) String() string {
	return fmt.Sprintf("unix-stream-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SendFrame wraps frame in the outer envelope when the peer expects
// framed PDUs (spec.md §4.5), then writes it whole: a short write on a
// stream face is the tear-down case, not the deferred-queue case,
// since writes happen on the transport's own goroutine rather than
// behind a poller's write-readiness callback (see SPEC_FULL.md §5').
func (t *UnixStreamTransport) SendFrame(frame []byte) {
	if !t.running {
		return
	}
	if len(frame) > t.mtu {
		core.Log.Warn(t, "attempted to send frame larger than MTU")
		return
	}
	if t.linkFramed {
		frame = EncodeFrame(TypeProtocolDataUnit, frame)
	}
	if _, err := t.conn.Write(frame); err != nil {
		core.Log.Warn(t, "unable to send on socket - face DOWN", "err", err)
		t.Close()
		return
	}
	t.nOutBytes += uint64(len(frame))
}

// RunReceive reads the byte stream and posts every decoded frame,
// tearing the face down on a framer-level protocol error per spec.md
// §7 ("for stream faces, a framer-level protocol error terminates the
// face").
func (t *UnixStreamTransport) RunReceive(recvCh chan<- RecvEvent) {
	defer t.Close()
	buf := make([]byte, defn.MaxPacketSize)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.markReceived(n)
			t.dec.Feed(buf[:n])
			msgs, linkFramed, derr := t.dec.Next()
			if linkFramed {
				t.linkFramed = true
			}
			for _, m := range msgs {
				recvCh <- RecvEvent{FaceID: t.faceID, Frame: EncodeFrame(m.Type, m.Body)}
			}
			if derr != nil {
				core.Log.Warn(t, "protocol error on stream face - DOWN", "err", derr)
				return
			}
		}
		if err != nil {
			if t.running {
				core.Log.Warn(t, "unable to read from socket - face DOWN", "err", err)
			}
			return
		}
	}
}

func (t *UnixStreamTransport) Close() {
	if t.running {
		t.running = false
		t.conn.Close()
	}
}

// RemoveListenerSocket unlinks path if it exists. It sleeps 9s and
// unlinks once more only when that first unlink fails; when the first
// unlink succeeds it returns at once, without waiting for a prior
// owner to exit.
func RemoveListenerSocket(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			time.Sleep(9 * time.Second)
			return os.Remove(path)
		}
	}
	return nil
}
