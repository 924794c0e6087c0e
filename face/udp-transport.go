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

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
)

// UDPTransport is a datagram face, spec.md §6's "datagram sockets,
// bound to all addresses... non-blocking." One UDPTransport is
// created per remote peer address the first time a datagram arrives
// from it (spec.md §3 Face "Lifecycle"); subsequent datagrams from
// the same address are delivered to the same face.
type UDPTransport struct {
	conn   *net.UDPConn // shared listening socket
	remote *net.UDPAddr
	transportBase
}

// MakeUDPTransport constructs a datagram face over an already-bound
// listening socket, addressed to one peer.
func MakeUDPTransport(localURI, remoteURI *defn.URI, conn *net.UDPConn, remote *net.UDPAddr) *UDPTransport {
	t := new(UDPTransport)
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, defn.MaxPacketSize, true)
	t.conn = conn
	t.remote = remote
	t.running = true
	return t
}

func (t *UDPTransport) String() string {
	return fmt.Sprintf("udp-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SendFrame sends one datagram. I/O errors on a datagram face just
// drop the message (spec.md §7 "for datagram, drop message"); they
// never tear the face down.
func (t *UDPTransport) SendFrame(frame []byte) {
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
	if _, err := t.conn.WriteToUDP(frame, t.remote); err != nil {
		core.Log.Warn(t, "unable to send datagram - dropped", "err", err)
	} else {
		t.nOutBytes += uint64(len(frame))
	}
}

// RunReceive is a no-op for UDPTransport: all datagram faces sharing
// one socket are fed by the socket's single UDPListener accept loop,
// which demultiplexes by source address (see udp-listener.go).
func (t *UDPTransport) RunReceive(recvCh chan<- RecvEvent) {}

func (t *UDPTransport) Close() { t.running = false }

// Deliver decodes one received datagram addressed to this face and
// posts its messages. Malformed datagrams are discarded, not fatal
// (spec.md §7).
func (t *UDPTransport) Deliver(payload []byte, recvCh chan<- RecvEvent) {
	t.markReceived(len(payload))
	msgs, linkFramed, err := DecodeDatagram(payload)
	if err != nil {
		core.Log.Debug(t, "discarding malformed datagram", "err", err)
		return
	}
	if linkFramed {
		t.linkFramed = true
	}
	for _, m := range msgs {
		recvCh <- RecvEvent{FaceID: t.faceID, Frame: EncodeFrame(m.Type, m.Body)}
	}
}
