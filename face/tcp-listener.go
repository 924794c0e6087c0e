/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"fmt"
	"net"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
)

// TCPListener accepts non-local stream connections, the SPEC_FULL.md
// §4.10 addition generalized from fw/face/tcp-listener.go. It reuses
// UnixStreamTransport's frame-level behavior by wrapping a net.Conn
// the same way; only the listener differs.
type TCPListener struct {
	localURI *defn.URI
	conn     net.Listener
	stopped  chan struct{}
	OnAccept func(*UnixStreamTransport)
}

func MakeTCPListener(addr string, onAccept func(*UnixStreamTransport)) *TCPListener {
	return &TCPListener{
		localURI: defn.MakeURI("tcp", addr),
		stopped:  make(chan struct{}),
		OnAccept: onAccept,
	}
}

func (l *TCPListener) String() string { return fmt.Sprintf("tcp-listener (%s)", l.localURI) }

func (l *TCPListener) Run() error {
	defer close(l.stopped)

	ln, err := net.Listen("tcp", l.localURI.Host())
	if err != nil {
		return err
	}
	l.conn = ln

	for {
		conn, err := l.conn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			core.Log.Warn(l, "unable to accept connection", "err", err)
			continue
		}

		remote := defn.MakeURI("tcp", conn.RemoteAddr().String())
		t := &UnixStreamTransport{conn: conn}
		t.makeTransportBase(remote, l.localURI, defn.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, defn.MaxPacketSize, false)
		t.running = true
		l.OnAccept(t)
	}
}

func (l *TCPListener) Close() {
	if l.conn != nil {
		l.conn.Close()
		<-l.stopped
	}
}
