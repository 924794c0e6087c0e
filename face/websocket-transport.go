//go:build !tinygo

/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net/http"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
	"github.com/gorilla/websocket"
)

// WebSocketTransport is the SPEC_FULL.md §4.10 browser-client face
// transport, generalized from fw/face/web-socket-transport.go.
type WebSocketTransport struct {
	conn *websocket.Conn
	transportBase
}

func MakeWebSocketTransport(remoteURI, localURI *defn.URI, conn *websocket.Conn) *WebSocketTransport {
	t := new(WebSocketTransport)
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, defn.MaxPacketSize, false)
	t.conn = conn
	t.running = true
	return t
}

func (t *WebSocketTransport) String() string {
	return fmt.Sprintf("websocket-transport (faceid=%d remote=%s)", t.faceID, t.remoteURI)
}

func (t *WebSocketTransport) SendFrame(frame []byte) {
	if !t.running {
		return
	}
	if t.linkFramed {
		frame = EncodeFrame(TypeProtocolDataUnit, frame)
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		core.Log.Warn(t, "unable to send on websocket - face DOWN", "err", err)
		t.Close()
		return
	}
	t.nOutBytes += uint64(len(frame))
}

// RunReceive reads one WebSocket binary message per frame: unlike the
// Unix/TCP stream transports, gorilla/websocket already delimits
// messages, so only the outer-envelope unwrap from face/framing.go
// applies, not the incremental StreamDecoder.
func (t *WebSocketTransport) RunReceive(recvCh chan<- RecvEvent) {
	defer t.Close()
	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			if t.running {
				core.Log.Warn(t, "unable to read from websocket - face DOWN", "err", err)
			}
			return
		}
		t.markReceived(len(payload))
		msgs, linkFramed, derr := DecodeDatagram(payload)
		if linkFramed {
			t.linkFramed = true
		}
		if derr != nil {
			core.Log.Debug(t, "discarding malformed websocket frame", "err", derr)
			continue
		}
		for _, m := range msgs {
			recvCh <- RecvEvent{FaceID: t.faceID, Frame: EncodeFrame(m.Type, m.Body)}
		}
	}
}

func (t *WebSocketTransport) Close() {
	if t.running {
		t.running = false
		t.conn.Close()
	}
}

// WebSocketListener upgrades HTTP connections to WebSocket faces,
// generalized from fw/face/web-socket-listener.go.
type WebSocketListener struct {
	localURI *defn.URI
	server   *http.Server
	upgrader websocket.Upgrader
	OnAccept func(*WebSocketTransport)
}

func MakeWebSocketListener(addr string, onAccept func(*WebSocketTransport)) *WebSocketListener {
	l := &WebSocketListener{
		localURI: defn.MakeURI("ws", addr),
		OnAccept: onAccept,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ccn", l.handle)
	l.server = &http.Server{Addr: addr, Handler: mux}
	return l
}

func (l *WebSocketListener) String() string { return fmt.Sprintf("websocket-listener (%s)", l.localURI) }

func (l *WebSocketListener) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.Log.Warn(l, "websocket upgrade failed", "err", err)
		return
	}
	remote := defn.MakeURI("ws", r.RemoteAddr)
	l.OnAccept(MakeWebSocketTransport(remote, l.localURI, conn))
}

func (l *WebSocketListener) Run() error {
	err := l.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (l *WebSocketListener) Close() { l.server.Close() }
