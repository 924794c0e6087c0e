//go:build !tinygo

/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

// HTTP3ListenerConfig configures the optional WebTransport/QUIC face
// ingress, the SPEC_FULL.md §4.10 addition generalized from
// fw/face/http3-listener.go.
type HTTP3ListenerConfig struct {
	Bind    string
	TLSCert string
	TLSKey  string
}

// HTTP3Listener accepts WebTransport sessions over QUIC and turns each
// into an HTTP3Transport face.
type HTTP3Listener struct {
	mux      *http.ServeMux
	server   *webtransport.Server
	localURI *defn.URI
	OnAccept func(*HTTP3Transport)
}

func NewHTTP3Listener(cfg HTTP3ListenerConfig, onAccept func(*HTTP3Transport)) (*HTTP3Listener, error) {
	cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, err
	}

	l := &HTTP3Listener{
		localURI: defn.MakeURI("http3", cfg.Bind),
		OnAccept: onAccept,
	}
	l.mux = http.NewServeMux()
	l.mux.HandleFunc("/ccn", l.handler)

	l.server = &webtransport.Server{
		H3: http3.Server{
			Addr: cfg.Bind,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
			QUICConfig: &quic.Config{
				MaxIdleTimeout:  60 * time.Second,
				KeepAlivePeriod: 30 * time.Second,
			},
			Handler: l.mux,
		},
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return l, nil
}

func (l *HTTP3Listener) String() string { return "http3-listener" }

func (l *HTTP3Listener) Run() error {
	err := l.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (l *HTTP3Listener) Close() { l.server.Close() }

func (l *HTTP3Listener) handler(rw http.ResponseWriter, r *http.Request) {
	sess, err := l.server.Upgrade(rw, r)
	if err != nil {
		core.Log.Warn(l, "webtransport upgrade failed", "err", err)
		return
	}

	remote := defn.MakeURI("http3", r.RemoteAddr)
	t := NewHTTP3Transport(remote, l.localURI, sess)
	core.Log.Info(l, "accepting new HTTP/3 WebTransport face", "remote", r.RemoteAddr)
	l.OnAccept(t)
}

// HTTP3Transport is a face over a WebTransport session, sending and
// receiving whole datagrams rather than a byte stream, adapted from
// fw/face/http3-transport.go.
type HTTP3Transport struct {
	sess *webtransport.Session
	transportBase
}

func NewHTTP3Transport(remoteURI, localURI *defn.URI, sess *webtransport.Session) *HTTP3Transport {
	t := &HTTP3Transport{sess: sess}
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, 1200, true)
	t.running = true
	return t
}

func (t *HTTP3Transport) String() string {
	return "http3-transport (faceid=" + uitoa(t.faceID) + ")"
}

func (t *HTTP3Transport) SendFrame(frame []byte) {
	if !t.running {
		return
	}
	if t.linkFramed {
		frame = EncodeFrame(TypeProtocolDataUnit, frame)
	}
	if err := t.sess.SendDatagram(frame); err != nil {
		core.Log.Warn(t, "unable to send on webtransport session - face DOWN", "err", err)
		t.Close()
		return
	}
	t.nOutBytes += uint64(len(frame))
}

func (t *HTTP3Transport) RunReceive(recvCh chan<- RecvEvent) {
	defer t.Close()
	for {
		payload, err := t.sess.ReceiveDatagram(t.sess.Context())
		if err != nil {
			core.Log.Warn(t, "unable to read from webtransport session - face DOWN", "err", err)
			return
		}
		t.markReceived(len(payload))
		msgs, linkFramed, derr := DecodeDatagram(payload)
		if linkFramed {
			t.linkFramed = true
		}
		if derr != nil {
			core.Log.Debug(t, "discarding malformed webtransport datagram", "err", derr)
			continue
		}
		for _, m := range msgs {
			recvCh <- RecvEvent{FaceID: t.faceID, Frame: EncodeFrame(m.Type, m.Body)}
		}
	}
}

func (t *HTTP3Transport) Close() {
	if t.running {
		t.running = false
		t.sess.CloseWithError(0, "")
	}
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
