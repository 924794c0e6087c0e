package face

import (
	"fmt"
	"net"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
)

// UDPListener owns one bound, non-blocking datagram socket and
// demultiplexes incoming datagrams to per-peer UDPTransport faces,
// creating a new one the first time a peer is seen (spec.md §6,
// §3 "Face lifecycle").
type UDPListener struct {
	conn     *net.UDPConn
	localURI *defn.URI
	peers    map[string]*UDPTransport
	stopped  chan struct{}
	// OnNewPeer is called with a freshly-created transport so the
	// caller can enroll it in the Face Table.
	OnNewPeer func(*UDPTransport)
}

func MakeUDPListener(network, addr string, onNewPeer func(*UDPTransport)) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, udpAddr)
	if err != nil {
		return nil, err
	}
	return &UDPListener{
		conn:      conn,
		localURI:  defn.MakeURI(network, addr),
		peers:     make(map[string]*UDPTransport),
		stopped:   make(chan struct{}),
		OnNewPeer: onNewPeer,
	}, nil
}

func (l *UDPListener) String() string {
	return fmt.Sprintf("udp-listener (%s)", l.localURI)
}

// Run reads datagrams until Close, dispatching each to the peer's
// transport (creating one on first contact) via recvCh.
func (l *UDPListener) Run(recvCh chan<- RecvEvent) {
	defer close(l.stopped)
	buf := make([]byte, defn.MaxPacketSize)
	for {
		n, remote, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			return // socket closed
		}
		key := remote.String()
		t, ok := l.peers[key]
		if !ok {
			remoteURI := defn.MakeURI("udp", key)
			t = MakeUDPTransport(l.localURI, remoteURI, l.conn, remote)
			l.peers[key] = t
			core.Log.Info(l, "new datagram face", "remote", key)
			if l.OnNewPeer != nil {
				l.OnNewPeer(t)
			}
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		t.Deliver(payload, recvCh)
	}
}

// Forget removes a peer's entry, called by the reaper once its face
// has been released (spec.md §4.7).
func (l *UDPListener) Forget(remote string) {
	delete(l.peers, remote)
}

func (l *UDPListener) Close() {
	l.conn.Close()
	<-l.stopped
}
