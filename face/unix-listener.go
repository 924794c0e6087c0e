package face

import (
	"errors"
	"fmt"
	"net"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/defn"
)

// UnixListener accepts connections on the local-domain stream socket
// named by spec.md §6 ($CCN_LOCAL_PORT, default "ccnd.sock").
type UnixListener struct {
	path     string
	localURI *defn.URI
	conn     *net.UnixListener
	stopped  chan struct{}
	// OnAccept is called from the accept loop for every new
	// connection; it is expected to enroll a Face and start its
	// receive goroutine.
	OnAccept func(t *UnixStreamTransport)
}

func MakeUnixListener(path string, onAccept func(*UnixStreamTransport)) *UnixListener {
	return &UnixListener{
		path:     path,
		localURI: defn.MakeURI("unix", path),
		stopped:  make(chan struct{}),
		OnAccept: onAccept,
	}
}

func (l *UnixListener) String() string {
	return fmt.Sprintf("unix-listener (%s)", l.localURI)
}

// Run removes any stale socket file (spec.md §6), binds, and accepts
// connections until Close is called.
func (l *UnixListener) Run() error {
	defer close(l.stopped)

	if err := RemoveListenerSocket(l.path); err != nil {
		return err
	}

	addr, err := net.ResolveUnixAddr("unix", l.path)
	if err != nil {
		return err
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return err
	}
	l.conn = ln

	for {
		conn, err := l.conn.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			core.Log.Warn(l, "unable to accept connection", "err", err)
			continue
		}

		remote := defn.MakeURI("fd", conn.RemoteAddr().String())
		t, err := MakeUnixStreamTransport(remote, l.localURI, conn)
		if err != nil {
			core.Log.Error(l, "failed to create unix-stream transport", "err", err)
			conn.Close()
			continue
		}
		l.OnAccept(t)
	}
}

// Close stops accepting and unlinks the socket path, matching
// spec.md §6's at-exit hook for TERM/INT/HUP.
func (l *UnixListener) Close() {
	if l.conn != nil {
		l.conn.Close()
		<-l.stopped
	}
	RemoveListenerSocket(l.path)
}
