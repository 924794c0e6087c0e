//go:build linux

package fw

import (
	"time"

	"golang.org/x/sys/unix"
)

// IOLoop is the I/O Loop of spec.md §2 item 8 and §5: "the only
// blocking primitive is the poll call at the top of the I/O loop,
// bounded by the next scheduled task's deadline." On linux it is a
// real epoll_wait over a single self-pipe fd, woken by Wake, which
// Daemon.Run calls whenever RecvCh delivers a frame or the scheduler
// signals WakeChan (spec.md §9 "a handle threaded through the event loop").
// Every face transport still owns its own goroutine for blocking
// reads, per SPEC_FULL.md §5'; IOLoop stands in only for the poll
// call that used to sit beneath a single-threaded ready-set dispatch,
// so it never needs to register a face's own fd.
type IOLoop struct {
	epfd   int
	wakeR  int
	wakeW  int
	closed bool
}

// NewIOLoop creates an epoll instance with one registered fd: the read
// end of a self-pipe written to by Wake.
func NewIOLoop() (*IOLoop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(epfd)
		return nil, err
	}
	l := &IOLoop{epfd: epfd, wakeR: fds[0], wakeW: fds[1]}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(l.wakeR)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, l.wakeR, &ev); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Wake unblocks a pending WaitUntil call from any goroutine, per
// spec.md §5 "Blocking and suspension": Daemon.Run calls this whenever
// RecvCh delivers a frame or the scheduler signals that a task may have
// moved the next deadline earlier than the poll already in progress.
func (l *IOLoop) Wake() {
	var b [1]byte
	unix.Write(l.wakeW, b[:])
}

// WaitUntil blocks until either deadline passes or Wake is called,
// draining the self-pipe so a burst of wakeups collapses to one
// return (spec.md §5: "bounded by the next scheduled task's
// deadline").
func (l *IOLoop) WaitUntil(deadline time.Time) {
	timeoutMS := -1
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d < 0 {
			d = 0
		}
		timeoutMS = int(d / time.Millisecond)
	}

	var events [1]unix.EpollEvent
	for {
		n, err := unix.EpollWait(l.epfd, events[:], timeoutMS)
		if err == unix.EINTR {
			continue
		}
		if n > 0 {
			var drain [64]byte
			for {
				if _, err := unix.Read(l.wakeR, drain[:]); err != nil {
					break
				}
			}
		}
		return
	}
}

// Close releases the epoll instance and self-pipe.
func (l *IOLoop) Close() {
	if l.closed {
		return
	}
	l.closed = true
	unix.Close(l.epfd)
	unix.Close(l.wakeR)
	unix.Close(l.wakeW)
}
