// Package cmd wires the cobra CLI, configuration loading, signal
// handling, and transport wiring together into a runnable daemon,
// mirroring fw/cmd/cmd.go's shape in the teacher almost exactly
// (one root command, one package-level default config, a thin
// Start/Stop wrapper type).
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/fw"
	"github.com/ccnd-go/ccnd/mgmt"
)

var config = core.DefaultConfig()

// CmdCCND is the daemon's root command: `ccnd CONFIG-FILE`, matching
// fw/cmd/cmd.go's `yanfd CONFIG-FILE` (spec.md §6's "ccnd.sock"
// naming is where the binary name comes from).
var CmdCCND = &cobra.Command{
	Use:   "ccnd CONFIG-FILE",
	Short: "Content-centric networking forwarding daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	CmdCCND.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	CmdCCND.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "Write memory profile to file")
	CmdCCND.Flags().StringVar(&config.Core.BlockProfile, "block-profile", "", "Write block profile to file")
}

// run loads the config file, applies environment overrides (spec.md
// §6), starts the daemon, and blocks for a fatal signal before
// shutting down cleanly, per fw/cmd/cmd.go's run().
func run(_ *cobra.Command, args []string) error {
	configFile := args[0]
	config.Core.BaseDir = filepath.Dir(configFile)

	if err := core.ReadYAML(config, configFile); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	config.Core.ApplyEnv()

	level, err := core.ParseLevel(config.Core.LogLevel)
	if err != nil {
		return err
	}
	core.InitLog(level)

	profiler := NewProfiler(config)
	if err := profiler.Start(); err != nil {
		return err
	}
	defer profiler.Stop()

	daemon, err := NewCCND(config)
	if err != nil {
		core.Log.Error(daemon, "unable to start daemon", "err", err)
		os.Exit(1)
	}
	daemon.Start()

	// spec.md §6: "On fatal signals (TERM, INT, HUP) the daemon
	// unlinks the socket path in an at-exit hook" — Stop() below does
	// that via UnixListener.Close(), run from every signal path.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigCh
	core.Log.Info(daemon, "received signal - exiting", "signal", sig)

	daemon.Stop()
	return nil
}

// CCND is the daemon process: the forwarder core (fw.Daemon) plus
// every listener and the status surface wired around it. It is the
// idiomatic-Go analogue of the teacher's (filtered-from-the-pack)
// YaNFD type that fw/cmd/cmd.go constructs via NewYaNFD and drives
// with Start/Stop.
type CCND struct {
	cfg *core.Config
	d   *fw.Daemon

	unixListener *face.UnixListener
	udp4         *face.UDPListener
	udp6         *face.UDPListener
	tcpListener  *face.TCPListener
	wsListener   *face.WebSocketListener
	http3        *face.HTTP3Listener
	status       *mgmt.Server

	cancel context.CancelFunc
	done   chan struct{}
}

func (c *CCND) String() string { return "ccnd" }

// NewCCND constructs the daemon and every configured listener, but
// does not start accepting connections yet (spec.md §6's listener
// setup: remove stale socket, bind datagram sockets for every
// address family, optionally bind the additional SPEC_FULL.md §4.10
// transports, and the read-only status surface).
func NewCCND(cfg *core.Config) (*CCND, error) {
	d := fw.New(cfg)
	c := &CCND{cfg: cfg, d: d, done: make(chan struct{})}

	socketPath := filepath.Join(cfg.Core.BaseDir, cfg.Core.UnixSocketName)
	c.unixListener = face.MakeUnixListener(socketPath, c.onStreamAccept)

	udp4, err := face.MakeUDPListener("udp4", "0.0.0.0:"+cfg.Core.DatagramPort, c.onUDPPeer)
	if err != nil {
		return nil, fmt.Errorf("binding udp4 datagram socket: %w", err)
	}
	c.udp4 = udp4

	if udp6, err := face.MakeUDPListener("udp6", "[::]:"+cfg.Core.DatagramPort, c.onUDPPeer); err != nil {
		core.Log.Warn(c, "ipv6 datagram socket unavailable, continuing with ipv4 only", "err", err)
	} else {
		c.udp6 = udp6
	}

	if cfg.Listeners.TCPBind != "" {
		c.tcpListener = face.MakeTCPListener(cfg.Listeners.TCPBind, c.onStreamAccept)
	}
	if cfg.Listeners.WebSocketBind != "" {
		c.wsListener = face.MakeWebSocketListener(cfg.Listeners.WebSocketBind, c.onWebSocketAccept)
	}
	if cfg.Listeners.HTTP3.Bind != "" {
		l, err := face.NewHTTP3Listener(face.HTTP3ListenerConfig{
			Bind:    cfg.Listeners.HTTP3.Bind,
			TLSCert: cfg.Listeners.HTTP3.TLSCert,
			TLSKey:  cfg.Listeners.HTTP3.TLSKey,
		}, c.onHTTP3Accept)
		if err != nil {
			return nil, fmt.Errorf("starting http3 listener: %w", err)
		}
		c.http3 = l
	}

	if cfg.Core.StatusAddr != "" {
		c.status = mgmt.NewServer(d, cfg.Core.StatusAddr)
	}

	return c, nil
}

// Start launches the daemon's dispatch goroutine and every configured
// listener's accept loop in its own goroutine, per spec.md §5's model
// of one mutator goroutine fed by many reader goroutines.
func (c *CCND) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		c.d.Run(ctx)
		close(c.done)
	}()

	go c.runListener(c.unixListener)
	go c.runUDPListener(c.udp4)
	if c.udp6 != nil {
		go c.runUDPListener(c.udp6)
	}
	if c.tcpListener != nil {
		go c.runListener(c.tcpListener)
	}
	if c.wsListener != nil {
		go c.runListener(c.wsListener)
	}
	if c.http3 != nil {
		go c.runListener(c.http3)
	}
	if c.status != nil {
		go func() {
			if err := c.status.Run(); err != nil {
				core.Log.Warn(c, "status surface stopped", "err", err)
			}
		}()
	}
}

type runnable interface {
	Run() error
	String() string
}

func (c *CCND) runListener(l runnable) {
	if err := l.Run(); err != nil {
		core.Log.Warn(c, "listener stopped", "listener", l.String(), "err", err)
	}
}

func (c *CCND) runUDPListener(l *face.UDPListener) {
	l.Run(c.d.RecvCh)
}

// Stop closes every listener (unlinking the unix socket path, per
// spec.md §6's at-exit hook) and cancels the dispatch loop.
func (c *CCND) Stop() {
	c.unixListener.Close()
	c.udp4.Close()
	if c.udp6 != nil {
		c.udp6.Close()
	}
	if c.tcpListener != nil {
		c.tcpListener.Close()
	}
	if c.wsListener != nil {
		c.wsListener.Close()
	}
	if c.http3 != nil {
		c.http3.Close()
	}
	if c.status != nil {
		c.status.Close()
	}
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}

func (c *CCND) onStreamAccept(t *face.UnixStreamTransport) {
	if _, err := c.d.EnrollFace(t); err != nil {
		core.Log.Warn(c, "refusing new face - table full", "err", err)
		t.Close()
	}
}

func (c *CCND) onUDPPeer(t *face.UDPTransport) {
	if _, err := c.d.EnrollFace(t); err != nil {
		core.Log.Warn(c, "refusing new datagram face - table full", "err", err)
	}
}

func (c *CCND) onWebSocketAccept(t *face.WebSocketTransport) {
	if _, err := c.d.EnrollFace(t); err != nil {
		core.Log.Warn(c, "refusing new websocket face - table full", "err", err)
		t.Close()
	}
}

func (c *CCND) onHTTP3Accept(t *face.HTTP3Transport) {
	if _, err := c.d.EnrollFace(t); err != nil {
		core.Log.Warn(c, "refusing new http3 face - table full", "err", err)
		t.Close()
	}
}
