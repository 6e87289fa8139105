// Package daemon serves the launcher over JSON-RPC 2.0 on a unix socket and
// keeps a single instance per data directory.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/launcher"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("daemon")

// Service is what the daemon exposes. *launcher.Launcher implements it.
type Service interface {
	Search(ctx context.Context, input string, limit int) ([]launcher.Entry, error)
	Launch(ctx context.Context, plugin string, id frecency.ID) error
	Rescan(ctx context.Context) (map[string]frecency.MergeStats, error)
	Reload(names ...string) error
	Stats(ctx context.Context) ([]launcher.PluginStats, error)
}

type Option func(*Daemon)

// WithShowHandler sets what a "show" request does. Without one the request
// is only logged.
func WithShowHandler(show func()) Option {
	return func(d *Daemon) { d.onShow = show }
}

type Daemon struct {
	socketPath string
	service    Service
	onShow     func()

	listener     net.Listener
	connections  map[*jsonrpc2.Conn]string
	connMu       sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	startTime    time.Time
}

func New(socketPath string, service Service, opts ...Option) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		socketPath:  socketPath,
		service:     service,
		connections: make(map[*jsonrpc2.Conn]string),
		ctx:         ctx,
		cancel:      cancel,
		shutdown:    make(chan struct{}),
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start listens on the socket and accepts connections in the background. A
// stale socket left by a crashed daemon is removed first; the caller must
// hold the instance lock.
func (d *Daemon) Start() error {
	if err := os.MkdirAll(filepath.Dir(d.socketPath), 0o700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}
	if err := os.Remove(d.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove socket: %w", err)
	}

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := os.Chmod(d.socketPath, 0o700); err != nil {
		listener.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}
	d.listener = listener
	d.startTime = time.Now()

	d.wg.Add(1)
	go d.acceptConnections()

	log.Info("daemon listening", "socket", d.socketPath, "pid", os.Getpid())
	return nil
}

// Serve runs until ctx is cancelled or Shutdown is called.
func (d *Daemon) Serve(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-d.shutdown:
	}
	d.Shutdown()
	return nil
}

func (d *Daemon) acceptConnections() {
	defer d.wg.Done()
	for {
		nc, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("accept failed", "error", err)
			continue
		}
		d.serveConn(nc)
	}
}

func (d *Daemon) serveConn(nc net.Conn) {
	id := uuid.NewString()
	connLog := log.With("conn", id)

	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		start := time.Now()
		result, err := d.handle(ctx, req)
		if err != nil {
			connLog.Debug("request failed", "method", req.Method, "duration", time.Since(start), "error", err)
		} else {
			connLog.Debug("request", "method", req.Method, "duration", time.Since(start))
		}
		return result, err
	})

	stream := jsonrpc2.NewBufferedStream(nc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(d.ctx, stream, handler)

	d.connMu.Lock()
	d.connections[conn] = id
	d.connMu.Unlock()
	connLog.Debug("client connected")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		<-conn.DisconnectNotify()
		d.connMu.Lock()
		delete(d.connections, conn)
		d.connMu.Unlock()
		connLog.Debug("client disconnected")
	}()
}

// Shutdown stops accepting, closes every connection and removes the
// socket. It is safe to call more than once.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)
		d.cancel()

		if d.listener != nil {
			d.listener.Close()
		}

		d.connMu.Lock()
		for conn := range d.connections {
			conn.Close()
		}
		d.connMu.Unlock()

		d.wg.Wait()
		os.Remove(d.socketPath)
		log.Info("daemon stopped", "uptime", d.Uptime().Round(time.Second))
	})
}

// Done is closed once Shutdown has begun.
func (d *Daemon) Done() <-chan struct{} {
	return d.shutdown
}

func (d *Daemon) SocketPath() string {
	return d.socketPath
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}

func (d *Daemon) connectionCount() int {
	d.connMu.Lock()
	defer d.connMu.Unlock()
	return len(d.connections)
}

func decodeParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return nil
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}
