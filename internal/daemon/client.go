package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/launcher"
)

const dialTimeout = 500 * time.Millisecond

// Client talks to a running daemon.
type Client struct {
	conn *jsonrpc2.Conn
}

// Dial connects to the daemon at socketPath. When nothing is listening the
// error wraps ErrNotRunning.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	nc, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRunning, err)
	}

	// The connection outlives ctx, which only bounds the dial.
	stream := jsonrpc2.NewBufferedStream(nc, jsonrpc2.VSCodeObjectCodec{})
	return &Client{conn: jsonrpc2.NewConn(context.Background(), stream, refuseHandler{})}, nil
}

// The daemon never calls back into clients.
type refuseHandler struct{}

func (refuseHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		return
	}
	conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "client accepts no requests"})
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	err := c.conn.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeNotFound {
		return fmt.Errorf("%s: %w", rpcErr.Message, frecency.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", method, err)
}

func (c *Client) Ping(ctx context.Context) (PingResult, error) {
	var res PingResult
	err := c.call(ctx, MethodPing, nil, &res)
	return res, err
}

func (c *Client) Search(ctx context.Context, input string, limit int) ([]launcher.Entry, error) {
	var res SearchResult
	if err := c.call(ctx, MethodSearch, SearchParams{Input: input, Limit: limit}, &res); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

func (c *Client) Launch(ctx context.Context, plugin string, id frecency.ID) error {
	var res Ack
	return c.call(ctx, MethodLaunch, LaunchParams{Plugin: plugin, ID: id}, &res)
}

func (c *Client) Rescan(ctx context.Context) (map[string]frecency.MergeStats, error) {
	var res RescanResult
	if err := c.call(ctx, MethodRescan, nil, &res); err != nil {
		return nil, err
	}
	return res.Plugins, nil
}

func (c *Client) Reload(ctx context.Context, plugins ...string) error {
	var res Ack
	return c.call(ctx, MethodReload, ReloadParams{Plugins: plugins}, &res)
}

// Show asks the daemon to bring up its window. It reports false when the
// daemon has none.
func (c *Client) Show(ctx context.Context) (bool, error) {
	var res Ack
	err := c.call(ctx, MethodShow, nil, &res)
	return res.OK, err
}

func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	var res StatsResult
	err := c.call(ctx, MethodStats, nil, &res)
	return res, err
}

func (c *Client) Close() error {
	return c.conn.Close()
}
