package daemon

import (
	"context"
	"errors"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/launcher"
)

func (d *Daemon) handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var (
		result any
		err    error
	)
	switch req.Method {
	case MethodPing:
		result = PingResult{PID: os.Getpid(), Uptime: d.Uptime()}
	case MethodSearch:
		result, err = d.handleSearch(ctx, req)
	case MethodLaunch:
		result, err = d.handleLaunch(ctx, req)
	case MethodRescan:
		result, err = d.handleRescan(ctx)
	case MethodReload:
		result, err = d.handleReload(req)
	case MethodShow:
		result = d.handleShow()
	case MethodStats:
		result, err = d.handleStats(ctx)
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
	}
	if err != nil {
		return nil, toRPCError(err)
	}
	return result, nil
}

func (d *Daemon) handleSearch(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	entries, err := d.service.Search(ctx, params.Input, params.Limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []launcher.Entry{}
	}
	return SearchResult{Entries: entries}, nil
}

func (d *Daemon) handleLaunch(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var params LaunchParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if params.Plugin == "" {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "plugin is required"}
	}
	if err := d.service.Launch(ctx, params.Plugin, params.ID); err != nil {
		return nil, err
	}
	log.Info("launched", "plugin", params.Plugin, "id", params.ID)
	return Ack{OK: true}, nil
}

func (d *Daemon) handleRescan(ctx context.Context) (any, error) {
	stats, err := d.service.Rescan(ctx)
	if err != nil {
		return nil, err
	}
	return RescanResult{Plugins: stats}, nil
}

func (d *Daemon) handleReload(req *jsonrpc2.Request) (any, error) {
	var params ReloadParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if err := d.service.Reload(params.Plugins...); err != nil {
		return nil, err
	}
	return Ack{OK: true}, nil
}

func (d *Daemon) handleShow() any {
	if d.onShow == nil {
		log.Info("show requested with no window attached")
		return Ack{OK: false}
	}
	d.onShow()
	return Ack{OK: true}
}

func (d *Daemon) handleStats(ctx context.Context) (any, error) {
	plugins, err := d.service.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return StatsResult{
		PID:         os.Getpid(),
		Uptime:      d.Uptime(),
		Connections: d.connectionCount(),
		Plugins:     plugins,
	}, nil
}

func toRPCError(err error) error {
	var rpcErr *jsonrpc2.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, frecency.ErrNotFound):
		return &jsonrpc2.Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, launcher.ErrUnknownPlugin), errors.Is(err, frecency.ErrInvalidWeight):
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	default:
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
}
