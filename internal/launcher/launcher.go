package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/alucardeht/poki-launcher/internal/apps"
	"github.com/alucardeht/poki-launcher/internal/blobstore"
	"github.com/alucardeht/poki-launcher/internal/config"
	"github.com/alucardeht/poki-launcher/internal/files"
	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/logger"
	"github.com/alucardeht/poki-launcher/internal/runner"
	"github.com/alucardeht/poki-launcher/internal/sqlstore"
	"github.com/alucardeht/poki-launcher/internal/watcher"
)

var log = logger.ForComponent("launcher")

// SpawnFunc starts a program and returns its pid.
type SpawnFunc func(argv []string) (int, error)

type Option func(*options)

type options struct {
	spawn SpawnFunc
	store []frecency.Option
}

// WithSpawner replaces runner.Spawn.
func WithSpawner(spawn SpawnFunc) Option {
	return func(o *options) { o.spawn = spawn }
}

// WithStoreOptions passes options to every plugin database.
func WithStoreOptions(opts ...frecency.Option) Option {
	return func(o *options) { o.store = append(o.store, opts...) }
}

type Launcher struct {
	plugins    []Plugin
	byName     map[string]Plugin
	maxResults int
}

// New opens a store per plugin in the configured load order.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Launcher, error) {
	o := options{spawn: runner.Spawn}
	for _, opt := range opts {
		opt(&o)
	}
	o.store = append([]frecency.Option{frecency.WithHalfLife(cfg.Storage.HalfLife)}, o.store...)

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	var plugins []Plugin
	for _, name := range cfg.Plugins.LoadOrder {
		var p Plugin
		var err error
		switch name {
		case config.PluginApps:
			p, err = newAppsPlugin(ctx, cfg, o)
		case config.PluginFiles:
			p, err = newFilesPlugin(ctx, cfg, o)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
		}
		if err != nil {
			for _, opened := range plugins {
				opened.Close()
			}
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		plugins = append(plugins, p)
	}

	return NewWithPlugins(cfg.Search.MaxResults, plugins...), nil
}

func NewWithPlugins(maxResults int, plugins ...Plugin) *Launcher {
	l := &Launcher{
		plugins:    plugins,
		byName:     make(map[string]Plugin, len(plugins)),
		maxResults: maxResults,
	}
	for _, p := range plugins {
		l.byName[p.Name()] = p
	}
	return l
}

func newAppsPlugin(ctx context.Context, cfg *config.Config, o options) (Plugin, error) {
	store, err := openStore[apps.App](ctx, cfg, config.PluginApps, o.store)
	if err != nil {
		return nil, err
	}
	paths := cfg.Plugins.Apps.Paths
	termCmd := cfg.Plugins.Apps.TermCmd

	return NewCatalog(CatalogConfig[apps.App]{
		Name:  config.PluginApps,
		Store: store,
		Scan: func(ctx context.Context) ([]apps.App, []error) {
			return apps.Scan(ctx, paths)
		},
		Open: func(ctx context.Context, app apps.App) error {
			argv, err := app.Command(termCmd)
			if err != nil {
				return err
			}
			_, err = o.spawn(argv)
			return err
		},
		Describe: func(app apps.App) Entry {
			return Entry{Name: app.Name, Icon: app.Icon, Detail: app.Exec}
		},
		Watch:           paths,
		RebaselineAfter: cfg.Storage.RebaselineAfter,
	}), nil
}

func newFilesPlugin(ctx context.Context, cfg *config.Config, o options) (Plugin, error) {
	store, err := openStore[files.File](ctx, cfg, config.PluginFiles, o.store)
	if err != nil {
		return nil, err
	}
	roots := cfg.Plugins.Files.Roots
	exclude := cfg.Plugins.Files.Exclude

	return NewCatalog(CatalogConfig[files.File]{
		Name:   config.PluginFiles,
		Store:  store,
		Prefix: cfg.Plugins.Files.Prefix,
		Scan: func(ctx context.Context) ([]files.File, []error) {
			return files.Walk(ctx, roots, exclude)
		},
		Open: func(ctx context.Context, f files.File) error {
			_, err := o.spawn(f.Command())
			return err
		},
		Describe: func(f files.File) Entry {
			return Entry{Name: f.Name, Detail: f.Path}
		},
		Watch:           roots,
		RebaselineAfter: cfg.Storage.RebaselineAfter,
	}), nil
}

// openStore opens the plugin's database with the configured backend. A
// corrupt blob is moved aside and replaced with an empty database; the next
// rescan repopulates it.
func openStore[T frecency.Item](ctx context.Context, cfg *config.Config, plugin string, opts []frecency.Option) (frecency.Store[T], error) {
	path := cfg.DBPath(plugin)

	if cfg.Storage.Backend == config.BackendBlob {
		store, err := blobstore.Open[T](ctx, path, opts...)
		if errors.Is(err, frecency.ErrCorrupt) {
			aside := path + ".corrupt"
			log.Warn("database is corrupt, starting fresh", "path", path, "moved_to", aside, "error", err)
			if rerr := os.Rename(path, aside); rerr != nil {
				return nil, fmt.Errorf("move corrupt database: %w", rerr)
			}
			store, err = blobstore.Open[T](ctx, path, opts...)
		}
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := sqlstore.Open[T](ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (l *Launcher) Plugins() []Plugin {
	return slices.Clone(l.plugins)
}

// Search hands input to the first plugin in load order that matches it. A
// limit of zero uses the configured maximum.
func (l *Launcher) Search(ctx context.Context, input string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = l.maxResults
	}
	for _, p := range l.plugins {
		if query, ok := p.Matches(input); ok {
			return p.Search(ctx, query, limit)
		}
	}
	return nil, nil
}

func (l *Launcher) Launch(ctx context.Context, plugin string, id frecency.ID) error {
	p, ok := l.byName[plugin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, plugin)
	}
	return p.Launch(ctx, id)
}

// Rescan refreshes every plugin synchronously. One plugin failing does not
// stop the others.
func (l *Launcher) Rescan(ctx context.Context) (map[string]frecency.MergeStats, error) {
	out := make(map[string]frecency.MergeStats, len(l.plugins))
	var errs []error
	for _, p := range l.plugins {
		stats, err := p.Rescan(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[p.Name()] = stats
	}
	return out, errors.Join(errs...)
}

// Reload schedules background rescans for the named plugins, or for all of
// them when none are named.
func (l *Launcher) Reload(names ...string) error {
	if len(names) == 0 {
		for _, p := range l.plugins {
			p.Reload()
		}
		return nil
	}
	for _, name := range names {
		p, ok := l.byName[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
		}
		p.Reload()
	}
	return nil
}

func (l *Launcher) Stats(ctx context.Context) ([]PluginStats, error) {
	out := make([]PluginStats, 0, len(l.plugins))
	for _, p := range l.plugins {
		st, err := p.Stats(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (l *Launcher) Start(ctx context.Context) error {
	for _, p := range l.plugins {
		if err := p.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Watch starts a file watcher over every plugin's watch paths. A change
// under a path reloads the plugins that watch it.
func (l *Launcher) Watch(ctx context.Context, cfg watcher.WatcherConfig) (*watcher.Watcher, error) {
	owners := map[string][]Plugin{}
	w, err := watcher.New(cfg, func(changes []watcher.Change) {
		reloaded := map[string]bool{}
		for _, ch := range changes {
			for _, p := range owners[ch.Root] {
				if reloaded[p.Name()] {
					continue
				}
				reloaded[p.Name()] = true
				log.Info("source changed, rescanning", "plugin", p.Name(), "root", ch.Root, "events", len(ch.Events))
				p.Reload()
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	for _, p := range l.plugins {
		for _, path := range p.WatchPaths() {
			owners[filepath.Clean(path)] = append(owners[filepath.Clean(path)], p)
			if err := w.AddRoot(path); err != nil {
				log.Warn("failed to watch path", "plugin", p.Name(), "path", path, "error", err)
			}
		}
	}

	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

func (l *Launcher) Close() error {
	var errs []error
	for _, p := range l.plugins {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
