package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/daemon"
	"github.com/alucardeht/poki-launcher/internal/launcher"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the launcher daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.ForComponent("serve")

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			lc := daemon.NewLifecycle(cfg.LockPath(), cfg.PIDPath(), cfg.SocketPath)
			if err := lc.Acquire(); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer lc.Cleanup()

			l, err := launcher.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer l.Close()

			if err := l.Start(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			if cfg.Watcher.Enabled {
				w, err := l.Watch(ctx, cfg.Watcher)
				if err != nil {
					log.Warn("file watching disabled", "error", err)
				} else {
					defer w.Stop()
				}
			}

			d := daemon.New(cfg.SocketPath, l)
			log.Info("starting", "config", cfg.File, "backend", cfg.Storage.Backend, "plugins", cfg.Plugins.LoadOrder)
			return d.Serve(ctx)
		},
	}
}
