package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/config"
	"github.com/alucardeht/poki-launcher/internal/daemon"
	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/launcher"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

var (
	cfg        *config.Config
	configPath string
	local      bool
	jsonOutput bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:           "poki",
		Short:         "Frecency ranked application and file launcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			level, err := logger.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logCfg := logger.DefaultConfig()
			logCfg.Level = level
			logCfg.Format = cfg.Log.Format
			logger.Init(logCfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/poki-launcher/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&local, "local", false, "open the databases directly instead of asking the daemon")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		serveCmd(),
		searchCmd(),
		launchCmd(),
		rescanCmd(),
		reloadCmd(),
		showCmd(),
		statsCmd(),
		statusCmd(),
		configCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "poki:", err)
		os.Exit(1)
	}
}

// backend is served both by the daemon client and by a launcher opened in
// this process.
type backend interface {
	Search(ctx context.Context, input string, limit int) ([]launcher.Entry, error)
	Launch(ctx context.Context, plugin string, id frecency.ID) error
	Rescan(ctx context.Context) (map[string]frecency.MergeStats, error)
}

func withBackend(ctx context.Context, fn func(backend) error) error {
	if local {
		return withLauncher(ctx, func(l *launcher.Launcher) error { return fn(l) })
	}
	return withClient(ctx, func(c *daemon.Client) error { return fn(c) })
}

// withClient runs fn against the daemon.
func withClient(ctx context.Context, fn func(*daemon.Client) error) error {
	c, err := daemon.Dial(ctx, cfg.SocketPath)
	if err != nil {
		if errors.Is(err, daemon.ErrNotRunning) {
			return fmt.Errorf("%w (start it with `poki serve` or pass --local)", err)
		}
		return err
	}
	defer c.Close()
	return fn(c)
}

// withLauncher opens the plugin databases in this process.
func withLauncher(ctx context.Context, fn func(*launcher.Launcher) error) error {
	l, err := launcher.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
