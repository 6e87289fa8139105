package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/daemon"
	"github.com/alucardeht/poki-launcher/internal/launcher"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-plugin database and rescan statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var res daemon.StatsResult
			var err error
			if local {
				err = withLauncher(ctx, func(l *launcher.Launcher) error {
					res.Plugins, err = l.Stats(ctx)
					return err
				})
			} else {
				err = withClient(ctx, func(c *daemon.Client) error {
					res, err = c.Stats(ctx)
					return err
				})
			}
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			if jsonOutput {
				return printJSON(res)
			}
			if res.PID != 0 {
				fmt.Printf("daemon pid %d, up %s, %d connection(s)\n\n", res.PID, res.Uptime.Round(time.Second), res.Connections)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLUGIN\tBACKEND\tRECORDS\tHALF LIFE\tREFERENCE\tRESCANS\tLAST RESCAN")
			for _, p := range res.Plugins {
				last := "never"
				if !p.Rescan.LastRun.IsZero() {
					last = p.Rescan.LastRun.Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
					p.Name, p.Store.Backend, p.Store.Records, p.Store.HalfLife,
					p.Store.ReferenceTime.Local().Format(time.DateTime), p.Rescan.Runs, last)
			}
			return tw.Flush()
		},
	}
}
