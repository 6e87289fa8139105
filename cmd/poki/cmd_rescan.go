package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/daemon"
	"github.com/alucardeht/poki-launcher/internal/frecency"
)

func rescanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Rescan every plugin's sources now and wait for the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var stats map[string]frecency.MergeStats
			err := withBackend(ctx, func(b backend) error {
				var err error
				stats, err = b.Rescan(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("rescan: %w", err)
			}

			if jsonOutput {
				return printJSON(stats)
			}
			for _, name := range slices.Sorted(maps.Keys(stats)) {
				s := stats[name]
				fmt.Printf("%-8s kept=%d added=%d removed=%d\n", name, s.Kept, s.Added, s.Removed)
			}
			return nil
		},
	}
}

func reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload [plugin...]",
		Short: "Ask the daemon to rescan in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withClient(ctx, func(c *daemon.Client) error {
				if err := c.Reload(ctx, args...); err != nil {
					return fmt.Errorf("reload: %w", err)
				}
				return nil
			})
		},
	}
}
