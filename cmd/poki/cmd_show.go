package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/daemon"
)

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Bring up the running launcher's window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withClient(ctx, func(c *daemon.Client) error {
				shown, err := c.Show(ctx)
				if err != nil {
					return fmt.Errorf("show: %w", err)
				}
				if !shown {
					fmt.Println("daemon is running headless")
				}
				return nil
			})
		},
	}
}
