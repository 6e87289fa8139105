package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

func launchCmd() *cobra.Command {
	var first bool

	cmd := &cobra.Command{
		Use:   "launch <plugin> <id>",
		Short: "Launch an item and bump its score",
		Example: "  poki launch apps 3f2a9c0d11e84b57\n" +
			"  poki launch --first fire",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var plugin string
			var id frecency.ID
			if !first {
				if len(args) != 2 {
					return fmt.Errorf("launch: expected <plugin> <id>")
				}
				var err error
				plugin = args[0]
				if id, err = frecency.ParseID(args[1]); err != nil {
					return fmt.Errorf("launch: %w", err)
				}
			}

			err := withBackend(ctx, func(b backend) error {
				if first {
					query := strings.Join(args, " ")
					entries, err := b.Search(ctx, query, 1)
					if err != nil {
						return err
					}
					if len(entries) == 0 {
						return fmt.Errorf("nothing matches %q", query)
					}
					plugin, id = entries[0].Plugin, entries[0].ID
					fmt.Printf("launching %s\n", entries[0].Name)
				}
				return b.Launch(ctx, plugin, id)
			})
			if err != nil {
				return fmt.Errorf("launch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&first, "first", false, "treat the arguments as a query and launch the best match")
	return cmd
}
