package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/launcher"
)

func searchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Rank items matching a query; start it with the files prefix to search files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := strings.Join(args, " ")

			var entries []launcher.Entry
			err := withBackend(ctx, func(b backend) error {
				var err error
				entries, err = b.Search(ctx, input, limit)
				return err
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if jsonOutput {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No results found.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Plugin, e.ID, e.Name, e.Detail)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max results (default search.max_results)")
	return cmd
}
