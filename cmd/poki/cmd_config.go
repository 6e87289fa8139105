package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.File != "" {
				fmt.Printf("# loaded from %s\n", cfg.File)
			}
			out, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
}
