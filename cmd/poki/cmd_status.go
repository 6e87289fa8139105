package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/poki-launcher/internal/daemon"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			lc := daemon.NewLifecycle(cfg.LockPath(), cfg.PIDPath(), cfg.SocketPath)
			st := lc.Status(cmd.Context())

			if jsonOutput {
				return printJSON(st)
			}
			switch {
			case st.Running && st.Responsive:
				fmt.Printf("running (pid %d) on %s\n", st.PID, st.Socket)
			case st.Running:
				fmt.Printf("pid %d is alive but %s does not answer\n", st.PID, st.Socket)
			case st.Responsive:
				fmt.Printf("running on %s\n", st.Socket)
			default:
				fmt.Println("not running")
			}
			return nil
		},
	}
}
