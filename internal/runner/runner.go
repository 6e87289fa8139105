// Package runner starts launched programs detached from the launcher.
package runner

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("runner")

var ErrEmptyCommand = errors.New("empty command")

// Spawn starts argv in its own session with stdio discarded and returns its
// pid. The child is reaped in the background; its exit status is only
// logged.
func Spawn(argv []string) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return 0, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", argv[0], err)
	}
	pid := cmd.Process.Pid
	log.Info("spawned process", "cmd", argv[0], "pid", pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("process exited", "cmd", argv[0], "pid", pid, "error", err)
		}
	}()
	return pid, nil
}
