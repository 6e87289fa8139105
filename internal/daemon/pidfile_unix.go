//go:build unix

package daemon

import "syscall"

// Signal 0 checks for existence without delivering anything.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
