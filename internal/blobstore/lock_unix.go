//go:build unix

package blobstore

import (
	"fmt"
	"os"
	"syscall"
)

func platformLock(f *os.File, exclusive bool) error {
	how := syscall.LOCK_SH
	if exclusive {
		how = syscall.LOCK_EX
	}
	if err := syscall.Flock(int(f.Fd()), how|syscall.LOCK_NB); err != nil {
		if err == syscall.EWOULDBLOCK {
			return errWouldBlock
		}
		return fmt.Errorf("flock: %w", err)
	}
	return nil
}

func platformUnlock(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
