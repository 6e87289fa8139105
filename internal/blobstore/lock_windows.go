//go:build windows

package blobstore

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileFailImmediately = 0x00000001
	lockfileExclusiveLock   = 0x00000002
	errorLockViolation      = syscall.Errno(33)
)

func platformLock(f *os.File, exclusive bool) error {
	flags := uintptr(lockfileFailImmediately)
	if exclusive {
		flags |= lockfileExclusiveLock
	}

	var ol syscall.Overlapped
	r1, _, err := procLockFileEx.Call(
		uintptr(syscall.Handle(f.Fd())),
		flags,
		0,
		1, 0,
		uintptr(unsafe.Pointer(&ol)),
	)
	if r1 == 0 {
		if err == errorLockViolation {
			return errWouldBlock
		}
		return fmt.Errorf("LockFileEx: %w", err)
	}
	return nil
}

func platformUnlock(f *os.File) {
	var ol syscall.Overlapped
	procUnlockFileEx.Call(
		uintptr(syscall.Handle(f.Fd())),
		0,
		1, 0,
		uintptr(unsafe.Pointer(&ol)),
	)
}
