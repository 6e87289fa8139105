package daemon

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrLockHeld   = errors.New("daemon already running (lock held)")
	ErrNotRunning = errors.New("daemon not running")
)

// LockFile is the single-instance lock. It is held for the lifetime of the
// daemon and released by the kernel if the process dies.
type LockFile struct {
	path string
	file *os.File
}

func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

func (l *LockFile) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := platformLock(f); err != nil {
		f.Close()
		return err
	}
	l.file = f
	return nil
}

func (l *LockFile) Release() error {
	if l.file == nil {
		return nil
	}
	platformUnlock(l.file)
	err := l.file.Close()
	l.file = nil
	os.Remove(l.path)
	return err
}

func (l *LockFile) IsLocked() bool {
	return l.file != nil
}

func (l *LockFile) Path() string {
	return l.path
}
