package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

const (
	lockRetryInterval = 25 * time.Millisecond
	lockTimeout       = 5 * time.Second
)

var errWouldBlock = errors.New("lock held by another process")

// fileLock is an advisory lock on a sibling "<path>.lock" file. Loads take
// it shared and saves take it exclusive, so readers never see a half
// written blob.
type fileLock struct {
	path string
	file *os.File
}

func acquire(ctx context.Context, dbPath string, exclusive bool) (*fileLock, error) {
	path := dbPath + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	for {
		err := platformLock(f, exclusive)
		if err == nil {
			return &fileLock{path: path, file: f}, nil
		}
		if !errors.Is(err, errWouldBlock) {
			f.Close()
			return nil, fmt.Errorf("lock %s: %w: %w", path, frecency.ErrLocked, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("lock %s: %w: %w", path, frecency.ErrLocked, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// release unlocks and closes the lock file. The file itself stays on disk;
// removing it would race with a process that has it open.
func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}
	platformUnlock(l.file)
	l.file.Close()
	l.file = nil
}
