package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Lifecycle owns the files that mark a running daemon: the instance lock,
// the pid file and the socket.
type Lifecycle struct {
	lockFile   *LockFile
	pidFile    *PIDFile
	socketPath string
}

func NewLifecycle(lockPath, pidPath, socketPath string) *Lifecycle {
	return &Lifecycle{
		lockFile:   NewLockFile(lockPath),
		pidFile:    NewPIDFile(pidPath),
		socketPath: socketPath,
	}
}

// Acquire takes the instance lock and records the pid. It fails with
// ErrLockHeld when another daemon owns the data directory.
func (lc *Lifecycle) Acquire() error {
	if err := lc.lockFile.Acquire(); err != nil {
		if errors.Is(err, ErrLockHeld) {
			if pid, _ := lc.pidFile.Read(); pid > 0 {
				return fmt.Errorf("%w by pid %d", ErrLockHeld, pid)
			}
		}
		return err
	}
	if err := lc.pidFile.Write(); err != nil {
		lc.lockFile.Release()
		return err
	}
	return nil
}

func (lc *Lifecycle) Cleanup() {
	lc.pidFile.Remove()
	lc.lockFile.Release()
}

type Status struct {
	Running    bool   `json:"running"`
	PID        int    `json:"pid,omitempty"`
	Socket     string `json:"socket"`
	Responsive bool   `json:"responsive"`
}

// Status inspects a daemon from the outside, without taking the lock.
func (lc *Lifecycle) Status(ctx context.Context) Status {
	pid, alive := lc.pidFile.Alive()
	st := Status{Socket: lc.socketPath, Running: alive}
	if alive {
		st.PID = pid
	}
	st.Responsive = lc.isSocketResponsive(ctx)
	return st
}

func (lc *Lifecycle) isSocketResponsive(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	c, err := Dial(ctx, lc.socketPath)
	if err != nil {
		return false
	}
	defer c.Close()
	_, err = c.Ping(ctx)
	return err == nil
}

// WaitForSocket polls until the daemon answers or timeout passes.
func WaitForSocket(ctx context.Context, socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, "unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %w", ErrNotRunning, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
