package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFile records the pid of the running daemon for `poki status`.
type PIDFile struct {
	path string
}

func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Write replaces the file with the current pid. A symlink at path is
// refused rather than followed.
func (p *PIDFile) Write() error {
	if info, err := os.Lstat(p.path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("pid file %s is a symlink", p.path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create pid file: %w", err)
	}
	if _, err := tmp.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Read returns the recorded pid, or 0 when there is none.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q in %s", content, p.path)
	}
	return pid, nil
}

// Alive reports the recorded pid and whether that process still exists.
func (p *PIDFile) Alive() (int, bool) {
	pid, err := p.Read()
	if err != nil || pid == 0 {
		return 0, false
	}
	return pid, processExists(pid)
}

func (p *PIDFile) Remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
