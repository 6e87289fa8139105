// Package files exposes files under configured roots as launchable items.
package files

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("files")

// OpenCommand opens a file with the desktop's default handler.
const OpenCommand = "xdg-open"

type File struct {
	Name string `msgpack:"name" json:"name"`
	Path string `msgpack:"path" json:"path"`
	Dir  bool   `msgpack:"dir" json:"dir,omitempty"`
}

func (f File) SortString() string       { return f.Name }
func (f File) IdentityFields() []string { return []string{f.Path} }

func (f File) Command() []string {
	return []string{OpenCommand, f.Path}
}

// Walk lists the files and directories under roots. Hidden entries and
// anything matching an exclude pattern are skipped along with their
// subtrees. Unreadable directories are reported and skipped.
func Walk(ctx context.Context, roots, exclude []string) ([]File, []error) {
	var out []File
	var errs []error

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("walk %s: %w", path, err))
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}
			rel, _ := filepath.Rel(root, path)
			if strings.HasPrefix(d.Name(), ".") || excluded(exclude, path, filepath.ToSlash(rel)) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			out = append(out, File{Name: d.Name(), Path: path, Dir: d.IsDir()})
			return nil
		})
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	log.Debug("walked roots", "roots", len(roots), "files", len(out), "errors", len(errs))
	return out, errs
}

// excluded matches patterns against both the absolute and the
// root-relative path so "**/build" and "/home/u/tmp/**" both work.
func excluded(patterns []string, abs, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.PathMatch(pattern, abs); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
