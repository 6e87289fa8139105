package apps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("apps")

const entryPattern = "**/*.desktop"

// DefaultPaths are the directories desktop entries are installed to.
var DefaultPaths = []string{
	"/usr/share/applications",
	"~/.local/share/applications",
	"/var/lib/snapd/desktop/applications",
	"/var/lib/flatpak/exports/share/applications",
}

// Scan parses every desktop entry under dirs. Missing directories are
// skipped; unreadable or invalid entries are returned as errors next to the
// apps that parsed. The result is sorted and has no duplicate identities.
func Scan(ctx context.Context, dirs []string) ([]App, []error) {
	var apps []App
	var errs []error

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug("skipping missing app dir", "dir", dir)
				continue
			}
			errs = append(errs, fmt.Errorf("scan %s: %w", dir, err))
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(dir), entryPattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", dir, err))
			continue
		}

		for _, rel := range matches {
			if err := ctx.Err(); err != nil {
				return apps, append(errs, err)
			}
			app, err := ParseEntryFile(filepath.Join(dir, rel))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if app != nil {
				apps = append(apps, *app)
			}
		}
	}

	slices.SortFunc(apps, compareApps)
	apps = slices.CompactFunc(apps, func(a, b App) bool {
		return compareApps(a, b) == 0
	})
	return apps, errs
}
