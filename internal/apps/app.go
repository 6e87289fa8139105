// Package apps turns freedesktop desktop entries into launchable items.
package apps

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNoTerminal = errors.New("app needs a terminal but none is configured")

// App is a launchable application parsed from a desktop entry.
type App struct {
	Name     string `msgpack:"name" json:"name"`
	Exec     string `msgpack:"exec" json:"exec"`
	Icon     string `msgpack:"icon" json:"icon,omitempty"`
	Terminal bool   `msgpack:"terminal" json:"terminal,omitempty"`
}

func (a App) SortString() string { return a.Name }

// IdentityFields leaves out Terminal: flipping it in an entry should not
// reset the app's score.
func (a App) IdentityFields() []string { return []string{a.Name, a.Exec, a.Icon} }

func (a App) String() string { return a.Name }

func compareApps(a, b App) int {
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Exec, b.Exec),
		cmp.Compare(a.Icon, b.Icon),
	)
}

// Command builds the argv that starts the app. Terminal apps are wrapped in
// termCmd, falling back to $TERMINAL, as "<term> -e <exec...>".
func (a App) Command(termCmd string) ([]string, error) {
	args := strings.Fields(a.Exec)
	if len(args) == 0 {
		return nil, fmt.Errorf("app %q has an empty Exec", a.Name)
	}
	if !a.Terminal {
		return args, nil
	}

	if termCmd == "" {
		termCmd = os.Getenv("TERMINAL")
	}
	term := strings.Fields(termCmd)
	if len(term) == 0 {
		return nil, fmt.Errorf("app %q: %w", a.Name, ErrNoTerminal)
	}
	argv := append(term, "-e")
	return append(argv, args...), nil
}
