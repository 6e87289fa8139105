package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Change is a flushed batch attributed to the watched root it happened
// under.
type Change struct {
	Root   string
	Events []FileEvent
}

// groupByRoot attributes each event to every root containing it, so
// nested roots all see a change below the innermost one. Events outside
// every root are dropped.
func groupByRoot(roots []string, events []FileEvent) []Change {
	byRoot := map[string][]FileEvent{}
	var order []string
	for _, ev := range events {
		for _, root := range roots {
			if !within(root, ev.Path) {
				continue
			}
			if _, seen := byRoot[root]; !seen {
				order = append(order, root)
			}
			byRoot[root] = append(byRoot[root], ev)
		}
	}

	changes := make([]Change, 0, len(order))
	for _, root := range order {
		changes = append(changes, Change{Root: root, Events: byRoot[root]})
	}
	return changes
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
