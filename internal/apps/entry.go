package apps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const entrySection = "Desktop Entry"

// EntryError reports a desktop entry that could not be turned into an App.
type EntryError struct {
	Path   string
	Reason string
	Err    error
}

func (e *EntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("desktop entry %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("desktop entry %s: %s", e.Path, e.Reason)
}

func (e *EntryError) Unwrap() error { return e.Err }

// ParseEntryFile parses the desktop entry at path. It returns nil, nil for
// entries marked NoDisplay or Hidden.
func ParseEntryFile(path string) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &EntryError{Path: path, Reason: "read", Err: err}
	}
	text, err := decodeEntry(data)
	if err != nil {
		return nil, &EntryError{Path: path, Reason: "decode", Err: err}
	}
	return ParseEntry(path, text)
}

// ParseEntry parses desktop entry text. path is only used in errors.
func ParseEntry(path, text string) (*App, error) {
	props, err := entryProps(text)
	if err != nil {
		return nil, &EntryError{Path: path, Reason: err.Error()}
	}

	for _, key := range []string{"NoDisplay", "Hidden"} {
		set, err := boolProp(props, key)
		if err != nil {
			return nil, &EntryError{Path: path, Reason: err.Error()}
		}
		if set {
			return nil, nil
		}
	}

	name := props["Name"]
	if name == "" {
		return nil, &EntryError{Path: path, Reason: "missing Name"}
	}
	exec := stripFieldCodes(props["Exec"])
	if exec == "" {
		return nil, &EntryError{Path: path, Reason: "missing Exec"}
	}
	terminal, err := boolProp(props, "Terminal")
	if err != nil {
		return nil, &EntryError{Path: path, Reason: err.Error()}
	}

	return &App{
		Name:     name,
		Exec:     exec,
		Icon:     props["Icon"],
		Terminal: terminal,
	}, nil
}

// entryProps collects the unlocalised keys of the [Desktop Entry] group.
// The first occurrence of a key wins.
func entryProps(text string) (map[string]string, error) {
	props := map[string]string{}
	found := false
	inSection := false

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = line[1:len(line)-1] == entrySection
			found = found || inSection
			continue
		}
		if !inSection {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if strings.Contains(key, "[") {
			continue
		}
		if _, dup := props[key]; !dup {
			props[key] = strings.TrimSpace(value)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("missing [%s] section", entrySection)
	}
	return props, nil
}

func boolProp(props map[string]string, key string) (bool, error) {
	value, ok := props[key]
	if !ok {
		return false, nil
	}
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("property %s has invalid value %s", key, strconv.Quote(value))
}

// stripFieldCodes drops %f, %U and friends from an Exec line.
func stripFieldCodes(exec string) string {
	fields := strings.Fields(exec)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "%") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
