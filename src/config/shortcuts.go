package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Shortcut is one [[shortcut]] table of the shortcuts file.
type Shortcut struct {
	ID          string   `toml:"id"`
	Hotkey      string   `toml:"hotkey"`
	Name        string   `toml:"name"`
	Icon        string   `toml:"icon"`
	Prompt      string   `toml:"prompt"`
	Model       *string  `toml:"model"`
	Temperature *float64 `toml:"temperature"`
}

type shortcutsFile struct {
	Shortcut []Shortcut `toml:"shortcut"`
}

// LoadShortcuts reads a TOML shortcuts file. Ids must be present and unique;
// hotkeys are validated later, when they are registered.
func LoadShortcuts(path string) ([]Shortcut, error) {
	var f shortcutsFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("reading shortcuts %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("shortcuts %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	seen := make(map[string]bool, len(f.Shortcut))
	for i, s := range f.Shortcut {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("shortcuts %s: entry %d has no id", path, i+1)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("shortcuts %s: duplicate id %q", path, s.ID)
		}
		seen[s.ID] = true
	}
	return f.Shortcut, nil
}
