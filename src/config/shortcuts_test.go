package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeShortcuts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shortcuts.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadShortcuts(t *testing.T) {
	path := writeShortcuts(t, `
[[shortcut]]
id = "translate"
hotkey = "Alt+T"
name = "Translate"
icon = "🌐"
prompt = "Translate to English"
model = "gpt-4o-mini"
temperature = 0.3

[[shortcut]]
id = "summarize"
hotkey = "Alt+S"
name = "Summarize"
prompt = "Summarize:"
`)
	got, err := LoadShortcuts(path)
	if err != nil {
		t.Fatalf("LoadShortcuts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d shortcuts, expected 2", len(got))
	}
	if got[0].ID != "translate" || got[0].Hotkey != "Alt+T" || got[0].Icon != "🌐" {
		t.Errorf("first shortcut = %+v", got[0])
	}
	if got[0].Model == nil || *got[0].Model != "gpt-4o-mini" {
		t.Errorf("model not decoded: %v", got[0].Model)
	}
	if got[0].Temperature == nil || *got[0].Temperature != 0.3 {
		t.Errorf("temperature not decoded: %v", got[0].Temperature)
	}
	if got[1].Model != nil || got[1].Temperature != nil {
		t.Errorf("absent optional fields should stay nil: %+v", got[1])
	}
}

func TestLoadShortcutsRejects(t *testing.T) {
	tests := []struct {
		name, content, expected string
	}{
		{"missing id", "[[shortcut]]\nhotkey = \"Alt+T\"\n", "no id"},
		{"duplicate id", "[[shortcut]]\nid = \"a\"\n[[shortcut]]\nid = \"a\"\n", "duplicate"},
		{"unknown key", "[[shortcut]]\nid = \"a\"\ncolour = \"red\"\n", "unknown keys"},
		{"bad toml", "[[shortcut]\n", "reading shortcuts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadShortcuts(writeShortcuts(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("got error %v, expected one containing %q", err, tt.expected)
			}
		})
	}
}
