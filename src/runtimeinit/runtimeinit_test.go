package runtimeinit

import (
	"os"
	"path/filepath"
	"testing"

	"trigger-engine/src/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBootstrapLoadsShortcutsBesideEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	writeFile(t, env, "PANEL_TRIGGER=Control+Space\n")
	writeFile(t, filepath.Join(dir, "shortcuts.toml"), `
[[shortcut]]
id = "fix"
hotkey = "Alt+Q"
name = "Fix grammar"
`)
	t.Setenv("PANEL_TRIGGER", "")
	os.Unsetenv("PANEL_TRIGGER")
	t.Setenv("SHORTCUTS_FILE", "")

	rt, err := Bootstrap(Options{LoadOptions: config.LoadOptions{EnvPathOverride: env}, SkipClipboard: true})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer rt.Close()

	if rt.Config.PanelTrigger != "Control+Space" {
		t.Errorf("PanelTrigger = %q, expected %q", rt.Config.PanelTrigger, "Control+Space")
	}
	if len(rt.Shortcuts) != 1 || rt.Shortcuts[0].ID != "fix" {
		t.Errorf("Shortcuts = %+v, expected the one entry from the file", rt.Shortcuts)
	}
	if rt.Clipboard != nil {
		t.Errorf("clipboard initialized although skipped")
	}
}

func TestLoadShortcuts(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[[shortcut]]\nhotkey = \"Alt+Q\"\n")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"no path", "", false},
		{"missing file", filepath.Join(dir, "missing.toml"), false},
		{"invalid file", bad, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadShortcuts(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadShortcuts(%q) error = %v, expected error %v", tt.path, err, tt.wantErr)
			}
			if len(got) != 0 {
				t.Errorf("got %d shortcuts, expected none", len(got))
			}
		})
	}
}
