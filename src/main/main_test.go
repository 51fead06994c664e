package main

import (
	"testing"
	"time"

	"trigger-engine/src/capture"
	"trigger-engine/src/config"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"trigger-engine", "-env", "/tmp/.env", "-no-tray"},
			out:  []string{"trigger-engine", "--env", "/tmp/.env", "--no-tray"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"trigger-engine", "-panel-trigger=Control+Space"},
			out:  []string{"trigger-engine", "--panel-trigger=Control+Space"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"trigger-engine", "--verbose", "-v", "-envelope"},
			out:  []string{"trigger-engine", "--verbose", "-v", "-envelope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--no-tray", "--env", "/tmp/.env", "--panel-trigger", "LongPress:Right"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.noTray {
		t.Fatal("Expected noTray=true")
	}
	if opts.envPath != "/tmp/.env" {
		t.Fatalf("Expected envPath=/tmp/.env, got %q", opts.envPath)
	}
	if opts.panelTrigger != "LongPress:Right" {
		t.Fatalf("Expected panelTrigger=LongPress:Right, got %q", opts.panelTrigger)
	}
}

func TestEngineOptionsMapsTiming(t *testing.T) {
	cfg := &config.Config{
		PanelTrigger: "Control+Space",
		Timing: config.Timing{
			LongPressThreshold:  300 * time.Millisecond,
			MaxMovement:         6,
			ActionDelay:         25 * time.Millisecond,
			SuppressDelay:       5 * time.Millisecond,
			CapturePollTimeout:  300 * time.Millisecond,
			CaptureCacheTTL:     30 * time.Second,
			HealthInterval:      30 * time.Second,
			HealthIdleThreshold: 5 * time.Minute,
			HookRestartSettle:   500 * time.Millisecond,
		},
	}
	opts := engineOptions(cfg, nil, capture.NewMemoryClipboard(""), func(any) {})

	if opts.PanelTrigger != "Control+Space" {
		t.Errorf("PanelTrigger = %q", opts.PanelTrigger)
	}
	if opts.LongPress.Threshold != 300*time.Millisecond || opts.LongPress.MaxMovement != 6 {
		t.Errorf("LongPress = %+v", opts.LongPress)
	}
	if opts.Capture.PollTimeout != 300*time.Millisecond || opts.Capture.CacheTTL != 30*time.Second {
		t.Errorf("Capture = %+v", opts.Capture)
	}
	if opts.Health.IdleThreshold != 5*time.Minute || opts.Health.Settle != 500*time.Millisecond {
		t.Errorf("Health = %+v", opts.Health)
	}
	if opts.Source == nil || opts.Injector == nil || opts.Health.Idle == nil || opts.OnCrash == nil {
		t.Errorf("platform pieces not wired: %+v", opts)
	}
}

type fakeRegistrar struct {
	ids []string
}

func (f *fakeRegistrar) RegisterShortcutHotkey(id, descriptor, name, icon, prompt string, model *string, temperature *float64) bool {
	if descriptor == "" {
		return false
	}
	f.ids = append(f.ids, id)
	return true
}

func TestRegisterShortcutsSkipsRejected(t *testing.T) {
	reg := &fakeRegistrar{}
	got := registerShortcuts(reg, []config.Shortcut{
		{ID: "a", Hotkey: "Alt+Q"},
		{ID: "b", Hotkey: ""},
		{ID: "c", Hotkey: "Control+Shift+E"},
	})
	if got != 2 {
		t.Errorf("registerShortcuts() = %d, expected 2", got)
	}
	if len(reg.ids) != 2 || reg.ids[0] != "a" || reg.ids[1] != "c" {
		t.Errorf("registered %v, expected [a c]", reg.ids)
	}
}
