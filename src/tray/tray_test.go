package tray

import (
	"bytes"
	"image/png"
	"testing"
)

func TestIcons(t *testing.T) {
	for name, data := range map[string][]byte{"active": Icon(), "paused": PausedIcon()} {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s icon: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != iconSize || b.Dy() != iconSize {
			t.Errorf("%s icon is %dx%d, expected %dx%d", name, b.Dx(), b.Dy(), iconSize, iconSize)
		}
	}
	if bytes.Equal(Icon(), PausedIcon()) {
		t.Errorf("paused icon should differ from the active one")
	}
}

func TestTooltip(t *testing.T) {
	tests := []struct {
		panel    string
		paused   bool
		expected string
	}{
		{"LongPress:Middle", false, "Engine - LongPress:Middle opens the panel"},
		{"LongPress:Middle", true, "Engine - paused"},
		{"", false, "Engine - no panel trigger"},
	}
	for _, tt := range tests {
		if got := Tooltip("Engine", tt.panel, tt.paused); got != tt.expected {
			t.Errorf("Tooltip(%q, %v) = %q, expected %q", tt.panel, tt.paused, got, tt.expected)
		}
	}
}
