package inject

import (
	"testing"

	"trigger-engine/src/trigger"
)

func TestChordSequence(t *testing.T) {
	r := NewRecorder()
	if err := Chord(r, trigger.KeyCtrlL, trigger.KeyC, 0); err != nil {
		t.Fatalf("chord: %v", err)
	}
	expected := []Step{
		{Key: trigger.KeyCtrlL, Down: true},
		{Key: trigger.KeyC, Down: true},
		{Key: trigger.KeyC},
		{Key: trigger.KeyCtrlL},
	}
	steps := r.Steps()
	if len(steps) != len(expected) {
		t.Fatalf("got %v, expected %v", steps, expected)
	}
	for i := range steps {
		if steps[i] != expected[i] {
			t.Errorf("step %d = %v, expected %v", i, steps[i], expected[i])
		}
	}
	if down := r.Down(); len(down) != 0 {
		t.Errorf("keys left down: %v", down)
	}
}

func TestChordReleasesModifierWhenKeyFails(t *testing.T) {
	r := NewRecorder()
	r.FailPress(trigger.KeyC)
	if err := Chord(r, trigger.KeyCtrlL, trigger.KeyC, 0); err == nil {
		t.Fatal("expected error")
	}
	if down := r.Down(); len(down) != 0 {
		t.Errorf("keys left down: %v", down)
	}
}

func TestReleaseModifiers(t *testing.T) {
	r := NewRecorder()
	_ = r.Press(trigger.KeyAltR)
	_ = r.Press(trigger.KeyShiftL)
	if err := ReleaseModifiers(r); err != nil {
		t.Fatalf("release: %v", err)
	}
	if down := r.Down(); len(down) != 0 {
		t.Errorf("keys left down: %v", down)
	}
	for _, k := range trigger.AllModifierKeys() {
		if !r.Released(k) {
			t.Errorf("modifier %#x was not released", k)
		}
	}
}

func TestRobotNames(t *testing.T) {
	tests := map[trigger.Key]string{
		trigger.KeyCtrlL: "lctrl",
		trigger.KeyMetaR: "rcmd",
		trigger.KeyC:     "c",
		0x3B:             "f1",
		0x39:             "space",
	}
	for k, expected := range tests {
		got, ok := robotName(k)
		if !ok || got != expected {
			t.Errorf("robotName(%#x) = (%q, %v), expected %q", k, got, ok, expected)
		}
	}
	if _, ok := robotName(0xFFFF); ok {
		t.Errorf("unknown keycode should have no name")
	}
}
