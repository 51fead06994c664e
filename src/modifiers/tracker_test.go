package modifiers

import (
	"testing"

	"trigger-engine/src/trigger"
)

func TestTracker(t *testing.T) {
	var tr Tracker

	if !tr.KeyDown(trigger.KeyAltL) {
		t.Fatal("Alt should be a modifier")
	}
	if tr.KeyDown(trigger.KeyC) {
		t.Fatal("C is not a modifier")
	}
	if got := tr.Snapshot(); got != trigger.Alt {
		t.Errorf("Snapshot() = %v, expected Alt", got)
	}

	tr.KeyDown(trigger.KeyCtrlR)
	if got := tr.Snapshot(); got != trigger.Ctrl|trigger.Alt {
		t.Errorf("Snapshot() = %v, expected Ctrl+Alt", got)
	}

	tr.KeyUp(trigger.KeyAltL)
	if got := tr.Snapshot(); got != trigger.Ctrl {
		t.Errorf("Snapshot() = %v, expected Ctrl", got)
	}

	tr.Reset()
	if got := tr.Snapshot(); got != 0 {
		t.Errorf("Snapshot() after Reset = %v, expected none", got)
	}
}

func TestTrackerLeftRightVariants(t *testing.T) {
	var tr Tracker
	tr.KeyDown(trigger.KeyShiftL)
	tr.KeyDown(trigger.KeyShiftR)
	tr.KeyUp(trigger.KeyShiftR)
	if got := tr.Snapshot(); got != trigger.Shift {
		t.Errorf("Shift should stay active while the left key is held, got %v", got)
	}
	tr.KeyUp(trigger.KeyShiftL)
	if got := tr.Snapshot(); got != 0 {
		t.Errorf("Snapshot() = %v, expected none", got)
	}
}

func TestTrackerUnmatchedKeyUp(t *testing.T) {
	var tr Tracker
	tr.KeyUp(trigger.KeyMetaL)
	if got := tr.Snapshot(); got != 0 {
		t.Errorf("Snapshot() = %v, expected none", got)
	}
}
