package longpress

import (
	"sync"
	"testing"
	"time"

	"trigger-engine/src/trigger"
)

const testThreshold = 40 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	fires  []struct{ x, y int }
	starts int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnPress: func() {
			r.mu.Lock()
			r.starts++
			r.mu.Unlock()
		},
		OnFire: func(x, y int) {
			r.mu.Lock()
			r.fires = append(r.fires, struct{ x, y int }{x, y})
			r.mu.Unlock()
		},
	}
}

func (r *recorder) fireCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fires)
}

func (r *recorder) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func newDetector(t *testing.T, descriptor string) (*Detector, *recorder) {
	t.Helper()
	spec, ok := trigger.Resolve(descriptor)
	if !ok {
		t.Fatalf("Resolve(%q) failed", descriptor)
	}
	r := &recorder{}
	d := New(Options{Threshold: testThreshold}, r.callbacks())
	d.Configure(spec)
	return d, r
}

func TestLongPressFiresOnceWhileHeld(t *testing.T) {
	d, r := newDetector(t, "LongPress:Middle")

	d.ButtonDown(trigger.ButtonMiddle, 100, 100, 0)
	if r.startCount() != 1 {
		t.Fatalf("expected capture start on press, got %d", r.startCount())
	}
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 1 {
		t.Fatalf("expected exactly one fire, got %d", r.fireCount())
	}
	if d.State() != Fired {
		t.Errorf("state = %v, expected fired", d.State())
	}

	// keep holding: no second fire
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 1 {
		t.Errorf("holding longer fired again: %d fires", r.fireCount())
	}
	if r.fires[0].x != 100 || r.fires[0].y != 100 {
		t.Errorf("fired at (%d,%d), expected (100,100)", r.fires[0].x, r.fires[0].y)
	}

	d.ButtonUp(trigger.ButtonMiddle)
	if d.State() != Idle {
		t.Errorf("state after release = %v, expected idle", d.State())
	}

	// an independent cycle can fire again
	d.ButtonDown(trigger.ButtonMiddle, 10, 10, 0)
	time.Sleep(testThreshold * 2)
	d.ButtonUp(trigger.ButtonMiddle)
	if r.fireCount() != 2 {
		t.Errorf("second cycle: %d fires, expected 2", r.fireCount())
	}
}

func TestReleaseBeforeThresholdCancels(t *testing.T) {
	d, r := newDetector(t, "LongPress:Middle")
	d.ButtonDown(trigger.ButtonMiddle, 0, 0, 0)
	time.Sleep(testThreshold / 4)
	d.ButtonUp(trigger.ButtonMiddle)
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 0 {
		t.Errorf("released early but fired %d times", r.fireCount())
	}
	if r.startCount() != 1 {
		t.Errorf("capture should still have been started once, got %d", r.startCount())
	}
}

func TestMovementCancels(t *testing.T) {
	tests := []struct {
		name  string
		moves [][2]int
		fires int
	}{
		{"no movement", nil, 1},
		{"jitter within threshold", [][2]int{{103, 104}, {96, 100}, {100, 106}}, 1},
		{"exactly at threshold", [][2]int{{106, 100}}, 1},
		{"beyond threshold", [][2]int{{105, 105}}, 0},
		{"drift then return", [][2]int{{101, 101}, {120, 100}, {100, 100}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, r := newDetector(t, "LongPress:Middle")
			d.ButtonDown(trigger.ButtonMiddle, 100, 100, 0)
			for _, m := range tt.moves {
				d.Move(m[0], m[1])
			}
			time.Sleep(testThreshold * 2)
			d.ButtonUp(trigger.ButtonMiddle)
			if r.fireCount() != tt.fires {
				t.Errorf("fires = %d, expected %d", r.fireCount(), tt.fires)
			}
		})
	}
}

func TestMovementAfterFireIsIgnored(t *testing.T) {
	d, r := newDetector(t, "LongPress:Middle")
	d.ButtonDown(trigger.ButtonMiddle, 0, 0, 0)
	time.Sleep(testThreshold * 2)
	d.Move(500, 500)
	if d.State() != Fired {
		t.Errorf("state = %v, expected fired", d.State())
	}
	if r.fireCount() != 1 {
		t.Errorf("fires = %d, expected 1", r.fireCount())
	}
}

func TestExactModifierMatch(t *testing.T) {
	tests := []struct {
		descriptor string
		active     trigger.Modifiers
		fires      int
	}{
		{"LongPress:Middle", 0, 1},
		{"LongPress:Middle", trigger.Ctrl, 0},
		{"Ctrl+LongPress:Right", trigger.Ctrl, 1},
		{"Ctrl+LongPress:Right", 0, 0},
		{"Ctrl+LongPress:Right", trigger.Ctrl | trigger.Shift, 0},
		{"Ctrl+Shift+LongPress:Right", trigger.Ctrl, 0},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor+"/"+tt.active.String(), func(t *testing.T) {
			d, r := newDetector(t, tt.descriptor)
			spec, _ := d.Spec()
			d.ButtonDown(spec.Button, 0, 0, tt.active)
			time.Sleep(testThreshold * 2)
			if r.fireCount() != tt.fires {
				t.Errorf("fires = %d, expected %d", r.fireCount(), tt.fires)
			}
		})
	}
}

func TestOtherButtonsIgnored(t *testing.T) {
	d, r := newDetector(t, "LongPress:Middle")
	d.ButtonDown(trigger.ButtonLeft, 0, 0, 0)
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 0 || r.startCount() != 0 {
		t.Errorf("left button should not start a session")
	}

	d.ButtonDown(trigger.ButtonMiddle, 0, 0, 0)
	d.ButtonUp(trigger.ButtonLeft)
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 1 {
		t.Errorf("releasing another button cancelled the session")
	}
}

func TestReconfigureCancelsSession(t *testing.T) {
	d, r := newDetector(t, "LongPress:Middle")
	d.ButtonDown(trigger.ButtonMiddle, 0, 0, 0)
	spec, _ := trigger.Resolve("LongPress:Right")
	d.Configure(spec)
	time.Sleep(testThreshold * 2)
	if r.fireCount() != 0 {
		t.Errorf("timer fired after its session was destroyed")
	}

	kb, _ := trigger.Resolve("Alt+Q")
	d.Configure(kb)
	if _, ok := d.Spec(); ok {
		t.Errorf("a keyboard spec must not enable the long-press detector")
	}
}
