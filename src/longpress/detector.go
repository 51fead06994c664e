// Package longpress recognizes a mouse button held still for a threshold.
package longpress

import (
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"trigger-engine/src/sched"
	"trigger-engine/src/trigger"
)

const (
	DefaultThreshold   = 300 * time.Millisecond
	DefaultMaxMovement = 6.0
)

// State of the gesture state machine.
type State uint8

const (
	Idle State = iota
	Pressed
	Fired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Fired:
		return "fired"
	}
	return "unknown"
}

// Callbacks are invoked synchronously; they must return quickly.
type Callbacks struct {
	// OnPress runs when a qualifying press starts a session.
	OnPress func()
	// OnFire runs once per session when the threshold elapses.
	OnFire func(x, y int)
}

type Options struct {
	Threshold   time.Duration
	MaxMovement float64
}

// session is one qualifying press. It owns its timer.
type session struct {
	start  time.Time
	x, y   int
	button trigger.Button
	timer  *sched.Handle
}

// Detector is the long-press state machine for one configured trigger.
type Detector struct {
	mu      sync.Mutex
	spec    trigger.Spec
	enabled bool
	opts    Options
	cb      Callbacks
	state   State
	sess    *session
}

// New returns a detector with no trigger configured.
func New(opts Options, cb Callbacks) *Detector {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MaxMovement <= 0 {
		opts.MaxMovement = DefaultMaxMovement
	}
	return &Detector{opts: opts, cb: cb}
}

// Configure replaces the trigger. Any live session is cancelled.
func (d *Detector) Configure(spec trigger.Spec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endLocked()
	d.spec = spec
	d.enabled = spec.IsMouse()
}

// Disable removes the trigger and cancels any live session.
func (d *Detector) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endLocked()
	d.enabled = false
}

// Spec returns the configured trigger and whether one is set.
func (d *Detector) Spec() (trigger.Spec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spec, d.enabled
}

// State returns the current state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ButtonDown starts a session when button and the exact modifier set match.
func (d *Detector) ButtonDown(button trigger.Button, x, y int, active trigger.Modifiers) {
	d.mu.Lock()
	if !d.enabled || button != d.spec.Button || active != d.spec.Modifiers {
		d.mu.Unlock()
		return
	}
	// a second down without an up means we missed the release
	d.endLocked()

	s := &session{start: time.Now(), x: x, y: y, button: button}
	d.sess = s
	d.state = Pressed
	s.timer = sched.After(d.opts.Threshold, func() { d.expire(s) })
	onPress := d.cb.OnPress
	d.mu.Unlock()

	if onPress != nil {
		onPress()
	}
}

// expire fires the session if it is still the live, unfired one.
func (d *Detector) expire(s *session) {
	d.mu.Lock()
	if d.sess != s || d.state != Pressed {
		d.mu.Unlock()
		return
	}
	d.state = Fired
	s.timer = nil
	onFire := d.cb.OnFire
	d.mu.Unlock()

	log.Printf("Long press threshold reached after %v, firing", time.Since(s.start).Round(time.Millisecond))
	if onFire != nil {
		onFire(s.x, s.y)
	}
}

// ButtonUp ends the session; before the threshold this cancels the gesture.
func (d *Detector) ButtonUp(button trigger.Button) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil || d.sess.button != button {
		return
	}
	d.endLocked()
}

// Move cancels a pressed session whose pointer strayed past the threshold.
func (d *Detector) Move(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil || d.state != Pressed {
		return
	}
	dist := math.Hypot(float64(x-d.sess.x), float64(y-d.sess.y))
	if dist > d.opts.MaxMovement {
		log.Debugf("Mouse moved %.2fpx, canceling long press", dist)
		d.endLocked()
	}
}

// Cancel drops any live session.
func (d *Detector) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endLocked()
}

func (d *Detector) endLocked() {
	if d.sess != nil {
		d.sess.timer.Stop()
		d.sess = nil
	}
	d.state = Idle
}
