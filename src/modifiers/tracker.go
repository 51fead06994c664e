// Package modifiers tracks which modifier keys are physically held.
package modifiers

import (
	"sync/atomic"

	"trigger-engine/src/trigger"
)

// Tracker holds the active modifier set. Only key callbacks mutate it;
// everyone else reads Snapshot.
type Tracker struct {
	// one bit per physical key so releasing the right Ctrl while the left
	// one is still held keeps Ctrl active
	held atomic.Uint32
}

var physicalBit = func() map[trigger.Key]uint32 {
	m := map[trigger.Key]uint32{}
	for i, k := range trigger.AllModifierKeys() {
		m[k] = 1 << i
	}
	return m
}()

// KeyDown records a press and reports whether key is a modifier.
func (t *Tracker) KeyDown(key trigger.Key) bool {
	bit, ok := physicalBit[key]
	if !ok {
		return false
	}
	for {
		old := t.held.Load()
		if t.held.CompareAndSwap(old, old|bit) {
			return true
		}
	}
}

// KeyUp records a release and reports whether key is a modifier.
func (t *Tracker) KeyUp(key trigger.Key) bool {
	bit, ok := physicalBit[key]
	if !ok {
		return false
	}
	for {
		old := t.held.Load()
		if t.held.CompareAndSwap(old, old&^bit) {
			return true
		}
	}
}

// Snapshot returns the logical modifiers currently held.
func (t *Tracker) Snapshot() trigger.Modifiers {
	held := t.held.Load()
	var m trigger.Modifiers
	for k, bit := range physicalBit {
		if held&bit != 0 {
			mod, _ := trigger.ModifierOf(k)
			m |= mod
		}
	}
	return m
}

// Reset forgets every held modifier, e.g. when the hook stops and key-ups
// can no longer be observed.
func (t *Tracker) Reset() { t.held.Store(0) }
