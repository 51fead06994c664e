// Package chord matches keyboard chords against registered shortcuts and
// the panel trigger.
package chord

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"trigger-engine/src/trigger"
)

var (
	ErrInvalidDescriptor = errors.New("invalid hotkey descriptor")
	ErrMouseGesture      = errors.New("mouse gestures are not supported for shortcut hotkeys")
	ErrHotkeyTaken       = errors.New("hotkey already registered")
	ErrPanelConflict     = errors.New("hotkey is the panel trigger")
	ErrEmptyID           = errors.New("shortcut id is required")
)

// Shortcut is a registered AI shortcut hotkey.
type Shortcut struct {
	ID          string   `json:"id"`
	Hotkey      string   `json:"hotkey"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Prompt      string   `json:"prompt"`
	Model       *string  `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`

	spec trigger.Spec
}

// Trigger returns the resolved chord.
func (s Shortcut) Trigger() trigger.Spec { return s.spec }

// Match is the outcome of checking a key-down.
type Match struct {
	Shortcut *Shortcut
	Panel    bool
}

// Matched reports whether anything fired.
func (m Match) Matched() bool { return m.Shortcut != nil || m.Panel }

// Registry holds shortcut hotkeys and the panel chord. A chord has at most one owner.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*Shortcut
	bySpec   map[trigger.Spec]string
	order    []string
	panel    trigger.Spec
	hasPanel bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Shortcut{}, bySpec: map[trigger.Spec]string{}}
}

// Register adds or replaces the hotkey of shortcut s.ID.
func (r *Registry) Register(s Shortcut) error {
	if s.ID == "" {
		return ErrEmptyID
	}
	spec, ok := trigger.Resolve(s.Hotkey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDescriptor, s.Hotkey)
	}
	if spec.IsMouse() {
		return fmt.Errorf("%w: %q", ErrMouseGesture, s.Hotkey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.bySpec[spec]; taken && owner != s.ID {
		return fmt.Errorf("%w: %s is owned by shortcut %s", ErrHotkeyTaken, spec, owner)
	}
	if r.hasPanel && r.panel == spec {
		return fmt.Errorf("%w: %s", ErrPanelConflict, spec)
	}

	r.removeLocked(s.ID)
	s.spec = spec
	r.byID[s.ID] = &s
	r.bySpec[spec] = s.ID
	r.order = append(r.order, s.ID)
	log.Printf("Registered hotkey %s for shortcut %q (%s)", spec, s.Name, s.ID)
	return nil
}

// Unregister removes the hotkey of id; unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.removeLocked(id); s != nil {
		log.Printf("Unregistered hotkey %s for shortcut %s", s.spec, id)
	}
}

func (r *Registry) removeLocked(id string) *Shortcut {
	s, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.bySpec, s.spec)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s
}

// Owner returns the shortcut id owning spec, if any.
func (r *Registry) Owner(spec trigger.Spec) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySpec[spec]
	return id, ok
}

// SetPanel sets the panel chord. Mouse specs clear it; the long-press
// detector owns those.
func (r *Registry) SetPanel(spec trigger.Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if spec.IsMouse() {
		r.hasPanel = false
		r.panel = trigger.Spec{}
		return nil
	}
	if owner, taken := r.bySpec[spec]; taken {
		return fmt.Errorf("%w: %s is owned by shortcut %s", ErrHotkeyTaken, spec, owner)
	}
	r.panel = spec
	r.hasPanel = true
	return nil
}

// ClearPanel removes the panel chord.
func (r *Registry) ClearPanel() {
	r.mu.Lock()
	r.panel = trigger.Spec{}
	r.hasPanel = false
	r.mu.Unlock()
}

// Shortcuts returns registered shortcuts in registration order.
func (r *Registry) Shortcuts() []Shortcut {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Shortcut, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear removes every shortcut; the panel chord is kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = map[string]*Shortcut{}
	r.bySpec = map[trigger.Spec]string{}
	r.order = nil
	log.Printf("All shortcut hotkeys cleared")
}

// Match checks a non-modifier key-down: shortcuts first (registration order,
// first match wins), then the panel chord. Modifiers must match exactly.
func (r *Registry) Match(key trigger.Key, active trigger.Modifiers) Match {
	want := trigger.Spec{Kind: trigger.KeyboardChord, Key: key, Modifiers: active}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		s := r.byID[id]
		if s.spec == want {
			cp := *s
			return Match{Shortcut: &cp}
		}
	}
	if r.hasPanel && r.panel == want {
		return Match{Panel: true}
	}
	return Match{}
}
