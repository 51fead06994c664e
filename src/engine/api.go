package engine

import (
	log "github.com/sirupsen/logrus"

	"trigger-engine/src/chord"
	"trigger-engine/src/trigger"
)

// RegisterTrigger makes descriptor the panel trigger, replacing the previous
// one. It returns false for a malformed descriptor or a chord already owned
// by a shortcut; the previous trigger then stays active.
func (e *Engine) RegisterTrigger(descriptor string) bool {
	spec, ok := trigger.Resolve(descriptor)
	if !ok {
		log.Warnf("engine: invalid trigger descriptor %q", descriptor)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if spec.IsMouse() {
		e.reg.ClearPanel()
		e.lp.Configure(spec)
	} else {
		if err := e.reg.SetPanel(spec); err != nil {
			log.Warnf("engine: panel trigger %s rejected: %v", spec, err)
			return false
		}
		e.lp.Disable()
	}
	e.panel = spec
	e.hasPanel = true
	log.Printf("Panel trigger set to %s", spec)
	return true
}

// UnregisterTrigger removes the panel trigger if descriptor names it.
func (e *Engine) UnregisterTrigger(descriptor string) bool {
	spec, ok := trigger.Resolve(descriptor)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasPanel || e.panel != spec {
		return false
	}
	e.reg.ClearPanel()
	e.lp.Disable()
	e.panel = trigger.Spec{}
	e.hasPanel = false
	log.Printf("Panel trigger %s removed", spec)
	return true
}

// PanelTrigger returns the canonical panel trigger, or "" when none is set.
func (e *Engine) PanelTrigger() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasPanel {
		return ""
	}
	return e.panel.String()
}

// RegisterShortcutHotkey binds a keyboard chord to shortcut id, replacing the
// id's previous chord. Mouse gestures, malformed descriptors, chords owned by
// another shortcut and the panel chord are rejected.
func (e *Engine) RegisterShortcutHotkey(id, descriptor, name, icon, prompt string, model *string, temperature *float64) bool {
	err := e.reg.Register(chord.Shortcut{
		ID:          id,
		Hotkey:      descriptor,
		Name:        name,
		Icon:        icon,
		Prompt:      prompt,
		Model:       model,
		Temperature: temperature,
	})
	if err != nil {
		log.Warnf("engine: shortcut %q hotkey %q rejected: %v", id, descriptor, err)
		return false
	}
	return true
}

// UnregisterShortcutHotkey removes id's chord; unknown ids are ignored.
func (e *Engine) UnregisterShortcutHotkey(id string) {
	e.reg.Unregister(id)
}

// Shortcuts returns the registered shortcuts in registration order.
func (e *Engine) Shortcuts() []chord.Shortcut { return e.reg.Shortcuts() }

// ClearShortcuts removes every shortcut hotkey. The panel trigger is kept.
func (e *Engine) ClearShortcuts() { e.reg.Clear() }

// GetCapturedText returns the last capture and clears it.
func (e *Engine) GetCapturedText() string { return e.capturer.Take() }

// PeekCapturedText returns the last capture without clearing it.
func (e *Engine) PeekCapturedText() string { return e.capturer.Peek() }

// SetPaused stops (or resumes) recognizing triggers. The hook keeps running
// so modifier state stays accurate.
func (e *Engine) SetPaused(paused bool) {
	if e.paused.Swap(paused) == paused {
		return
	}
	if paused {
		e.lp.Cancel()
		log.Printf("Triggers paused")
	} else {
		log.Printf("Triggers resumed")
	}
}

func (e *Engine) Paused() bool { return e.paused.Load() }

// SetPanelVisible tells the engine whether the panel is on screen. While it
// is, left clicks are forwarded to a ClickObserver dispatcher.
func (e *Engine) SetPanelVisible(visible bool) { e.panelVisible.Store(visible) }

func (e *Engine) Status() Status {
	ids := e.reg.IDs()
	return Status{
		Running:      e.isRunning(),
		Paused:       e.paused.Load(),
		PanelTrigger: e.PanelTrigger(),
		PanelVisible: e.panelVisible.Load(),
		Shortcuts:    ids,
		Modifiers:    e.mods.Snapshot().String(),
		LongPress:    e.lp.State().String(),
		CaptureBusy:  e.capturer.Busy(),
		Hook:         e.mon.Status(),
	}
}
