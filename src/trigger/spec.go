package trigger

import (
	"strings"
)

// Kind distinguishes mouse gestures from keyboard chords.
type Kind uint8

const (
	KeyboardChord Kind = iota + 1
	MouseLongPress
)

func (k Kind) String() string {
	switch k {
	case KeyboardChord:
		return "keyboard"
	case MouseLongPress:
		return "longpress"
	default:
		return "unknown"
	}
}

// Button is a libuiohook mouse button number.
type Button uint16

const (
	ButtonLeft    Button = 1
	ButtonRight   Button = 2
	ButtonMiddle  Button = 3
	ButtonBack    Button = 4
	ButtonForward Button = 5
)

var buttonNames = map[string]Button{
	"left":    ButtonLeft,
	"right":   ButtonRight,
	"middle":  ButtonMiddle,
	"back":    ButtonBack,
	"forward": ButtonForward,
}

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonRight:
		return "Right"
	case ButtonMiddle:
		return "Middle"
	case ButtonBack:
		return "Back"
	case ButtonForward:
		return "Forward"
	}
	return ""
}

// Modifiers is a set of logical modifier keys.
type Modifiers uint8

const (
	Ctrl Modifiers = 1 << iota
	Alt
	Shift
	Meta
)

// Has reports whether every modifier in o is in m.
func (m Modifiers) Has(o Modifiers) bool { return m&o == o }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(Ctrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(Alt) {
		parts = append(parts, "Alt")
	}
	if m.Has(Shift) {
		parts = append(parts, "Shift")
	}
	if m.Has(Meta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// modifierByName maps a descriptor token to a modifier.
func modifierByName(name string) (Modifiers, bool) {
	switch strings.ToLower(name) {
	case "ctrl", "control":
		return Ctrl, true
	case "alt", "option":
		return Alt, true
	case "shift":
		return Shift, true
	case "meta", "cmd", "command", "win", "super":
		return Meta, true
	}
	return 0, false
}

const longPressPrefix = "longpress:"

// Spec is a resolved trigger descriptor. The zero value is not a valid trigger.
type Spec struct {
	Kind      Kind
	Button    Button
	Key       Key
	Modifiers Modifiers
}

// IsMouse reports whether s is a long-press gesture.
func (s Spec) IsMouse() bool { return s.Kind == MouseLongPress }

// String renders the canonical descriptor, e.g. "Ctrl+Alt+Q" or "Ctrl+LongPress:Right".
func (s Spec) String() string {
	var last string
	switch s.Kind {
	case MouseLongPress:
		last = "LongPress:" + s.Button.String()
	case KeyboardChord:
		last = s.Key.Name()
	default:
		return ""
	}
	if s.Modifiers == 0 {
		return last
	}
	return s.Modifiers.String() + "+" + last
}

// Resolve parses a trigger descriptor such as "LongPress:Middle",
// "Ctrl+LongPress:Right" or "Alt+Q". Unknown buttons, keys or modifiers
// yield false; it never panics.
func Resolve(descriptor string) (Spec, bool) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return Spec{}, false
	}
	parts := strings.Split(descriptor, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Spec{}, false
		}
	}

	for i, part := range parts {
		if strings.HasPrefix(strings.ToLower(part), longPressPrefix) {
			return resolveLongPress(parts, i)
		}
	}
	return resolveChord(parts)
}

func resolveLongPress(parts []string, at int) (Spec, bool) {
	button, ok := buttonNames[strings.ToLower(strings.TrimSpace(parts[at][len(longPressPrefix):]))]
	if !ok {
		return Spec{}, false
	}
	spec := Spec{Kind: MouseLongPress, Button: button}
	for i, part := range parts {
		if i == at {
			continue
		}
		mod, ok := modifierByName(part)
		if !ok {
			return Spec{}, false
		}
		spec.Modifiers |= mod
	}
	return spec, true
}

func resolveChord(parts []string) (Spec, bool) {
	key, ok := KeyByName(parts[len(parts)-1])
	if !ok {
		return Spec{}, false
	}
	spec := Spec{Kind: KeyboardChord, Key: key}
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierByName(part)
		if !ok {
			return Spec{}, false
		}
		spec.Modifiers |= mod
	}
	return spec, true
}
