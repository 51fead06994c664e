package trigger

import "strings"

// Key is a libuiohook virtual keycode, the code space gohook reports in Event.Keycode.
type Key uint16

// Modifier keycodes. Left and right variants map to the same logical modifier.
const (
	KeyShiftL Key = 0x002A
	KeyShiftR Key = 0x0036
	KeyCtrlL  Key = 0x001D
	KeyCtrlR  Key = 0x0E1D
	KeyAltL   Key = 0x0038
	KeyAltR   Key = 0x0E38
	KeyMetaL  Key = 0x0E5B
	KeyMetaR  Key = 0x0E5C
)

// KeyC is used for the synthetic copy chord.
const KeyC Key = 0x002E

var keyNames = map[string]Key{
	// Letter keys
	"a": 0x1E, "b": 0x30, "c": 0x2E, "d": 0x20, "e": 0x12, "f": 0x21, "g": 0x22,
	"h": 0x23, "i": 0x17, "j": 0x24, "k": 0x25, "l": 0x26, "m": 0x32, "n": 0x31,
	"o": 0x18, "p": 0x19, "q": 0x10, "r": 0x13, "s": 0x1F, "t": 0x14, "u": 0x16,
	"v": 0x2F, "w": 0x11, "x": 0x2D, "y": 0x15, "z": 0x2C,

	// Number row
	"1": 0x02, "2": 0x03, "3": 0x04, "4": 0x05, "5": 0x06,
	"6": 0x07, "7": 0x08, "8": 0x09, "9": 0x0A, "0": 0x0B,

	// Function keys (F1-F24)
	"f1": 0x3B, "f2": 0x3C, "f3": 0x3D, "f4": 0x3E, "f5": 0x3F, "f6": 0x40,
	"f7": 0x41, "f8": 0x42, "f9": 0x43, "f10": 0x44, "f11": 0x57, "f12": 0x58,
	"f13": 0x5B, "f14": 0x5C, "f15": 0x5D, "f16": 0x63, "f17": 0x64, "f18": 0x65,
	"f19": 0x66, "f20": 0x67, "f21": 0x68, "f22": 0x69, "f23": 0x6A, "f24": 0x6B,

	// Common special keys
	"space":     0x39,
	"enter":     0x1C,
	"esc":       0x01,
	"backspace": 0x0E,
	"tab":       0x0F,
	"delete":    0x0E53,
	"insert":    0x0E52,
	"home":      0x0E47,
	"end":       0x0E4F,
	"pageup":    0x0E49,
	"pagedown":  0x0E51,

	// Arrow keys
	"up":    0xE048,
	"down":  0xE050,
	"left":  0xE04B,
	"right": 0xE04D,
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// display names used by Spec.String; keys not listed here are upper-cased.
var keyDisplay = map[string]string{
	"space":     "Space",
	"enter":     "Enter",
	"esc":       "Esc",
	"backspace": "Backspace",
	"tab":       "Tab",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
}

var keyCanonical = func() map[Key]string {
	m := make(map[Key]string, len(keyNames))
	for name, code := range keyNames {
		m[code] = name
	}
	return m
}()

// KeyByName maps a key name like "Q", "F13" or "PageUp" to its keycode.
// Modifier names are not keys and return false.
func KeyByName(name string) (Key, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := keyAliases[n]; ok {
		n = alias
	}
	k, ok := keyNames[n]
	return k, ok
}

// Name returns the display name of a key, or "" for codes outside the table.
func (k Key) Name() string {
	n, ok := keyCanonical[k]
	if !ok {
		return ""
	}
	if d, ok := keyDisplay[n]; ok {
		return d
	}
	return strings.ToUpper(n)
}

// ModifierOf reports which logical modifier a keycode belongs to.
func ModifierOf(k Key) (Modifiers, bool) {
	switch k {
	case KeyCtrlL, KeyCtrlR:
		return Ctrl, true
	case KeyAltL, KeyAltR:
		return Alt, true
	case KeyShiftL, KeyShiftR:
		return Shift, true
	case KeyMetaL, KeyMetaR:
		return Meta, true
	}
	return 0, false
}

// ModifierKeys returns both physical keys of every modifier in m, left first.
func ModifierKeys(m Modifiers) []Key {
	var keys []Key
	if m.Has(Ctrl) {
		keys = append(keys, KeyCtrlL, KeyCtrlR)
	}
	if m.Has(Alt) {
		keys = append(keys, KeyAltL, KeyAltR)
	}
	if m.Has(Shift) {
		keys = append(keys, KeyShiftL, KeyShiftR)
	}
	if m.Has(Meta) {
		keys = append(keys, KeyMetaL, KeyMetaR)
	}
	return keys
}

// AllModifierKeys lists every physical modifier key.
func AllModifierKeys() []Key {
	return ModifierKeys(Ctrl | Alt | Shift | Meta)
}
