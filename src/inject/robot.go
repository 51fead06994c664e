package inject

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"

	"trigger-engine/src/trigger"
)

// robotgo key names for the physical modifiers.
var robotModifierNames = map[trigger.Key]string{
	trigger.KeyCtrlL:  "lctrl",
	trigger.KeyCtrlR:  "rctrl",
	trigger.KeyAltL:   "lalt",
	trigger.KeyAltR:   "ralt",
	trigger.KeyShiftL: "lshift",
	trigger.KeyShiftR: "rshift",
	trigger.KeyMetaL:  "lcmd",
	trigger.KeyMetaR:  "rcmd",
}

// robotName maps a keycode to the name robotgo.KeyToggle understands.
func robotName(k trigger.Key) (string, bool) {
	if n, ok := robotModifierNames[k]; ok {
		return n, true
	}
	n := k.Name()
	if n == "" {
		return "", false
	}
	return strings.ToLower(n), true
}

// Robot injects keys through github.com/go-vgo/robotgo.
type Robot struct{}

// NewRobot returns the OS-level injector.
func NewRobot() Robot { return Robot{} }

func (Robot) Press(k trigger.Key) error { return toggle(k, "down") }

func (Robot) Release(k trigger.Key) error { return toggle(k, "up") }

func toggle(k trigger.Key, dir string) error {
	name, ok := robotName(k)
	if !ok {
		return fmt.Errorf("no robotgo name for keycode %#x", k)
	}
	if err := robotgo.KeyToggle(name, dir); err != nil {
		return fmt.Errorf("robotgo %s %s: %w", name, dir, err)
	}
	return nil
}
