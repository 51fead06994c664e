// Package inject synthesizes key presses at the OS input level.
package inject

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"

	"trigger-engine/src/trigger"
)

// Injector presses and releases physical keys.
type Injector interface {
	Press(key trigger.Key) error
	Release(key trigger.Key) error
}

// ReleaseAll releases every key and returns the joined errors. It always
// attempts every key, whatever fails first.
func ReleaseAll(inj Injector, keys []trigger.Key) error {
	var errs []error
	for _, k := range keys {
		if err := safeRelease(inj, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReleaseModifiers force-releases both sides of Ctrl, Alt, Shift and Meta.
func ReleaseModifiers(inj Injector) error {
	return ReleaseAll(inj, trigger.AllModifierKeys())
}

func safeRelease(inj Injector, k trigger.Key) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("release %#x panicked: %v", k, r)
		}
	}()
	return inj.Release(k)
}

// CopyModifier is the platform's primary shortcut modifier.
func CopyModifier() trigger.Key {
	if runtime.GOOS == "darwin" {
		return trigger.KeyMetaL
	}
	return trigger.KeyCtrlL
}

// Chord presses mod+key as discrete press/release calls separated by gap.
// The modifier is released even when pressing the key fails.
func Chord(inj Injector, mod, key trigger.Key, gap time.Duration) (err error) {
	if err := inj.Press(mod); err != nil {
		_ = safeRelease(inj, mod)
		return fmt.Errorf("press modifier: %w", err)
	}
	defer func() {
		time.Sleep(gap)
		if rerr := safeRelease(inj, mod); rerr != nil && err == nil {
			err = fmt.Errorf("release modifier: %w", rerr)
		}
	}()

	time.Sleep(gap)
	if err := inj.Press(key); err != nil {
		_ = safeRelease(inj, key)
		return fmt.Errorf("press key: %w", err)
	}
	time.Sleep(gap)
	if err := inj.Release(key); err != nil {
		log.Warnf("inject: release %#x failed: %v", key, err)
		return fmt.Errorf("release key: %w", err)
	}
	return nil
}
