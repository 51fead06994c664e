// Package suppress releases a fired trigger's keys so the focused
// application does not see a chord that was consumed by the engine.
package suppress

import (
	log "github.com/sirupsen/logrus"

	"trigger-engine/src/inject"
	"trigger-engine/src/trigger"
)

// Suppressor neutralizes fired chords through an Injector.
type Suppressor struct {
	inj inject.Injector
}

func New(inj inject.Injector) *Suppressor {
	return &Suppressor{inj: inj}
}

// Suppress releases key and both sides of every modifier in active.
// Safe to call more than once; failures are logged and swallowed.
func (s *Suppressor) Suppress(key trigger.Key, active trigger.Modifiers) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("suppress: panic releasing %s: %v", key.Name(), r)
		}
	}()

	keys := make([]trigger.Key, 0, 9)
	if key != 0 {
		keys = append(keys, key)
	}
	keys = append(keys, trigger.ModifierKeys(active)...)
	if err := inject.ReleaseAll(s.inj, keys); err != nil {
		log.Warnf("suppress: releasing %s with %s: %v", key.Name(), active, err)
		return
	}
	log.Debugf("suppress: released %s with %s", key.Name(), active)
}
