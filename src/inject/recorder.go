package inject

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"trigger-engine/src/trigger"
)

// Step is one recorded injector call.
type Step struct {
	Key  trigger.Key
	Down bool
}

func (s Step) String() string {
	dir := "up"
	if s.Down {
		dir = "down"
	}
	return fmt.Sprintf("%s:%s", s.Key.Name(), dir)
}

// Recorder is an Injector that models which keys are logically down.
// Optional hooks let tests react to presses (e.g. to fake a copy).
type Recorder struct {
	mu      sync.Mutex
	down    map[trigger.Key]bool
	steps   []Step
	failOn  map[trigger.Key]bool
	OnPress func(key trigger.Key, down []trigger.Key)
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{down: map[trigger.Key]bool{}, failOn: map[trigger.Key]bool{}}
}

// FailPress makes pressing key return an error.
func (r *Recorder) FailPress(key trigger.Key) {
	r.mu.Lock()
	r.failOn[key] = true
	r.mu.Unlock()
}

func (r *Recorder) Press(key trigger.Key) error {
	r.mu.Lock()
	if r.failOn[key] {
		r.mu.Unlock()
		return errors.New("recorder: press refused")
	}
	r.down[key] = true
	r.steps = append(r.steps, Step{Key: key, Down: true})
	hook := r.OnPress
	down := r.downLocked()
	r.mu.Unlock()

	if hook != nil {
		hook(key, down)
	}
	return nil
}

func (r *Recorder) Release(key trigger.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.down, key)
	r.steps = append(r.steps, Step{Key: key})
	return nil
}

// Down lists the keys currently held, sorted by code.
func (r *Recorder) Down() []trigger.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.downLocked()
}

func (r *Recorder) downLocked() []trigger.Key {
	keys := make([]trigger.Key, 0, len(r.down))
	for k := range r.down {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Steps returns a copy of every recorded call.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Released reports whether key was released at least once.
func (r *Recorder) Released(key trigger.Key) bool {
	for _, s := range r.Steps() {
		if s.Key == key && !s.Down {
			return true
		}
	}
	return false
}

// Reset forgets recorded steps and held keys.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = map[trigger.Key]bool{}
	r.steps = nil
}
