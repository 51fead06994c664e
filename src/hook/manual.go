package hook

import (
	"errors"
	"sync"
	"time"

	"trigger-engine/src/trigger"
)

// ManualSource is a Source fed by Inject. It is used by tests and by the
// control plane to replay events without a native hook.
type ManualSource struct {
	mu      sync.Mutex
	ch      chan Event
	starts  int
	failing int
}

// NewManualSource returns a stopped source.
func NewManualSource() *ManualSource { return &ManualSource{} }

// FailNextStarts makes the next n calls to Start fail.
func (s *ManualSource) FailNextStarts(n int) {
	s.mu.Lock()
	s.failing = n
	s.mu.Unlock()
}

func (s *ManualSource) Start() (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		return nil, ErrAlreadyRunning
	}
	if s.failing > 0 {
		s.failing--
		return nil, errors.New("manual source: start refused")
	}
	s.ch = make(chan Event, 64)
	s.starts++
	return s.ch, nil
}

func (s *ManualSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return ErrNotRunning
	}
	close(s.ch)
	s.ch = nil
	return nil
}

func (s *ManualSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch != nil
}

// Starts reports how many times the source has been started.
func (s *ManualSource) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Inject delivers ev if the source is running and reports whether it was delivered.
func (s *ManualSource) Inject(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return false
	}
	if ev.When.IsZero() {
		ev.When = time.Now()
	}
	s.ch <- ev
	return true
}

func (s *ManualSource) KeyDown(k trigger.Key) bool { return s.Inject(Event{Kind: KeyDown, Key: k}) }

func (s *ManualSource) KeyUp(k trigger.Key) bool { return s.Inject(Event{Kind: KeyUp, Key: k}) }

func (s *ManualSource) ButtonDown(b trigger.Button, x, y int) bool {
	return s.Inject(Event{Kind: MouseDown, Button: b, X: x, Y: y})
}

func (s *ManualSource) ButtonUp(b trigger.Button, x, y int) bool {
	return s.Inject(Event{Kind: MouseUp, Button: b, X: x, Y: y})
}

func (s *ManualSource) Move(x, y int) bool { return s.Inject(Event{Kind: MouseMove, X: x, Y: y}) }
