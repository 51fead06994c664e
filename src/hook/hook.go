package hook

import (
	"errors"
	"time"

	"trigger-engine/src/trigger"
)

var (
	ErrAlreadyRunning = errors.New("hook already running")
	ErrNotRunning     = errors.New("hook not running")
)

// Kind is the type of a raw input event.
type Kind uint8

const (
	KeyDown Kind = iota + 1
	KeyUp
	MouseDown
	MouseUp
	MouseMove
)

func (k Kind) String() string {
	switch k {
	case KeyDown:
		return "keydown"
	case KeyUp:
		return "keyup"
	case MouseDown:
		return "mousedown"
	case MouseUp:
		return "mouseup"
	case MouseMove:
		return "mousemove"
	}
	return "unknown"
}

// Event is one raw global input event.
type Event struct {
	Kind   Kind
	When   time.Time
	Key    trigger.Key
	Button trigger.Button
	X, Y   int
}

// Source delivers global input events. Start returns a channel that is
// closed when the source is stopped. A stopped source can be started again.
type Source interface {
	Start() (<-chan Event, error)
	Stop() error
	Running() bool
}
