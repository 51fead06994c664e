package hook

import (
	"fmt"
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
	log "github.com/sirupsen/logrus"

	"trigger-engine/src/trigger"
)

// gohook passes libuiohook event types through unchanged: KeyDown (4) is a
// key press, MouseDown (7) a button press and MouseHold (8) a button release.
// KeyHold (typed, 3) and MouseUp (clicked, 6) duplicate those and are ignored.
func translate(ev gohook.Event) (Event, bool) {
	out := Event{When: ev.When, X: int(ev.X), Y: int(ev.Y)}
	if out.When.IsZero() {
		out.When = time.Now()
	}
	switch ev.Kind {
	case gohook.KeyDown:
		out.Kind = KeyDown
		out.Key = trigger.Key(ev.Keycode)
	case gohook.KeyUp:
		out.Kind = KeyUp
		out.Key = trigger.Key(ev.Keycode)
	case gohook.MouseDown:
		out.Kind = MouseDown
		out.Button = trigger.Button(ev.Button)
	case gohook.MouseHold:
		out.Kind = MouseUp
		out.Button = trigger.Button(ev.Button)
	case gohook.MouseMove, gohook.MouseDrag:
		// libuiohook reports motion with a button held as a drag.
		out.Kind = MouseMove
	default:
		return Event{}, false
	}
	return out, true
}

// GohookSource wraps the process-wide native hook of github.com/robotn/gohook.
// The native hook is global, so only one GohookSource should exist per process.
type GohookSource struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewGohookSource returns a stopped source.
func NewGohookSource() *GohookSource { return &GohookSource{} }

func (s *GohookSource) Start() (out <-chan Event, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrAlreadyRunning
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gohook start panicked: %v", r)
		}
	}()

	log.Printf("Starting gohook event loop...")
	evChan := gohook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("gohook.Start() returned nil channel")
	}

	ch := make(chan Event, 256)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	go s.forward(evChan, ch, s.stop, s.done)
	log.Printf("gohook.Start() returned channel successfully")
	return ch, nil
}

func (s *GohookSource) forward(in chan gohook.Event, out chan<- Event, stop, done chan struct{}) {
	defer close(done)
	defer close(out)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-in:
			if !ok {
				log.Printf("gohook event channel closed")
				return
			}
			if e, ok := translate(ev); ok {
				select {
				case out <- e:
				default:
					log.Debugf("hook: dropping %s event, consumer is behind", e.Kind)
				}
			}
		}
	}
}

func (s *GohookSource) Stop() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	s.running = false
	close(s.stop)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gohook end panicked: %v", r)
		}
		<-s.done
	}()
	gohook.End()
	log.Printf("gohook event loop stopped")
	return nil
}

func (s *GohookSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
