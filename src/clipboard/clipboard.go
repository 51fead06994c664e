package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// System is the OS text clipboard. Init must succeed before use.
type System struct {
	mu sync.Mutex
}

var initOnce struct {
	sync.Once
	err error
}

// Init prepares the OS clipboard; later calls return the first result.
func Init() error {
	initOnce.Do(func() { initOnce.err = clipboard.Init() })
	return initOnce.err
}

// New initializes the clipboard and returns it.
func New() (*System, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return &System{}, nil
}

func (s *System) ReadText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// WriteText performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func (s *System) WriteText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
