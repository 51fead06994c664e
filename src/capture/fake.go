package capture

import (
	"errors"
	"sync"
)

// MemoryClipboard is an in-process Clipboard. It records every value written.
type MemoryClipboard struct {
	mu       sync.Mutex
	text     string
	history  []string
	failRead bool
}

// NewMemoryClipboard returns a clipboard holding text.
func NewMemoryClipboard(text string) *MemoryClipboard {
	return &MemoryClipboard{text: text}
}

func (m *MemoryClipboard) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead {
		return "", errors.New("memory clipboard: read refused")
	}
	return m.text, nil
}

func (m *MemoryClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.history = append(m.history, text)
	return nil
}

// FailReads makes ReadText return an error.
func (m *MemoryClipboard) FailReads(fail bool) {
	m.mu.Lock()
	m.failRead = fail
	m.mu.Unlock()
}

// History returns every value written so far.
func (m *MemoryClipboard) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
