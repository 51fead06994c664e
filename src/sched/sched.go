// Package sched provides cancellable timer handles and a group that owns them.
package sched

import (
	"sync"
	"time"
)

// Handle is a one-shot timer. Once Stop returns true the callback will not run;
// once the callback has started Stop returns false.
type Handle struct {
	mu      sync.Mutex
	t       *time.Timer
	done    bool
	release func()
}

// After runs fn on its own goroutine after d unless the handle is stopped first.
func After(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.t = time.AfterFunc(d, func() {
		if !h.claim() {
			return
		}
		fn()
	})
	return h
}

// claim marks the handle finished; only the first caller wins.
func (h *Handle) claim() bool {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return false
	}
	h.done = true
	release := h.release
	h.mu.Unlock()
	if release != nil {
		release()
	}
	return true
}

// Stop cancels the timer and reports whether the callback was prevented.
func (h *Handle) Stop() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	t := h.t
	h.mu.Unlock()
	if !h.claim() {
		return false
	}
	t.Stop()
	return true
}

// Group owns handles so they can be cancelled together.
type Group struct {
	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

// After schedules fn and tracks the handle until it fires or is stopped.
// After Close it schedules nothing and returns nil.
func (g *Group) After(d time.Duration, fn func()) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	if g.handles == nil {
		g.handles = map[*Handle]struct{}{}
	}
	h := After(d, fn)
	h.mu.Lock()
	h.release = func() { g.forget(h) }
	fired := h.done
	h.mu.Unlock()
	if !fired {
		g.handles[h] = struct{}{}
	}
	return h
}

func (g *Group) forget(h *Handle) {
	g.mu.Lock()
	delete(g.handles, h)
	g.mu.Unlock()
}

// Pending reports how many handles have neither fired nor been stopped.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// StopAll cancels every pending handle; the group stays usable.
func (g *Group) StopAll() {
	g.mu.Lock()
	handles := make([]*Handle, 0, len(g.handles))
	for h := range g.handles {
		handles = append(handles, h)
	}
	g.mu.Unlock()
	for _, h := range handles {
		h.Stop()
	}
}

// Close stops every pending handle and refuses new ones.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.StopAll()
}

// Reopen lets a closed group schedule again.
func (g *Group) Reopen() {
	g.mu.Lock()
	g.closed = false
	g.mu.Unlock()
}
