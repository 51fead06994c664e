// Package health watches the global input hook and restarts it when it
// silently stops delivering events.
package health

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultIdleThreshold = 5 * time.Minute
	DefaultSettle        = 500 * time.Millisecond
)

// Hook is the restartable input hook the monitor supervises.
type Hook interface {
	Running() bool
	StartHook() error
	StopHook() error
}

// IdleProbe reports how long the OS has seen no user input. ok is false when
// the platform cannot tell.
type IdleProbe func() (idle time.Duration, ok bool)

// State of the supervised hook.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateRestarting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateRestarting:
		return "restarting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Options struct {
	Interval      time.Duration
	IdleThreshold time.Duration
	Settle        time.Duration
	// Idle defaults to SystemIdle.
	Idle IdleProbe
}

// Status is a snapshot for reporting.
type Status struct {
	State     string    `json:"state"`
	LastEvent time.Time `json:"last_event"`
	Restarts  int       `json:"restarts"`
	LastError string    `json:"last_error,omitempty"`
}

// Monitor restarts the hook when no event has arrived for IdleThreshold.
type Monitor struct {
	hook Hook
	opts Options

	lastEvent atomic.Int64

	// restartMu serializes restarts; mu guards the fields below and is never
	// held across the settle delay.
	restartMu sync.Mutex

	mu       sync.Mutex
	state    State
	restarts int
	lastErr  error
}

func New(hook Hook, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.IdleThreshold <= 0 {
		opts.IdleThreshold = DefaultIdleThreshold
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Idle == nil {
		opts.Idle = SystemIdle
	}
	m := &Monitor{hook: hook, opts: opts}
	m.Touch()
	return m
}

// Touch records that an input event arrived.
func (m *Monitor) Touch() { m.lastEvent.Store(time.Now().UnixNano()) }

// LastEvent returns when the last event arrived.
func (m *Monitor) LastEvent() time.Time { return time.Unix(0, m.lastEvent.Load()) }

// Check restarts the hook if it is running but has been silent for longer
// than the idle threshold, or if the previous restart failed. It reports
// whether a restart was attempted.
func (m *Monitor) Check(ctx context.Context, now time.Time) bool {
	if m.failed() {
		log.Warnf("health: previous hook restart failed, trying again")
		if err := m.Restart(ctx); err != nil {
			log.Errorf("health: %v", err)
		}
		return true
	}
	if !m.hook.Running() {
		return false
	}
	silent := now.Sub(m.LastEvent())
	if silent <= m.opts.IdleThreshold {
		return false
	}
	if idle, ok := m.opts.Idle(); ok && idle >= m.opts.IdleThreshold {
		log.Debugf("health: no events for %v but the user is idle for %v, leaving hook alone",
			silent.Round(time.Second), idle.Round(time.Second))
		return false
	}

	log.Warnf("health: no input events for %v, restarting hook", silent.Round(time.Second))
	if err := m.Restart(ctx); err != nil {
		log.Errorf("health: %v", err)
	}
	return true
}

// Restart stops the hook, waits for the OS to settle and starts it again,
// retrying once. Restarts are serialized.
func (m *Monitor) Restart(ctx context.Context) error {
	m.restartMu.Lock()
	defer m.restartMu.Unlock()
	m.setState(StateRestarting, nil)

	if err := m.hook.StopHook(); err != nil {
		log.Debugf("health: stopping hook: %v", err)
	}

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if !sleep(ctx, m.opts.Settle) {
			err = ctx.Err()
			break
		}
		if err = m.hook.StartHook(); err == nil {
			break
		}
		log.Warnf("health: hook start attempt %d failed: %v", attempt, err)
	}

	m.mu.Lock()
	m.restarts++
	restarts := m.restarts
	m.mu.Unlock()
	if err != nil {
		m.setState(StateFailed, err)
		return fmt.Errorf("restarting hook: %w", err)
	}
	m.setState(StateRunning, nil)
	m.Touch()
	log.Printf("health: hook restarted (restart count: %d)", restarts)
	return nil
}

func (m *Monitor) setState(state State, err error) {
	m.mu.Lock()
	m.state = state
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Monitor) failed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateFailed
}

// Run checks every Interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Check(ctx, now)
		}
	}
}

// Restarts returns how many restarts were attempted.
func (m *Monitor) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}

// Status returns a snapshot of the supervised hook.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	if state != StateRestarting && state != StateFailed {
		state = StateStopped
		if m.hook.Running() {
			state = StateRunning
		}
	}
	st := Status{State: state.String(), LastEvent: m.LastEvent(), Restarts: m.restarts}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
