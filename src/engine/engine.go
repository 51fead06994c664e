// Package engine owns the trigger state of one process: the input hook, the
// modifier tracker, the long-press and chord detectors, text capture,
// suppression and the health monitor. Every piece of mutable state lives on
// an Engine value; nothing is package-global.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"trigger-engine/src/capture"
	"trigger-engine/src/chord"
	"trigger-engine/src/health"
	"trigger-engine/src/hook"
	"trigger-engine/src/inject"
	"trigger-engine/src/longpress"
	"trigger-engine/src/modifiers"
	"trigger-engine/src/sched"
	"trigger-engine/src/suppress"
	"trigger-engine/src/trigger"
	"trigger-engine/src/worker"
)

const (
	DefaultPanelTrigger  = "LongPress:Middle"
	DefaultActionDelay   = 25 * time.Millisecond
	DefaultSuppressDelay = 5 * time.Millisecond

	dispatchQueue = 16
)

// Where a panel trigger came from.
const (
	SourceMouse    = "mouse"
	SourceKeyboard = "keyboard"
)

// PanelEvent asks the action layer to open the panel at X, Y.
type PanelEvent struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Source string `json:"source"`
}

// Dispatcher receives fired triggers. Calls arrive on a worker goroutine,
// one at a time, in firing order.
type Dispatcher interface {
	OnPanelTrigger(ev PanelEvent)
	OnShortcutTrigger(s chord.Shortcut)
}

// ClickObserver is optionally implemented by a Dispatcher that wants left
// clicks made while the panel is open, so it can close the panel.
type ClickObserver interface {
	OnOutsideClick(x, y int)
}

type Options struct {
	Source     hook.Source
	Injector   inject.Injector
	Clipboard  capture.Clipboard
	Dispatcher Dispatcher

	// PanelTrigger defaults to DefaultPanelTrigger. An invalid value is
	// logged and leaves the panel without a trigger.
	PanelTrigger  string
	ActionDelay   time.Duration
	SuppressDelay time.Duration
	LongPress     longpress.Options
	Capture       capture.Options
	Health        health.Options

	// OnCrash runs after the emergency teardown of a panicking goroutine.
	OnCrash func(reason any)
}

// Status is a point-in-time view for the control plane.
type Status struct {
	Running      bool          `json:"running"`
	Paused       bool          `json:"paused"`
	PanelTrigger string        `json:"panel_trigger"`
	PanelVisible bool          `json:"panel_visible"`
	Shortcuts    []string      `json:"shortcuts"`
	Modifiers    string        `json:"modifiers"`
	LongPress    string        `json:"long_press"`
	CaptureBusy  bool          `json:"capture_busy"`
	Hook         health.Status `json:"hook"`
}

type Engine struct {
	opts Options
	src  hook.Source
	inj  inject.Injector
	disp Dispatcher

	mods     modifiers.Tracker
	lp       *longpress.Detector
	reg      *chord.Registry
	capturer *capture.Capturer
	sup      *suppress.Suppressor
	mon      *health.Monitor
	timers   sched.Group

	paused       atomic.Bool
	panelVisible atomic.Bool
	pointerX     atomic.Int64
	pointerY     atomic.Int64
	// firedKey is the key of the last fired chord until its key-up, so
	// auto-repeat does not fire again.
	firedKey atomic.Uint32
	// unsuppressed is the key of a fired chord whose suppression has not run
	// yet. Stop and the crash teardown release it.
	unsuppressed atomic.Uint32

	mu       sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	pool     *worker.Pool
	panel    trigger.Spec
	hasPanel bool

	hookMu   sync.Mutex
	pumpDone chan struct{}
}

type noopDispatcher struct{}

func (noopDispatcher) OnPanelTrigger(PanelEvent)        {}
func (noopDispatcher) OnShortcutTrigger(chord.Shortcut) {}

// New builds a stopped engine. Source, Injector and Clipboard are required.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil || opts.Injector == nil || opts.Clipboard == nil {
		return nil, fmt.Errorf("engine: source, injector and clipboard are required")
	}
	if opts.ActionDelay <= 0 {
		opts.ActionDelay = DefaultActionDelay
	}
	if opts.SuppressDelay <= 0 {
		opts.SuppressDelay = DefaultSuppressDelay
	}
	if opts.PanelTrigger == "" {
		opts.PanelTrigger = DefaultPanelTrigger
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = noopDispatcher{}
	}

	e := &Engine{
		opts:     opts,
		src:      opts.Source,
		inj:      opts.Injector,
		disp:     opts.Dispatcher,
		reg:      chord.NewRegistry(),
		capturer: capture.New(opts.Clipboard, opts.Injector, opts.Capture),
		sup:      suppress.New(opts.Injector),
		ctx:      context.Background(),
	}
	e.lp = longpress.New(opts.LongPress, longpress.Callbacks{
		OnPress: e.onLongPressStart,
		OnFire:  e.onLongPressFire,
	})
	e.mon = health.New(hookControl{e}, opts.Health)

	if !e.RegisterTrigger(opts.PanelTrigger) {
		log.Warnf("engine: panel trigger %q is invalid, panel disabled", opts.PanelTrigger)
	}
	return e, nil
}

// Start starts the hook, the dispatch worker and the health monitor.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return hook.ErrAlreadyRunning
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.timers.Reopen()
	e.pool = worker.New(1, dispatchQueue, e.guard)
	if err := e.startHook(); err != nil {
		e.cancel()
		e.pool.Close()
		e.pool = nil
		return fmt.Errorf("starting input hook: %w", err)
	}
	e.running = true

	monCtx := e.ctx
	go e.guard(func() { e.mon.Run(monCtx) })
	log.Printf("Trigger engine started, panel trigger %s", e.PanelTrigger())
	return nil
}

// Run starts the engine and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	e.Stop()
	return nil
}

// Stop cancels pending actions, stops the hook and releases every modifier.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.cancel()
	pool := e.pool
	e.pool = nil
	e.mu.Unlock()

	e.timers.Close()
	e.releaseUnsuppressed()
	e.lp.Cancel()
	if err := e.stopHook(true); err != nil {
		log.Debugf("engine: stopping hook: %v", err)
	}
	if err := inject.ReleaseModifiers(e.inj); err != nil {
		log.Warnf("engine: releasing modifiers on stop: %v", err)
	}
	pool.Close()
	log.Printf("Trigger engine stopped")
}

// RestartHook stops and restarts the input hook through the health monitor.
func (e *Engine) RestartHook(ctx context.Context) error {
	if !e.isRunning() {
		return hook.ErrNotRunning
	}
	return e.mon.Restart(ctx)
}

func (e *Engine) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) context() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx
}

// guard runs fn and turns a panic into an emergency teardown.
func (e *Engine) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("engine: panic: %v\n%s", r, debug.Stack())
			e.teardown()
			if e.opts.OnCrash != nil {
				e.opts.OnCrash(r)
			}
		}
	}()
	fn()
}

// teardown leaves the OS input state clean without waiting on anything.
func (e *Engine) teardown() {
	e.timers.StopAll()
	e.releaseUnsuppressed()
	e.lp.Cancel()
	if err := e.stopHook(false); err != nil {
		log.Debugf("engine: teardown stop hook: %v", err)
	}
	if err := inject.ReleaseModifiers(e.inj); err != nil {
		log.Errorf("engine: teardown releasing modifiers: %v", err)
	}
}

// hookControl exposes the hook lifecycle to the health monitor.
type hookControl struct{ e *Engine }

func (h hookControl) Running() bool    { return h.e.src.Running() }
func (h hookControl) StartHook() error { return h.e.startHook() }
func (h hookControl) StopHook() error  { return h.e.stopHook(true) }

func (e *Engine) startHook() error {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	events, err := e.src.Start()
	if err != nil {
		return err
	}
	done := make(chan struct{})
	e.pumpDone = done
	e.mon.Touch()
	go e.pump(events, done)
	return nil
}

// stopHook stops the source and clears the modifier state. With wait it
// also waits for the pump to drain, which a panicking pump cannot do.
func (e *Engine) stopHook(wait bool) error {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	err := e.src.Stop()
	if wait && e.pumpDone != nil {
		select {
		case <-e.pumpDone:
		case <-time.After(time.Second):
			log.Warnf("engine: event pump did not drain")
		}
	}
	e.pumpDone = nil
	e.mods.Reset()
	e.firedKey.Store(0)
	e.lp.Cancel()
	return err
}

// pump drains one hook start's event channel.
func (e *Engine) pump(events <-chan hook.Event, done chan struct{}) {
	defer close(done)
	e.guard(func() {
		for ev := range events {
			e.handle(ev)
		}
	})
}

func (e *Engine) handle(ev hook.Event) {
	e.mon.Touch()
	switch ev.Kind {
	case hook.KeyDown:
		if e.mods.KeyDown(ev.Key) {
			return
		}
		e.onKeyDown(ev.Key)
	case hook.KeyUp:
		if !e.mods.KeyUp(ev.Key) {
			e.firedKey.CompareAndSwap(uint32(ev.Key), 0)
		}
	case hook.MouseDown:
		e.setPointer(ev.X, ev.Y)
		if e.paused.Load() {
			return
		}
		e.lp.ButtonDown(ev.Button, ev.X, ev.Y, e.mods.Snapshot())
	case hook.MouseUp:
		e.setPointer(ev.X, ev.Y)
		e.lp.ButtonUp(ev.Button)
		if ev.Button == trigger.ButtonLeft && e.panelVisible.Load() {
			e.forwardClick(ev.X, ev.Y)
		}
	case hook.MouseMove:
		e.setPointer(ev.X, ev.Y)
		e.lp.Move(ev.X, ev.Y)
	}
}

func (e *Engine) setPointer(x, y int) {
	e.pointerX.Store(int64(x))
	e.pointerY.Store(int64(y))
}

func (e *Engine) pointer() (int, int) {
	return int(e.pointerX.Load()), int(e.pointerY.Load())
}

func (e *Engine) onKeyDown(key trigger.Key) {
	if e.paused.Load() {
		return
	}
	if trigger.Key(e.firedKey.Load()) == key {
		return
	}
	active := e.mods.Snapshot()
	m := e.reg.Match(key, active)
	if !m.Matched() {
		return
	}
	e.firedKey.Store(uint32(key))
	e.capturer.Start(e.context())

	var action func()
	if m.Shortcut != nil {
		sc := *m.Shortcut
		log.Printf("Shortcut hotkey %s fired (%s)", sc.Trigger(), sc.ID)
		action = func() { e.dispatchShortcut(sc) }
	} else {
		x, y := e.pointer()
		log.Printf("Panel hotkey %s fired at (%d, %d)", trigger.Spec{Kind: trigger.KeyboardChord, Key: key, Modifiers: active}, x, y)
		action = func() { e.dispatchPanel(PanelEvent{X: x, Y: y, Source: SourceKeyboard}) }
	}

	e.unsuppressed.Store(uint32(key))
	suppress := func() {
		e.unsuppressed.CompareAndSwap(uint32(key), 0)
		e.sup.Suppress(key, active)
	}
	e.timers.After(e.opts.ActionDelay, func() {
		e.guard(func() {
			action()
			if e.timers.After(e.opts.SuppressDelay, func() { e.guard(suppress) }) == nil {
				// Stopped between the action and its suppression.
				suppress()
			}
		})
	})
}

// releaseUnsuppressed releases the key of a fired chord whose scheduled
// suppression was cancelled.
func (e *Engine) releaseUnsuppressed() {
	if k := trigger.Key(e.unsuppressed.Swap(0)); k != 0 {
		e.sup.Suppress(k, 0)
	}
}

func (e *Engine) onLongPressStart() {
	if e.paused.Load() {
		return
	}
	e.capturer.Start(e.context())
}

func (e *Engine) onLongPressFire(x, y int) {
	e.guard(func() {
		e.dispatchPanel(PanelEvent{X: x, Y: y, Source: SourceMouse})
	})
}

func (e *Engine) submit(name string, job worker.Job) {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		log.Debugf("engine: not running, dropping %s", name)
		return
	}
	pool.Submit(name, job)
}

func (e *Engine) dispatchPanel(ev PanelEvent) {
	e.panelVisible.Store(true)
	e.submit("panel trigger", func() { e.disp.OnPanelTrigger(ev) })
}

func (e *Engine) dispatchShortcut(s chord.Shortcut) {
	e.submit("shortcut "+s.ID, func() { e.disp.OnShortcutTrigger(s) })
}

func (e *Engine) forwardClick(x, y int) {
	co, ok := e.disp.(ClickObserver)
	if !ok {
		return
	}
	e.submit("outside click", func() { co.OnOutsideClick(x, y) })
}
