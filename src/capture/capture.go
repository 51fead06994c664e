// Package capture reads the text selected in the focused foreign window by
// synthesizing a copy and watching the clipboard, then puts the clipboard back.
package capture

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"trigger-engine/src/inject"
	"trigger-engine/src/logutil"
	"trigger-engine/src/trigger"
)

// SentinelPrefix marks the placeholder written before the synthetic copy.
const SentinelPrefix = "__FT_SENTINEL__"

// MaxCachedText is the largest selection handed to consumers.
const MaxCachedText = 10000

const cacheKey = "selection"

// cleanupKeys are released after every capture, however it ended.
var cleanupKeys = append(trigger.AllModifierKeys(), trigger.KeyC)

// Clipboard is the text clipboard shared with every other application.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Options are the protocol timings. Zero values take the defaults.
type Options struct {
	SettleDelay  time.Duration
	KeyGap       time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
	CacheTTL     time.Duration
	// CopyModifier overrides the platform copy modifier (Ctrl, or Cmd on darwin).
	CopyModifier trigger.Key
}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = 10 * time.Millisecond
	}
	if o.KeyGap <= 0 {
		o.KeyGap = 3 * time.Millisecond
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 20 * time.Millisecond
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 300 * time.Millisecond
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Second
	}
	if o.CopyModifier == 0 {
		o.CopyModifier = inject.CopyModifier()
	}
	return o
}

// Capturer runs the capture protocol. One capture runs at a time; a
// concurrent request is abandoned rather than queued.
type Capturer struct {
	clip Clipboard
	inj  inject.Injector
	opts Options

	busy atomic.Bool

	cacheMu sync.Mutex
	cache   *gocache.Cache
}

// New returns a Capturer over the given clipboard and injector.
func New(clip Clipboard, inj inject.Injector, opts Options) *Capturer {
	opts = opts.withDefaults()
	return &Capturer{
		clip:  clip,
		inj:   inj,
		opts:  opts,
		cache: gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

// Options returns the effective timings.
func (c *Capturer) Options() Options { return c.opts }

// Busy reports whether a capture is in flight.
func (c *Capturer) Busy() bool { return c.busy.Load() }

// Capture runs the protocol and returns the selected text, or "" when nothing
// was selected, a capture was already running, or anything failed. The
// clipboard is restored in every case where it was modified.
func (c *Capturer) Capture(ctx context.Context) string {
	if !c.busy.CompareAndSwap(false, true) {
		log.Debugf("capture: already in flight, abandoning request")
		return ""
	}

	var text string
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("capture: panic: %v", r)
			text = ""
		}
		if err := inject.ReleaseAll(c.inj, cleanupKeys); err != nil {
			log.Warnf("capture: releasing keys: %v", err)
		}
		c.store(text)
		c.busy.Store(false)
	}()

	text = c.run(ctx)
	return text
}

func (c *Capturer) run(ctx context.Context) string {
	previous, err := c.clip.ReadText()
	if err != nil {
		log.Warnf("capture: reading clipboard: %v", err)
		return ""
	}
	defer func() {
		if err := c.clip.WriteText(previous); err != nil {
			log.Errorf("capture: restoring clipboard: %v", err)
		}
	}()

	if err := c.clip.WriteText(newSentinel()); err != nil {
		log.Warnf("capture: writing sentinel: %v", err)
		return ""
	}

	if err := inject.ReleaseModifiers(c.inj); err != nil {
		log.Debugf("capture: releasing modifiers before copy: %v", err)
	}
	if !sleep(ctx, c.opts.SettleDelay) {
		return ""
	}

	if err := inject.Chord(c.inj, c.opts.CopyModifier, trigger.KeyC, c.opts.KeyGap); err != nil {
		log.Warnf("capture: sending copy chord: %v", err)
		return ""
	}

	text := c.poll(ctx, previous)
	if text == "" {
		log.Printf("capture: clipboard unchanged or empty, nothing selected or copy was blocked")
	} else {
		log.Printf("capture: captured %d chars: %q", len(text), logutil.SanitizeForLogging(text))
	}
	return text
}

// poll waits for a clipboard value that is new, non-empty and not the sentinel.
func (c *Capturer) poll(ctx context.Context, previous string) string {
	deadline := time.Now().Add(c.opts.PollTimeout)
	for {
		current, err := c.clip.ReadText()
		if err != nil {
			log.Debugf("capture: polling clipboard: %v", err)
		}
		current = strings.TrimSpace(current)
		if current != "" && current != previous && !strings.HasPrefix(current, SentinelPrefix) {
			return current
		}
		if !time.Now().Before(deadline) {
			return ""
		}
		if !sleep(ctx, c.opts.PollInterval) {
			return ""
		}
	}
}

func (c *Capturer) store(text string) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache.Set(cacheKey, text, gocache.DefaultExpiration)
}

// Take returns the cached text and clears it.
func (c *Capturer) Take() string {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	text := c.peekLocked()
	c.cache.Delete(cacheKey)
	return text
}

// Peek returns the cached text without clearing it.
func (c *Capturer) Peek() string {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.peekLocked()
}

func (c *Capturer) peekLocked() string {
	v, ok := c.cache.Get(cacheKey)
	if !ok {
		return ""
	}
	text, _ := v.(string)
	if len(text) >= MaxCachedText {
		log.Printf("capture: cached selection of %d bytes exceeds limit, ignoring", len(text))
		return ""
	}
	return text
}

// Start runs Capture on its own goroutine and returns immediately.
func (c *Capturer) Start(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	if c.Busy() {
		t.finish("")
		return t
	}
	go func() {
		t.finish(c.Capture(ctx))
	}()
	return t
}

// Task is a capture running in the background.
type Task struct {
	done chan struct{}
	text string
}

func (t *Task) finish(text string) {
	t.text = text
	close(t.done)
}

// Done is closed when the capture has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the capture finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for capture: %w", ctx.Err())
	}
}

// Result returns the captured text once Done is closed, "" before that.
func (t *Task) Result() string {
	select {
	case <-t.done:
		return t.text
	default:
		return ""
	}
}

func newSentinel() string {
	return SentinelPrefix + strconv.FormatInt(time.Now().UnixNano(), 10) + "_" + uuid.NewString()
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
