package runtimeinit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"

	"trigger-engine/src/clipboard"
	"trigger-engine/src/config"
	"trigger-engine/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// Stderr mirrors logs to stderr, for foreground runs.
	Stderr bool
	// SkipClipboard leaves Runtime.Clipboard nil, for tools that never capture.
	SkipClipboard bool
}

// Runtime is everything a resident needs before the engine is built.
type Runtime struct {
	Config    *config.Config
	Clipboard *clipboard.System
	Shortcuts []config.Shortcut
	LogCloser io.Closer
}

// Close flushes the log file.
func (r *Runtime) Close() error {
	if r.LogCloser == nil {
		return nil
	}
	return r.LogCloser.Close()
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := &Runtime{Config: cfg}
	rt.LogCloser = logutil.Setup(logutil.Options{
		EnableFileLogging: cfg.EnableFileLogging,
		Debug:             cfg.Debug,
		Stderr:            opts.Stderr,
	})
	if cfg.EnvPath != "" {
		log.Printf("Loaded configuration from %s", cfg.EnvPath)
	} else {
		log.Printf("No .env file found, using environment and defaults")
	}

	shortcuts, err := loadShortcuts(cfg.ShortcutsFile)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Shortcuts = shortcuts

	if !opts.SkipClipboard {
		clip, err := clipboard.New()
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		rt.Clipboard = clip
	}

	return rt, nil
}

// loadShortcuts reads the shortcuts file. A missing file is not an error:
// shortcuts can still be registered over the bridge.
func loadShortcuts(path string) ([]config.Shortcut, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Printf("Shortcuts file %s not found, starting without shortcuts", path)
		return nil, nil
	}
	shortcuts, err := config.LoadShortcuts(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d shortcuts from %s", len(shortcuts), path)
	return shortcuts, nil
}
