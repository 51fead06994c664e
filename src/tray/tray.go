// Package tray shows the resident engine in the system tray with a small
// control menu.
package tray

import (
	"context"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	log "github.com/sirupsen/logrus"
)

// Controls is the part of the engine the menu drives.
type Controls interface {
	SetPaused(paused bool)
	Paused() bool
	RestartHook(ctx context.Context) error
	PanelTrigger() string
}

type Config struct {
	Title    string
	Controls Controls
	// OnQuit runs when the user picks Quit, before the tray exits.
	OnQuit func()
}

// Manager manages the system tray icon and menu.
type Manager struct {
	cfg Config
}

func New(cfg Config) *Manager {
	if cfg.Title == "" {
		cfg.Title = "Trigger Engine"
	}
	return &Manager{cfg: cfg}
}

// Run starts the system tray (blocking call).
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray.
func (m *Manager) Stop() {
	systray.Quit()
}

// Tooltip describes the engine state for the tray.
func Tooltip(title, panel string, paused bool) string {
	switch {
	case paused:
		return fmt.Sprintf("%s - paused", title)
	case panel == "":
		return fmt.Sprintf("%s - no panel trigger", title)
	default:
		return fmt.Sprintf("%s - %s opens the panel", title, panel)
	}
}

func (m *Manager) refresh() {
	ctl := m.cfg.Controls
	paused := ctl.Paused()
	if paused {
		systray.SetIcon(PausedIcon())
	} else {
		systray.SetIcon(Icon())
	}
	systray.SetTooltip(Tooltip(m.cfg.Title, ctl.PanelTrigger(), paused))
}

func (m *Manager) onReady() {
	systray.SetTitle(m.cfg.Title)
	m.refresh()

	mPause := systray.AddMenuItemCheckbox("Pause triggers", "Stop recognizing triggers until resumed", m.cfg.Controls.Paused())
	mRestart := systray.AddMenuItem("Restart input hook", "Reinstall the global input hook")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the trigger engine")

	go func() {
		for {
			select {
			case <-mPause.ClickedCh:
				paused := !m.cfg.Controls.Paused()
				m.cfg.Controls.SetPaused(paused)
				if paused {
					mPause.Check()
				} else {
					mPause.Uncheck()
				}
				m.refresh()
			case <-mRestart.ClickedCh:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := m.cfg.Controls.RestartHook(ctx); err != nil {
					log.Errorf("tray: restarting hook: %v", err)
				}
				cancel()
			case <-mQuit.ClickedCh:
				log.Printf("User requested quit from system tray")
				if m.cfg.OnQuit != nil {
					m.cfg.OnQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (m *Manager) onExit() {
	log.Printf("System tray exited")
}
