package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"trigger-engine/src/bridge"
	"trigger-engine/src/capture"
	"trigger-engine/src/config"
	"trigger-engine/src/engine"
	"trigger-engine/src/health"
	"trigger-engine/src/hook"
	"trigger-engine/src/inject"
	"trigger-engine/src/longpress"
	"trigger-engine/src/notification"
	"trigger-engine/src/runtimeinit"
	"trigger-engine/src/singleinstance"
	"trigger-engine/src/tray"
)

const (
	appTitle      = "Trigger Engine"
	shutdownGrace = 3 * time.Second
	crashGrace    = 100 * time.Millisecond
)

type mainOptions struct {
	envPath      string
	panelTrigger string
	verbose      bool
	noTray       bool
}

func init() {
	// The tray's message loop must own the main thread.
	runtime.LockOSThread()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("fatal: %v", r)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "trigger-engine",
		Short:         "Resident global trigger engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runResident(*opts)
			if err != nil && !opts.noTray {
				notification.StartupError(err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to the .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.panelTrigger, "panel-trigger", "", "Panel trigger descriptor, overrides PANEL_TRIGGER")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Mirror logs to stderr")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "Run without the system tray icon")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-env, -no-tray) to the
// double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"trigger-engine"}
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"env", "panel-trigger", "verbose", "no-tray"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

func runResident(opts mainOptions) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvPathOverride:      opts.envPath,
			PanelTriggerOverride: opts.panelTrigger,
		},
		Stderr: opts.verbose,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ports are read after Bootstrap so the .env file can set them.
	ports := singleinstance.PortRangeFromEnv()
	if port, ok := singleinstance.NewClient(ports).DetectResidentPort(ctx); ok {
		log.Printf("Pre-flight: resident already answering on port %d", port)
		return fmt.Errorf("one is already running on port %d", port)
	}

	events := bridge.NewServer(cfg.BridgeAddr)
	if cfg.BridgeToken != "" {
		events.SetToken(cfg.BridgeToken)
	}
	eng, err := engine.New(engineOptions(cfg, events, rt.Clipboard, onCrash))
	if err != nil {
		return err
	}
	events.Attach(eng)
	registerShortcuts(eng, rt.Shortcuts)

	resident := singleinstance.NewServer(eng, ports)
	if err := resident.Start(ctx); err != nil {
		return err
	}
	defer resident.Close()

	if err := events.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer scancel()
		if err := events.Close(sctx); err != nil {
			log.Warnf("bridge shutdown: %v", err)
		}
	}()

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Stop()

	log.WithFields(log.Fields{
		"panel_trigger": eng.PanelTrigger(),
		"shortcuts":     len(eng.Shortcuts()),
		"bridge":        events.Addr(),
		"control_port":  resident.Port(),
	}).Info("Trigger engine running")

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-ch:
			log.Printf("Received %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.noTray {
		<-ctx.Done()
		return nil
	}

	icon := tray.New(tray.Config{Title: appTitle, Controls: eng, OnQuit: cancel})
	go func() {
		<-ctx.Done()
		icon.Stop()
	}()
	icon.Run()
	cancel()
	return nil
}

func engineOptions(cfg *config.Config, disp engine.Dispatcher, clip capture.Clipboard, crash func(any)) engine.Options {
	t := cfg.Timing
	return engine.Options{
		Source:        hook.NewGohookSource(),
		Injector:      inject.NewRobot(),
		Clipboard:     clip,
		Dispatcher:    disp,
		PanelTrigger:  cfg.PanelTrigger,
		ActionDelay:   t.ActionDelay,
		SuppressDelay: t.SuppressDelay,
		LongPress: longpress.Options{
			Threshold:   t.LongPressThreshold,
			MaxMovement: t.MaxMovement,
		},
		Capture: capture.Options{
			SettleDelay:  t.CaptureSettle,
			KeyGap:       t.CaptureKeyGap,
			PollInterval: t.CapturePollInterval,
			PollTimeout:  t.CapturePollTimeout,
			CacheTTL:     t.CaptureCacheTTL,
		},
		Health: health.Options{
			Interval:      t.HealthInterval,
			IdleThreshold: t.HealthIdleThreshold,
			Settle:        t.HookRestartSettle,
			Idle:          health.SystemIdle,
		},
		OnCrash: crash,
	}
}

// shortcutRegistrar is the registration half of the engine API.
type shortcutRegistrar interface {
	RegisterShortcutHotkey(id, descriptor, name, icon, prompt string, model *string, temperature *float64) bool
}

// registerShortcuts registers every shortcut from the file and returns how
// many were accepted. Rejected entries are logged and skipped.
func registerShortcuts(reg shortcutRegistrar, shortcuts []config.Shortcut) int {
	accepted := 0
	for _, s := range shortcuts {
		if !reg.RegisterShortcutHotkey(s.ID, s.Hotkey, s.Name, s.Icon, s.Prompt, s.Model, s.Temperature) {
			log.Warnf("Shortcut %q (%s) rejected", s.ID, s.Hotkey)
			continue
		}
		accepted++
	}
	return accepted
}

// onCrash runs after the engine has released every key it held. The process
// exits so a supervisor can start a clean one.
func onCrash(reason any) {
	log.Errorf("Engine crashed: %v; exiting", reason)
	time.Sleep(crashGrace)
	os.Exit(1)
}
