package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"trigger-engine/src/chord"
	"trigger-engine/src/config"
	"trigger-engine/src/engine"
	"trigger-engine/src/singleinstance"
	"trigger-engine/src/trigger"
)

const requestTimeout = 5 * time.Second

type cliOptions struct {
	envPath    string
	jsonOutput bool
	verbose    bool
}

// resident is the control-plane client; tests swap in a fake.
type resident interface {
	Status(ctx context.Context) (engine.Status, error)
	Restart(ctx context.Context) error
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args), os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, out io.Writer, client resident) error {
	if len(args) == 0 {
		args = []string{"triggerctl"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(opts, out, func() resident {
		if client != nil {
			return client
		}
		return singleinstance.NewClient(singleinstance.PortRangeFromEnv())
	})
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, out io.Writer, connect func() resident) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "triggerctl",
		Short:         "Inspect and control the resident trigger engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				log.SetOutput(os.Stderr)
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetOutput(io.Discard)
			}
			// Loading the env file applies SINGLEINSTANCE_PORT_* before any scan.
			cfg, err := config.LoadWithOptions(config.LoadOptions{EnvPathOverride: opts.envPath})
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log.Debugf("config loaded from %q", cfg.EnvPath)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envPath, "env", "", "Path to the .env file")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the resident engine's state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
				defer cancel()
				st, err := connect().Status(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(out, st)
				}
				printStatus(out, st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "restart-hook",
			Short: "Reinstall the resident's global input hook",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
				defer cancel()
				if err := connect().Restart(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "input hook restarted")
				return nil
			},
		},
		&cobra.Command{
			Use:   "resolve <descriptor>",
			Short: "Parse a trigger descriptor and print its canonical form",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return resolve(out, args[0], opts.jsonOutput)
			},
		},
		&cobra.Command{
			Use:   "shortcuts <file>",
			Short: "Validate a shortcuts file against the panel trigger",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				panel := os.Getenv("PANEL_TRIGGER")
				if panel == "" {
					panel = config.DefaultPanelTrigger
				}
				return checkShortcuts(out, args[0], panel)
			},
		},
	)
	return cmd
}

type resolution struct {
	Descriptor string `json:"descriptor"`
	Canonical  string `json:"canonical"`
	Kind       string `json:"kind"`
}

func resolve(out io.Writer, descriptor string, jsonOutput bool) error {
	spec, ok := trigger.Resolve(descriptor)
	if !ok {
		return fmt.Errorf("invalid trigger descriptor %q", descriptor)
	}
	r := resolution{Descriptor: descriptor, Canonical: spec.String(), Kind: spec.Kind.String()}
	if jsonOutput {
		return writeJSON(out, r)
	}
	fmt.Fprintf(out, "%s (%s)\n", r.Canonical, r.Kind)
	return nil
}

// checkShortcuts registers every entry into a scratch registry, which applies
// the same rules the resident does.
func checkShortcuts(out io.Writer, path, panel string) error {
	shortcuts, err := config.LoadShortcuts(path)
	if err != nil {
		return err
	}
	reg := chord.NewRegistry()
	if spec, ok := trigger.Resolve(panel); ok && !spec.IsMouse() {
		if err := reg.SetPanel(spec); err != nil {
			return fmt.Errorf("panel trigger %q: %w", panel, err)
		}
	}

	var failed []string
	for _, s := range shortcuts {
		err := reg.Register(chord.Shortcut{ID: s.ID, Hotkey: s.Hotkey, Name: s.Name, Icon: s.Icon, Prompt: s.Prompt, Model: s.Model, Temperature: s.Temperature})
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", s.ID, err))
			fmt.Fprintf(out, "FAIL %-16s %-20s %v\n", s.ID, s.Hotkey, err)
			continue
		}
		fmt.Fprintf(out, "ok   %-16s %s\n", s.ID, s.Hotkey)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d shortcuts rejected: %s", len(failed), len(shortcuts), strings.Join(failed, "; "))
	}
	return nil
}

func printStatus(out io.Writer, st engine.Status) {
	fmt.Fprintf(out, "running:       %v\n", st.Running)
	fmt.Fprintf(out, "paused:        %v\n", st.Paused)
	fmt.Fprintf(out, "panel trigger: %s\n", st.PanelTrigger)
	fmt.Fprintf(out, "panel visible: %v\n", st.PanelVisible)
	fmt.Fprintf(out, "shortcuts:     %s\n", strings.Join(st.Shortcuts, ", "))
	fmt.Fprintf(out, "hook:          %s (restarts: %d)\n", st.Hook.State, st.Hook.Restarts)
	if st.Hook.LastError != "" {
		fmt.Fprintf(out, "last error:    %s\n", st.Hook.LastError)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// normalizeLegacyArgs maps single-dash long flags to the double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		switch {
		case arg == "-json":
			normalized[i] = "--json"
		case strings.HasPrefix(arg, "-json="):
			normalized[i] = "--json=" + arg[len("-json="):]
		case arg == "-verbose":
			normalized[i] = "--verbose"
		case arg == "-env":
			normalized[i] = "--env"
		case strings.HasPrefix(arg, "-env="):
			normalized[i] = "--env=" + arg[len("-env="):]
		}
	}
	return normalized
}
