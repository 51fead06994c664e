package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPanelTrigger = "LongPress:Middle"
	DefaultBridgeAddr   = "127.0.0.1:49561"
	DefaultShortcuts    = "shortcuts.toml"
	EnvPathEnvVar       = "TRIGGER_ENGINE_ENV"
)

type LoadOptions struct {
	EnvPathOverride      string
	PanelTriggerOverride string
}

// Timing holds every protocol delay. All of them are tunable from the env file.
type Timing struct {
	LongPressThreshold  time.Duration
	MaxMovement         float64
	ActionDelay         time.Duration
	SuppressDelay       time.Duration
	CaptureSettle       time.Duration
	CaptureKeyGap       time.Duration
	CapturePollInterval time.Duration
	CapturePollTimeout  time.Duration
	CaptureCacheTTL     time.Duration
	HealthInterval      time.Duration
	HealthIdleThreshold time.Duration
	HookRestartSettle   time.Duration
}

type Config struct {
	EnvPath           string
	PanelTrigger      string
	ShortcutsFile     string
	EnableFileLogging bool
	Debug             bool
	BridgeAddr        string
	// BridgeToken, when set, must be presented by every bridge client.
	BridgeToken string
	Timing      Timing
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) an explicit override path
	// 2) .env in the application (executable) directory
	// 3) If not found, use TRIGGER_ENGINE_ENV env var as a path to a config file
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	panel := getEnvWithDefault("PANEL_TRIGGER", DefaultPanelTrigger)
	if override := strings.TrimSpace(opts.PanelTriggerOverride); override != "" {
		panel = override
	}

	cfg := &Config{
		EnvPath:           envPath,
		PanelTrigger:      panel,
		ShortcutsFile:     resolveShortcutsFile(envPath),
		EnableFileLogging: envBool("ENABLE_FILE_LOGGING"),
		Debug:             envBool("DEBUG"),
		BridgeAddr:        getEnvWithDefault("BRIDGE_ADDR", DefaultBridgeAddr),
		BridgeToken:       strings.TrimSpace(os.Getenv("BRIDGE_TOKEN")),
		Timing: Timing{
			LongPressThreshold:  envMillis("LONG_PRESS_THRESHOLD_MS", 300),
			MaxMovement:         envFloat("MAX_MOVEMENT_PX", 6),
			ActionDelay:         envMillis("ACTION_DELAY_MS", 25),
			SuppressDelay:       envMillis("SUPPRESS_DELAY_MS", 5),
			CaptureSettle:       envMillis("CAPTURE_SETTLE_MS", 10),
			CaptureKeyGap:       envMillis("CAPTURE_KEY_GAP_MS", 3),
			CapturePollInterval: envMillis("CAPTURE_POLL_INTERVAL_MS", 20),
			CapturePollTimeout:  envMillis("CAPTURE_POLL_TIMEOUT_MS", 300),
			CaptureCacheTTL:     envSeconds("CAPTURE_CACHE_TTL_SEC", 30),
			HealthInterval:      envSeconds("HEALTH_CHECK_INTERVAL_SEC", 30),
			HealthIdleThreshold: envSeconds("HEALTH_IDLE_THRESHOLD_SEC", 300),
			HookRestartSettle:   envMillis("HOOK_RESTART_SETTLE_MS", 500),
		},
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.EnvPathOverride); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// resolveShortcutsFile returns SHORTCUTS_FILE, resolving a relative path
// against the env file's directory. An unset value defaults to
// shortcuts.toml beside the env file, or "" when there is no env file.
func resolveShortcutsFile(envPath string) string {
	path := strings.TrimSpace(os.Getenv("SHORTCUTS_FILE"))
	if path == "" {
		if envPath == "" {
			return ""
		}
		path = DefaultShortcuts
	}
	if !filepath.IsAbs(path) && envPath != "" {
		path = filepath.Join(filepath.Dir(envPath), path)
	}
	return path
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Millisecond
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
